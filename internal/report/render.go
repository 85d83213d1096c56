//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const barWidth = 40

// Render writes c to w as a horizontal bar chart scaled on the first
// measure. Charts without label columns are printed as a list of values.
func Render(w io.Writer, c Chart) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n", c.Title, strings.Repeat("=", len(c.Title)))
	switch {
	case c.Error != "":
		fmt.Fprintf(&b, "  error: %s\n", c.Error)
	case len(c.Points) == 0:
		b.WriteString("  (no data)\n")
	case len(c.LabelColumns) == 0:
		renderValues(&b, c)
	default:
		renderBars(&b, c)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func renderValues(b *strings.Builder, c Chart) {
	width := 0
	for _, name := range c.ValueColumns {
		width = max(width, len(name))
	}
	for _, p := range c.Points {
		for i, v := range p.Values {
			fmt.Fprintf(b, "  %-*s  %s\n", width, c.ValueColumns[i], FormatValue(v))
		}
	}
}

func renderBars(b *strings.Builder, c Chart) {
	labels := make([]string, len(c.Points))
	width := 0
	peak := 0.0
	for i, p := range c.Points {
		labels[i] = strings.Join(p.Labels, " / ")
		width = max(width, len(labels[i]))
		peak = max(peak, p.Values[0])
	}

	for i, p := range c.Points {
		n := 0
		if peak > 0 && p.Values[0] > 0 {
			n = max(1, int(p.Values[0]/peak*barWidth+0.5))
		}

		extra := make([]string, 0, len(p.Values)-1)
		for j := 1; j < len(p.Values); j++ {
			extra = append(extra, c.ValueColumns[j]+"="+FormatValue(p.Values[j]))
		}

		fmt.Fprintf(b, "  %-*s | %-*s %s", width, labels[i], barWidth, strings.Repeat("#", n), FormatValue(p.Values[0]))
		if len(extra) > 0 {
			fmt.Fprintf(b, "  (%s)", strings.Join(extra, ", "))
		}
		b.WriteString("\n")
	}
}

// FormatValue prints whole numbers without decimals and everything else
// with two.
func FormatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
