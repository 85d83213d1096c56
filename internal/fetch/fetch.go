//-------------------------------------------------------------------------
//
// pgEdge ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package fetch extracts JSON API collections into CSV files.
package fetch

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"

	"github.com/pgEdge/pgedge-etl/internal/logging"
)

// Missing is written for fields an object does not carry.
const Missing = "Unknown"

// Client fetches collections from one API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
			},
		},
	}, nil
}

// Get fetches endpoint and decodes it as a JSON array of objects.
func (c *Client) Get(ctx context.Context, endpoint string) ([]map[string]any, error) {
	u := c.baseURL.JoinPath(endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var objects []map[string]any
	if err := dec.Decode(&objects); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return objects, nil
}

// Flatten turns objects into a header and string rows. Columns are the
// snake_cased union of every object's keys, sorted. Keys that snake_case
// to the same column are merged: the first non-null value, taking the raw
// keys in sorted order, wins. Arrays are joined with ", ", nested objects
// kept as JSON, and absent or null fields become Missing.
func Flatten(objects []map[string]any) ([]string, [][]string) {
	columns := make(map[string][]string)
	seen := make(map[string]bool)
	for _, obj := range objects {
		for k := range obj {
			if seen[k] {
				continue
			}
			seen[k] = true
			col := SnakeCase(k)
			columns[col] = append(columns[col], k)
		}
	}

	header := make([]string, 0, len(columns))
	for col, raw := range columns {
		header = append(header, col)
		slices.Sort(raw)
	}
	slices.Sort(header)

	rows := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(header))
		for j, col := range header {
			row[j] = Missing
			for _, k := range columns[col] {
				if v, ok := obj[k]; ok && v != nil {
					row[j] = cell(v)
					break
				}
			}
		}
		rows[i] = row
	}
	return header, rows
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return Missing
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = cell(e)
		}
		return strings.Join(parts, ", ")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// SnakeCase converts a camelCase key to snake_case.
func SnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if r == '-' || r == ' ' {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// WriteCSV writes header and rows to w.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// Result reports one extracted endpoint.
type Result struct {
	Endpoint string
	File     string
	Rows     int
	Err      error
}

// Extractor writes one CSV per endpoint into a directory.
type Extractor struct {
	client *Client
	outDir string
}

// NewExtractor creates an extractor writing into outDir.
func NewExtractor(client *Client, outDir string) *Extractor {
	return &Extractor{client: client, outDir: outDir}
}

// Extract fetches and writes one endpoint to <outDir>/<endpoint>.csv.
func (e *Extractor) Extract(ctx context.Context, endpoint string) Result {
	res := Result{Endpoint: endpoint}

	objects, err := e.client.Get(ctx, endpoint)
	if err != nil {
		res.Err = err
		return res
	}
	header, rows := Flatten(objects)

	name := strings.ReplaceAll(strings.Trim(endpoint, "/"), "/", "_") + ".csv"
	res.File = filepath.Join(e.outDir, name)

	f, err := os.Create(res.File)
	if err != nil {
		res.Err = err
		return res
	}
	if err := WriteCSV(f, header, rows); err != nil {
		f.Close()
		res.Err = fmt.Errorf("write %s: %w", res.File, err)
		return res
	}
	if err := f.Close(); err != nil {
		res.Err = err
		return res
	}

	res.Rows = len(rows)
	return res
}

// ErrAllFailed is returned when no endpoint could be extracted.
var ErrAllFailed = errors.New("every endpoint failed")

// Run extracts every endpoint in order. A failed endpoint is logged and
// skipped. The error is non-nil only when all of them failed.
func (e *Extractor) Run(ctx context.Context, endpoints []string) ([]Result, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]Result, 0, len(endpoints))
	var errs []error
	for _, ep := range endpoints {
		res := e.Extract(ctx, ep)
		results = append(results, res)

		if res.Err != nil {
			logging.Error().
				Err(res.Err).
				Str("endpoint", ep).
				Msg("Failed to extract endpoint")
			errs = append(errs, fmt.Errorf("%s: %w", ep, res.Err))
			continue
		}
		logging.Info().
			Str("endpoint", ep).
			Str("file", res.File).
			Int("rows", res.Rows).
			Msg("Extracted endpoint")
	}

	if len(endpoints) > 0 && len(errs) == len(endpoints) {
		return results, fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
	}
	return results, nil
}
