package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgEdge/pgedge-etl/internal/pipeline"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		transformOnly = nil
		transformWithDependents = false
		transformList = false
		generateOutputDir = ""
		generateOrders = 0
		generateSeed = 0
		generateProfile = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "pgedge-etl") {
		t.Errorf("version output = %q", out)
	}
}

func TestStepsCommand(t *testing.T) {
	out, err := runCLI(t, "steps")
	if err != nil {
		t.Fatalf("steps failed: %v", err)
	}
	for _, name := range pipeline.ETL().Names() {
		if !strings.Contains(out, name) {
			t.Errorf("steps output missing %s:\n%s", name, out)
		}
	}
}

func TestTransformList(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
		wantErr bool
	}{
		{
			name: "single step with ancestors",
			args: []string{"transform", "--list", "--only", pipeline.StepOrders},
			want: []string{pipeline.StepFeedback, pipeline.StepOrders},
			notWant: []string{
				pipeline.StepUsers, pipeline.StepFact,
			},
		},
		{
			name: "dimension with dependents",
			args: []string{"transform", "--list", "--only", pipeline.StepUsers, "--with-dependents"},
			want: []string{pipeline.StepUsers, pipeline.StepOrders, pipeline.StepFact},
		},
		{
			name:    "unknown step with dependents",
			args:    []string{"transform", "--list", "--only", "nope", "--with-dependents"},
			wantErr: true,
		},
		{
			name: "whole graph",
			args: []string{"transform", "--list"},
			want: []string{pipeline.StepUsers, pipeline.StepFact},
		},
		{
			name:    "unknown step",
			args:    []string{"transform", "--list", "--only", "nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %s:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, "  "+w+" ") {
					t.Errorf("output should not list %s:\n%s", w, out)
				}
			}
		})
	}
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "generate", "--output-dir", dir, "--orders", "20", "--seed", "5")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(out, "total") {
		t.Errorf("generate output = %q", out)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil || len(files) != 7 {
		t.Fatalf("files = %v, %v", files, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "order_item_dataset.csv")); err != nil {
		t.Errorf("order_item_dataset.csv missing: %v", err)
	}
}
