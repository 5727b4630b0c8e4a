package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/pidsim/internal/experiment"
	"github.com/san-kum/pidsim/internal/export"
	"github.com/san-kum/pidsim/internal/logs"
)

func TestParseSpan(t *testing.T) {
	tests := []struct {
		in      string
		want    []float64
		wantErr bool
	}{
		{"2.5", []float64{2.5}, false},
		{"0:10:3", []float64{0, 5, 10}, false},
		{"1:2:1", []float64{1}, false},
		{"1:2", nil, true},
		{"a:2:3", nil, true},
		{"0:1:2.5", nil, true},
		{"0:1:0", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSpan(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestWriteOutput(t *testing.T) {
	cfg := experiment.DefaultConfig()
	cfg.Samples = 200
	res, err := experiment.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	dir := t.TempDir()
	for _, name := range []string{"out.json", "out.csv", "out.svg"} {
		path := filepath.Join(dir, name)
		if err := writeOutput(path, res); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%s: expected a non-empty file", name)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "time,reference,output,control") {
		t.Errorf("unexpected csv header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	f, err := os.Open(filepath.Join(dir, "out.json"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	back, err := export.ReadJSON(f)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if back.Caption != res.Caption {
		t.Errorf("expected caption %q, got %q", res.Caption, back.Caption)
	}

	if err := writeOutput(filepath.Join(dir, "out.bmp"), res); err == nil {
		t.Error("expected an error for an unsupported extension")
	}
}

func TestTraceTable(t *testing.T) {
	var buf bytes.Buffer
	trace := newTraceTable(&buf, 25)

	cfg := experiment.DefaultConfig()
	cfg.Method = experiment.MethodSampled
	cfg.Samples = 100
	cfg.Observer = trace
	if _, err := experiment.NewRunner(logs.Discard()).Run(context.Background(), cfg); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if err := trace.Flush(); err != nil {
		t.Fatal(err)
	}

	if trace.rows != 4 {
		t.Errorf("printed %d rows, want 4", trace.rows)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header and 4 rows, got:\n%s", buf.String())
	}
	if fields := strings.Fields(lines[0]); len(fields) != 5 || fields[0] != "STEP" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if fields := strings.Fields(lines[2]); fields[0] != "25" {
		t.Errorf("second row should be step 25, got %q", lines[2])
	}
}
