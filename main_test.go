package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
)

func TestSplitInputs(t *testing.T) {
	got := splitInputs(" a.rs, ,b.rs", []string{"c.rs"})
	if strings.Join(got, "|") != "a.rs|b.rs|c.rs" {
		t.Fatalf("splitInputs = %v", got)
	}
	if got := splitInputs("", nil); len(got) != 0 {
		t.Fatalf("expected no inputs, got %v", got)
	}
}

func TestRunWritesFiles(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{"go", []string{"functions.go", "loader.go", "types.go"}},
		{"json", []string{"ir.json"}},
		{"both", []string{"functions.go", "ir.json", "loader.go", "types.go"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := t.TempDir()
			opts := options{
				inputs:      []string{filepath.Join("testdata", "bridges", "my_object.rs")},
				outputDir:   dir,
				packageName: "qt",
				libName:     "my_object",
				format:      tt.format,
			}
			if err := run(context.Background(), opts); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, e := range entries {
				got = append(got, e.Name())
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("wrote %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunIRContent(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		inputs:      []string{filepath.Join("testdata", "bridges", "plain.rs")},
		outputDir:   dir,
		packageName: "plain",
		libName:     "plain",
		format:      "json",
	}
	if err := run(context.Background(), opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ir.json"))
	if err != nil {
		t.Fatal(err)
	}
	var ir struct {
		Library string `json:"library"`
		Bridges []struct {
			Module string `json:"module"`
		} `json:"bridges"`
	}
	if err := json.Unmarshal(data, &ir); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if ir.Library != "plain" || len(ir.Bridges) != 1 || ir.Bridges[0].Module != "plain" {
		t.Fatalf("unexpected IR %s", data)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format string
	}{
		{"unknown format", "my_object.rs", "yaml"},
		{"receiver error", "bad_receiver.rs", "go"},
		{"missing file", "missing.rs", "go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options{
				inputs:      []string{filepath.Join("testdata", "bridges", tt.input)},
				outputDir:   t.TempDir(),
				packageName: "x",
				libName:     "x",
				format:      tt.format,
			}
			if err := run(context.Background(), opts); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestRelevant(t *testing.T) {
	abs, err := filepath.Abs("bridge.rs")
	if err != nil {
		t.Fatal(err)
	}
	inputs := map[string]bool{abs: true}

	tests := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "bridge.rs", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "bridge.rs", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "bridge.rs", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "other.rs", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := relevant(tt.ev, inputs); got != tt.want {
			t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
		}
	}
}
