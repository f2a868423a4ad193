package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/bridgegen/bridge"
	"github.com/ardanlabs/bridgegen/generator"
	"github.com/ardanlabs/bridgegen/logger"
)

type options struct {
	inputs      []string
	outputDir   string
	packageName string
	libName     string
	format      string
}

func main() {
	inputList := flag.String("input", "", "Comma separated bridge source files (positional arguments are accepted too)")
	outputDir := flag.String("output", ".", "Output directory for generated files")
	packageName := flag.String("package", "bindings", "Go package name")
	libName := flag.String("lib", "", "Library name (e.g., 'mylib' for libmylib.so)")
	format := flag.String("format", "go", "Output format: go, json or both")
	watch := flag.Bool("watch", false, "Regenerate whenever an input file changes")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg := logger.DefaultConfig()
	cfg.Level = level
	cfg.Format = *logFormat
	if err := logger.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts := options{
		inputs:      splitInputs(*inputList, flag.Args()),
		outputDir:   *outputDir,
		packageName: *packageName,
		libName:     *libName,
		format:      *format,
	}

	if len(opts.inputs) == 0 {
		fmt.Fprintln(os.Stderr, "error: -input flag is required")
		flag.Usage()
		os.Exit(1)
	}

	if opts.libName == "" {
		base := filepath.Base(opts.inputs[0])
		ext := filepath.Ext(base)
		opts.libName = base[:len(base)-len(ext)]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if !*watch {
			os.Exit(1)
		}
	}

	if *watch {
		if err := watchInputs(ctx, opts); err != nil {
			fmt.Fprintf(os.Stderr, "error watching inputs: %v\n", err)
			os.Exit(1)
		}
	}
}

func splitInputs(list string, args []string) []string {
	var inputs []string
	for _, in := range strings.Split(list, ",") {
		if in = strings.TrimSpace(in); in != "" {
			inputs = append(inputs, in)
		}
	}
	return append(inputs, args...)
}

// run extracts every input and writes the requested output files.
func run(ctx context.Context, opts options) error {
	bridges, err := bridge.ExtractFiles(ctx, opts.inputs, 0)
	if err != nil {
		return err
	}

	gen := generator.New(opts.packageName, opts.libName, bridges)

	files := make(map[string]string)
	switch opts.format {
	case "go", "both":
		goFiles, err := gen.Generate()
		if err != nil {
			return fmt.Errorf("generating code: %w", err)
		}
		for name, content := range goFiles {
			files[name] = content
		}
	case "json":
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	if opts.format == "json" || opts.format == "both" {
		ir, err := gen.GenerateIR()
		if err != nil {
			return fmt.Errorf("generating IR: %w", err)
		}
		files["ir.json"] = ir
	}

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for filename, content := range files {
		path := filepath.Join(opts.outputDir, filename)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", filename, err)
		}
		logger.LogGenerated(path, len(content))
	}

	return nil
}
