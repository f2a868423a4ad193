package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardanlabs/bridgegen/logger"
)

const settleDelay = 100 * time.Millisecond

// watchInputs reruns the pipeline whenever an input is written or
// recreated, until ctx is done. Parent directories are watched so editors
// that replace files on save are still seen.
func watchInputs(ctx context.Context, opts options) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	inputs := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, in := range opts.inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		inputs[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	logger.Info("watching inputs", "files", len(inputs))

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, inputs) {
				continue
			}
			logger.Debug("input changed", "file", ev.Name, "op", ev.Op.String())
			settle = time.After(settleDelay)

		case <-settle:
			settle = nil
			if err := run(ctx, opts); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			logger.Info("regenerated")

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

func relevant(ev fsnotify.Event, inputs map[string]bool) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return inputs[abs]
}
