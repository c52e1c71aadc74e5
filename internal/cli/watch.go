package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/spindle/pkg/player"
	"github.com/aretw0/spindle/pkg/ports"
)

// RunWatch replays the script from its start node every time the file changes.
// Variables carry over between reloads.
func RunWatch(ctx context.Context, opts RunOptions) error {
	opts.defaults()
	logger := opts.Logger

	path, err := filepath.Abs(opts.Script)
	if err != nil {
		return fmt.Errorf("invalid script path: %w", err)
	}
	opts.Script = path

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()
	// Editors replace files on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	vars, release, err := newVariables(ctx, opts)
	if err != nil {
		return err
	}
	defer release()

	changes := watchFile(ctx, watcher, path, logger)
	handler := newHandler(opts)
	printSystemMessage(opts.Stdout, "Watching '%s'.", path)

	for {
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- playOnce(runCtx, opts, vars, handler)
		}()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return nil
		case <-changes:
			cancel()
			<-done
			printSystemMessage(opts.Stdout, "Change detected, reloading.")
			continue
		case err := <-done:
			cancel()
			if err != nil && !isInterrupted(err) {
				logger.Error("Runtime error", "err", err)
				printSystemMessage(opts.Stdout, "%v", err)
			}
		}

		printSystemMessage(opts.Stdout, "Waiting for changes...")
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		}
	}
}

func playOnce(ctx context.Context, opts RunOptions, vars ports.StateContext, handler player.IOHandler) error {
	d, start, err := loadDialog(ctx, opts)
	if err != nil {
		return err
	}
	reg, err := buildCommands(opts)
	if err != nil {
		return err
	}
	if err := checkDialog(d, start, reg, opts.Logger); err != nil {
		return err
	}
	r, err := newRunner(d, start, vars, reg, opts.Stdout, opts)
	if err != nil {
		return err
	}
	p := player.NewPlayer(player.WithHandler(handler), player.WithLogger(opts.Logger))
	return p.Run(ctx, r)
}

// watchFile forwards debounced write events for path.
func watchFile(ctx context.Context, w *fsnotify.Watcher, path string, logger *slog.Logger) <-chan struct{} {
	ch := make(chan struct{}, 1)
	go func() {
		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
					continue
				}
				logger.Debug("Change detected", "file", ev.Name, "op", ev.Op.String())
				debounce = time.After(100 * time.Millisecond)
			case <-debounce:
				debounce = nil
				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if !errors.Is(err, fsnotify.ErrEventOverflow) {
					logger.Warn("Watcher error", "err", err)
				}
			}
		}
	}()
	return ch
}
