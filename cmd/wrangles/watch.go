package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/admariner/wrangles/pkg/recipe"
)

func watchCmd() *cobra.Command {
	var (
		vars     map[string]string
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch RECIPE [FILE...]",
		Short: "Rerun a recipe whenever it or the given files change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), args[0], args[1:], debounce, variables(vars))
		},
	}
	cmd.Flags().StringToStringVar(&vars, "var", nil, "recipe variable as NAME=VALUE (repeatable)")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before a change triggers a run")
	return cmd
}

// watch runs the recipe once, then again after each burst of writes to the
// recipe or the extra files. Runs never overlap.
func watch(ctx context.Context, path string, extra []string, debounce time.Duration, opts []recipe.Option) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer watcher.Close()

	targets := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range append([]string{path}, extra...) {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		// editors replace files on save, so watch the directory
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("error watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	logger.Info().Int("files", len(targets)).Msg("watching")

	runFile(ctx, path, opts)

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			if !targets[abs] {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case <-trigger:
			logger.Debug().Str("recipe", path).Msg("change detected, rerunning")
			runFile(ctx, path, opts)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")
		}
	}
}
