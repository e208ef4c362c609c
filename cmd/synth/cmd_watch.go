package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dhamidi/synth/engine"
)

func newWatchCmd() *cobra.Command {
	var maxSessions int

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Watch a file and report incremental update stats on each write",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			language, err := languageForFile(path)
			if err != nil {
				return err
			}
			tuning, err := loadTuning()
			if err != nil {
				return err
			}
			registry, err := newRegistry(tuning)
			if err != nil {
				return err
			}
			manager := engine.NewManager(registry,
				engine.WithMaxSessions(maxSessions),
				engine.WithTuning(tuning))

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			if _, err := manager.Open(cmd.Context(), path, string(data), language); err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			defer watcher.Close()
			// Watch the directory: most editors save by replacing the
			// file, which drops a watch on the file itself.
			if err := watcher.Add(filepath.Dir(path)); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}

			fmt.Printf("watching %s (%s)\n", path, language)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(event.Name) != filepath.Clean(path) {
						continue
					}
					if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
						continue
					}
					if err := reportUpdate(manager, path); err != nil {
						fmt.Fprintln(os.Stderr, err)
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintln(os.Stderr, err)
				}
			}
		},
	}

	cmd.Flags().IntVar(&maxSessions, "max-sessions", engine.DefaultConfig().MaxSessions, "session capacity before LRU eviction")

	return cmd
}

func reportUpdate(manager *engine.Manager, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	res, err := manager.Update(path, string(data), nil)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	global := manager.GlobalStats()
	fmt.Printf("reuse=%.1f%% speedup=%.1fx nodes%+d | avg reuse=%.1f%% avg speedup=%.1fx over %d updates\n",
		res.ReuseRate*100, res.Speedup, res.NodeDelta,
		global.AvgReuseRate*100, global.AvgSpeedup, global.TotalUpdates)
	return nil
}
