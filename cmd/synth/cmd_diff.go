package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/synth/edit"
	"github.com/dhamidi/synth/tokenizer"
)

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Detect the edit between two files and report token reuse",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldData, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read old file: %w", err)
			}
			newData, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read new file: %w", err)
			}
			language, err := languageForFile(args[1])
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
			lang, err := registry.Resolve(cmd.Context(), language)
			if err != nil {
				return err
			}

			oldSource, newSource := string(oldData), string(newData)
			ed := edit.Detect(oldSource, newSource)
			if ed.Empty() {
				fmt.Println("files are identical")
				return nil
			}
			fmt.Printf("edit: [%d, %d) -> [%d, %d) (delta %+d)\n",
				ed.StartOffset, ed.OldEndOffset, ed.StartOffset, ed.NewEndOffset, ed.Delta())

			stream := tokenizer.Tokenize(lang.Strategy, oldSource)
			_, stats := tokenizer.Update(lang.Strategy, stream, newSource, ed)
			fmt.Printf("tokens: %d total, %d retokenized, %d reused\n",
				stats.TotalTokens, stats.Retokenized, stats.Reused)
			fmt.Printf("reuse: %.1f%%  speedup: %.1fx\n", stats.ReuseRate*100, stats.Speedup)
			return nil
		},
	}

	return cmd
}
