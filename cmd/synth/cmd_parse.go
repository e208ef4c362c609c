package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/synth/format"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a file and dump its tree as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			language, err := languageForFile(args[0])
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

			parsed, err := lang.Backend.Parse(string(data))
			if err != nil {
				return fmt.Errorf("parse: %w", err)
			}
			if err := format.NewTreeJSONEncoder(os.Stdout).Encode(parsed); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			fmt.Println()
			return nil
		},
	}

	return cmd
}
