package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/synth/format"
	"github.com/dhamidi/synth/tokenizer"
)

func newTokenizeCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "tokenize <file>",
		Short: "Tokenize a file and dump its token stream",
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

			stream := tokenizer.Tokenize(lang.Strategy, string(data))
			switch outputFormat {
			case "json":
				if err := format.NewTokenJSONEncoder(os.Stdout).Encode(stream); err != nil {
					return fmt.Errorf("encode: %w", err)
				}
				fmt.Println()
			case "text":
				if err := format.NewTokenTextEncoder(os.Stdout).Encode(stream); err != nil {
					return fmt.Errorf("encode: %w", err)
				}
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")

	return cmd
}
