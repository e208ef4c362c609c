package engine

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Tuning collects every boundary-expansion threshold in one place so
// deployments can adjust them without a rebuild.
type Tuning struct {
	Markdown MarkdownTuning `toml:"markdown"`
}

// MarkdownTuning mirrors the markdown strategy's Config.
type MarkdownTuning struct {
	// SmallDocCutoff is the document size in bytes below which edits
	// expand to the whole document when they touch structure.
	SmallDocCutoff int `toml:"small_doc_cutoff"`
	// MaxBlankLines caps how many blank lines boundary expansion may
	// cross in each direction on large documents.
	MaxBlankLines int `toml:"max_blank_lines"`
}

func DefaultTuning() Tuning {
	return Tuning{
		Markdown: MarkdownTuning{
			SmallDocCutoff: 1024,
			MaxBlankLines:  2,
		},
	}
}

// LoadTuning reads a TOML file over the defaults, so a partial file
// only overrides the keys it names.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()
	if _, err := toml.DecodeFile(path, &tuning); err != nil {
		return Tuning{}, fmt.Errorf("load tuning %q: %w", path, err)
	}
	return tuning, nil
}
