package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTuningPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.toml")
	content := "[markdown]\nsmall_doc_cutoff = 4096\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile = %v", err)
	}

	tuning, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning = %v", err)
	}
	if tuning.Markdown.SmallDocCutoff != 4096 {
		t.Errorf("SmallDocCutoff = %d, want 4096", tuning.Markdown.SmallDocCutoff)
	}
	if want := DefaultTuning().Markdown.MaxBlankLines; tuning.Markdown.MaxBlankLines != want {
		t.Errorf("MaxBlankLines = %d, want default %d", tuning.Markdown.MaxBlankLines, want)
	}
}

func TestLoadTuningMissingFile(t *testing.T) {
	if _, err := LoadTuning(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("LoadTuning succeeded on a missing file")
	}
}
