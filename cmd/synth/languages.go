package main

import (
	"fmt"
	"path/filepath"

	"github.com/dhamidi/synth/engine"
	"github.com/dhamidi/synth/lang/javascript"
	"github.com/dhamidi/synth/lang/jsonprop"
	"github.com/dhamidi/synth/lang/markdown"
)

func loadTuning() (engine.Tuning, error) {
	if configPath == "" {
		return engine.DefaultTuning(), nil
	}
	return engine.LoadTuning(configPath)
}

func newRegistry(tuning engine.Tuning) (*engine.Registry, error) {
	registry := engine.NewRegistry()

	md := markdown.NewStrategy(markdown.Config{
		SmallDocCutoff: tuning.Markdown.SmallDocCutoff,
		MaxBlankLines:  tuning.Markdown.MaxBlankLines,
	})
	js := javascript.NewStrategy()
	jp := jsonprop.NewStrategy()

	for name, lang := range map[string]engine.Language{
		"markdown":   {Strategy: md, Backend: markdown.NewBackend(md)},
		"javascript": {Strategy: js, Backend: javascript.NewBackend(js)},
		"json":       {Strategy: jp, Backend: jsonprop.NewBackend(jp)},
	} {
		if err := registry.Add(name, engine.Sync(lang)); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func languageForFile(path string) (string, error) {
	switch filepath.Ext(path) {
	case ".md", ".markdown":
		return "markdown", nil
	case ".js", ".mjs":
		return "javascript", nil
	case ".json":
		return "json", nil
	}
	return "", fmt.Errorf("no language registered for %q", path)
}
