// Package jutsu holds the canonical hand-sign sequence registry.
//
// The registry is the authority-agreed source of truth for which signs a
// jutsu requires and in which order. It is embedded at build time so the
// validator never depends on a network read.
package jutsu

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed sequences.yaml
var sequencesYAML []byte

// registryFile is the on-disk shape of sequences.yaml.
type registryFile struct {
	Jutsu map[string]entry `yaml:"jutsu"`
}

type entry struct {
	Signs []string `yaml:"signs"`
}

var (
	loadOnce sync.Once
	loadErr  error
	registry map[string][]string
)

// load parses the embedded registry exactly once.
func load() {
	var file registryFile
	if err := yaml.Unmarshal(sequencesYAML, &file); err != nil {
		loadErr = fmt.Errorf("parse embedded sequence registry: %w", err)
		return
	}
	registry = make(map[string][]string, len(file.Jutsu))
	for name, e := range file.Jutsu {
		if len(e.Signs) == 0 {
			loadErr = fmt.Errorf("jutsu %q has no signs", name)
			return
		}
		registry[name] = e.Signs
	}
}

// Sequence returns the canonical sign sequence for a jutsu name.
// The second return is false for jutsu not in the registry; callers decide
// whether unknown names are an error (the validator skips sequence checks
// for them).
func Sequence(name string) ([]string, bool) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, false
	}
	seq, ok := registry[name]
	if !ok {
		return nil, false
	}
	// Copy so callers cannot mutate the registry.
	out := make([]string, len(seq))
	copy(out, seq)
	return out, true
}

// Names returns all registered jutsu names, sorted.
func Names() []string {
	loadOnce.Do(load)
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Err reports whether the embedded registry failed to parse.
// A broken registry is a build defect; surfacing it here lets the CLI fail
// loudly instead of silently skipping sequence checks.
func Err() error {
	loadOnce.Do(load)
	return loadErr
}
