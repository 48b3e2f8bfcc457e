// Package compliance maps scan findings onto control frameworks and
// scores each control and framework deterministically.
package compliance

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	errs "github.com/sentrascan/sentra/internal/shared/errors"
)

// Control is one individually assessable requirement of a framework.
// The Checks tags select which finding id families count against it.
type Control struct {
	ID          string   `yaml:"id" json:"id"`
	Requirement string   `yaml:"requirement" json:"requirement"`
	Category    string   `yaml:"category" json:"category"`
	Checks      []string `yaml:"checks" json:"checks"`
}

// Framework is a static control catalog. Catalogs are versioned data:
// adding a framework means adding a YAML entry, never engine changes.
type Framework struct {
	ID       string    `yaml:"id" json:"id"`
	Name     string    `yaml:"name" json:"name"`
	Version  string    `yaml:"version" json:"version"`
	Controls []Control `yaml:"controls" json:"controls"`
}

//go:embed frameworks.yaml
var frameworksYAML []byte

var (
	loadOnce   sync.Once
	frameworks map[string]*Framework
	loadErr    error
)

func load() {
	var doc struct {
		Frameworks []*Framework `yaml:"frameworks"`
	}
	if err := yaml.Unmarshal(frameworksYAML, &doc); err != nil {
		loadErr = fmt.Errorf("parsing framework catalog: %w", err)
		return
	}
	frameworks = make(map[string]*Framework, len(doc.Frameworks))
	for _, fw := range doc.Frameworks {
		frameworks[fw.ID] = fw
	}
}

// FrameworkByID returns the catalog entry for a framework id.
func FrameworkByID(id string) (*Framework, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	fw, ok := frameworks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownFramework, id)
	}
	return fw, nil
}

// FrameworkIDs lists every catalog framework id, sorted.
func FrameworkIDs() []string {
	loadOnce.Do(load)
	ids := make([]string, 0, len(frameworks))
	for id := range frameworks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
