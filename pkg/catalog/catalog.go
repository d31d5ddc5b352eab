// Package catalog ships the built-in ladders embedded in the binary.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"mercator-hq/ladder/pkg/engine/source"
	"mercator-hq/ladder/pkg/ladder/ast"
	"mercator-hq/ladder/pkg/ladder/parser"
)

// Built-in ladder names.
const (
	HighSchoolGrades = "high-school-grades"
	Seasons          = "seasons"
	SnappleFacts     = "snapple-facts"
	PlanetWeights    = "planet-weights"
)

//go:embed ladders/*.yaml
var files embed.FS

// Names returns the names of the built-in ladders, sorted.
func Names() []string {
	entries, err := fs.ReadDir(files, "ladders")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// Raw returns the YAML definition of a built-in ladder.
func Raw(name string) ([]byte, error) {
	data, err := files.ReadFile(path.Join("ladders", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("catalog ladder %q: %w", name, err)
	}
	return data, nil
}

// Ladders parses every built-in ladder.
func Ladders() ([]*ast.Ladder, error) {
	p := parser.NewParser().WithStrictMode(true)

	var ladders []*ast.Ladder
	for _, name := range Names() {
		data, err := Raw(name)
		if err != nil {
			return nil, err
		}
		l, err := p.ParseBytes(data, "catalog/"+name+".yaml")
		if err != nil {
			return nil, err
		}
		ladders = append(ladders, l)
	}
	return ladders, nil
}

// Source returns an in-memory ladder source holding the built-in ladders.
func Source() (*source.MemorySource, error) {
	ladders, err := Ladders()
	if err != nil {
		return nil, err
	}
	return source.NewMemorySource(ladders...), nil
}
