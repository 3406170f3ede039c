// Package topology holds the hand-curated stop order of every tracked route.
//
// Stop names are joined with provider stop names by exact string equality,
// so a provider rename silently breaks matching. Table.Validate reports such
// drift against a live stop snapshot.
package topology

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutesYAML []byte

type routeDoc struct {
	Name  string   `yaml:"name"`
	Stops []string `yaml:"stops"`
}

type tableDoc struct {
	Routes []routeDoc `yaml:"routes"`
}

// Table maps a route name to its ordered stop names. The sequence is cyclic:
// the stop after the last entry is the first entry. A Table is immutable
// after construction and safe for concurrent use.
type Table struct {
	routes map[string][]string
}

var loadDefault = sync.OnceValues(func() (*Table, error) {
	return Parse(defaultRoutesYAML)
})

// Default returns the embedded UGA route table, parsed once per process.
func Default() *Table {
	t, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("topology: embedded routes.yaml is invalid: %v", err))
	}
	return t
}

// Load returns the table at path, or the embedded default when path is empty.
func Load(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load topology: read %q: %w", path, err)
	}

	t, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("load topology %q: %w", path, err)
	}
	return t, nil
}

// Parse builds a Table from a YAML document of the form
// `routes: [{name: ..., stops: [...]}]`.
func Parse(data []byte) (*Table, error) {
	var doc tableDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse topology: %w", err)
	}

	if len(doc.Routes) == 0 {
		return nil, errors.New("parse topology: no routes defined")
	}

	routes := make(map[string][]string, len(doc.Routes))
	for i, r := range doc.Routes {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("parse topology: route #%d has no name", i+1)
		}
		if _, dup := routes[name]; dup {
			return nil, fmt.Errorf("parse topology: duplicate route %q", name)
		}
		if len(r.Stops) == 0 {
			return nil, fmt.Errorf("parse topology: route %q has no stops", name)
		}

		stops := make([]string, 0, len(r.Stops))
		for j, s := range r.Stops {
			if strings.TrimSpace(s) == "" {
				return nil, fmt.Errorf("parse topology: route %q stop #%d is empty", name, j+1)
			}
			stops = append(stops, s)
		}
		routes[name] = stops
	}

	return &Table{routes: routes}, nil
}

// New builds a Table from an in-memory mapping. The input is copied.
func New(routes map[string][]string) *Table {
	cp := make(map[string][]string, len(routes))
	for name, stops := range routes {
		cp[name] = slices.Clone(stops)
	}
	return &Table{routes: cp}
}

// NextStop returns the stop that follows current on route.
//
// An unknown route yields false. A current stop that is not part of the
// sequence is treated as the start of the route and yields the first stop.
// The last stop wraps to the first.
func (t *Table) NextStop(current, route string) (string, bool) {
	seq, ok := t.routes[route]
	if !ok || len(seq) == 0 {
		return "", false
	}

	i := slices.Index(seq, current)
	if i == -1 || i == len(seq)-1 {
		return seq[0], true
	}
	return seq[i+1], true
}

func (t *Table) HasRoute(route string) bool {
	_, ok := t.routes[route]
	return ok
}

// Contains reports whether stop is part of route's sequence.
func (t *Table) Contains(route, stop string) bool {
	return slices.Contains(t.routes[route], stop)
}

// Stops returns a copy of route's ordered stop names.
func (t *Table) Stops(route string) []string {
	return slices.Clone(t.routes[route])
}

// Routes returns all route names in sorted order.
func (t *Table) Routes() []string {
	names := make([]string, 0, len(t.routes))
	for name := range t.routes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
