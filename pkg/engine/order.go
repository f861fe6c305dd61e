package engine

import (
	"fmt"
	"strings"

	"github.com/edquist/osg-configure/pkg/sections"
)

// orderer computes a total execution order for the section catalog from the
// declared After edges.
type orderer struct {
	// byName maps section names to their catalog entries
	byName map[string]*sections.Section

	// names holds section names in declaration order, the tiebreak for
	// unrelated sections
	names []string

	// dependents maps a section name to the sections that must run after it
	dependents map[string][]string

	// inDegree tracks the number of unsatisfied dependencies per section
	inDegree map[string]int
}

// computeOrder validates the dependency edges, rejects cycles, and returns
// the sections in a total, stable order. The same catalog always yields the
// same order.
func computeOrder(catalog []*sections.Section) ([]*sections.Section, error) {
	o := &orderer{
		byName:     make(map[string]*sections.Section, len(catalog)),
		dependents: make(map[string][]string),
		inDegree:   make(map[string]int),
	}
	if err := o.initialize(catalog); err != nil {
		return nil, err
	}
	if err := o.detectCycles(); err != nil {
		return nil, err
	}
	return o.sort()
}

// initialize indexes the catalog and builds the dependency edges.
func (o *orderer) initialize(catalog []*sections.Section) error {
	for _, s := range catalog {
		if s.Name == "" {
			return NewOrderingError("section has empty name", nil)
		}
		if _, exists := o.byName[s.Name]; exists {
			return NewOrderingError(fmt.Sprintf("duplicate section name: %s", s.Name), nil)
		}
		o.byName[s.Name] = s
		o.names = append(o.names, s.Name)
		o.inDegree[s.Name] = 0
	}

	for _, s := range catalog {
		for _, dep := range s.After {
			if _, exists := o.byName[dep]; !exists {
				return NewOrderingError(
					fmt.Sprintf("section %s depends on unknown section %s", s.Name, dep), nil)
			}
			o.dependents[dep] = append(o.dependents[dep], s.Name)
			o.inDegree[s.Name]++
		}
	}
	return nil
}

// detectCycles walks the dependency graph depth-first and reports the first
// cycle found, naming every section on it.
func (o *orderer) detectCycles() error {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, name := range o.names {
		if visited[name] {
			continue
		}
		if cycle := o.findCycle(name, visited, onStack, nil); cycle != nil {
			return NewOrderingError(
				fmt.Sprintf("circular section dependency: %s", strings.Join(cycle, " -> ")), nil)
		}
	}
	return nil
}

func (o *orderer) findCycle(name string, visited, onStack map[string]bool, path []string) []string {
	visited[name] = true
	onStack[name] = true
	path = append(path, name)

	for _, dependent := range o.dependents[name] {
		if !visited[dependent] {
			if cycle := o.findCycle(dependent, visited, onStack, path); cycle != nil {
				return cycle
			}
		} else if onStack[dependent] {
			for i, id := range path {
				if id == dependent {
					return append(path[i:], dependent)
				}
			}
		}
	}

	onStack[name] = false
	return nil
}

// sort runs Kahn's algorithm, always picking the ready section that appears
// earliest in declaration order so the result is deterministic.
func (o *orderer) sort() ([]*sections.Section, error) {
	inDegree := make(map[string]int, len(o.inDegree))
	for name, degree := range o.inDegree {
		inDegree[name] = degree
	}

	ordered := make([]*sections.Section, 0, len(o.names))
	placed := make(map[string]bool, len(o.names))

	for len(ordered) < len(o.names) {
		next := ""
		for _, name := range o.names {
			if !placed[name] && inDegree[name] == 0 {
				next = name
				break
			}
		}
		if next == "" {
			// Unreachable once detectCycles has passed.
			return nil, NewOrderingError("no runnable section remains, dependency graph is cyclic", nil)
		}

		placed[next] = true
		ordered = append(ordered, o.byName[next])
		for _, dependent := range o.dependents[next] {
			inDegree[dependent]--
		}
	}

	return ordered, nil
}
