// Package lineage holds the in-memory chart model: an arena of persons
// addressed by ID with parent and child indices derived from a flat edge list.
package lineage

import (
	"fmt"

	apperrors "lineage-verifier/backend/pkg/errors"
)

// Attribute keys with meaning to the verifier
const (
	AttrDescription = "description"
	AttrYearOfBirth = "year_of_birth"
)

// ID addresses a person inside one Graph. It is only stable for that graph.
type ID int

// Person is a node of the chart. Name is the display label; its first line is
// the primary label.
type Person struct {
	Key    string
	Name   string
	Attrs  map[string]string
	Nested []string // hierarchical children, must be empty in a flat chart
}

// Edge is a ParentOf relation from a child to one of its parents
type Edge struct {
	Child  string `json:"child"`
	Parent string `json:"parent"`
}

// Graph is the arena. Persons keep insertion order, which every check
// iterates in, so reports are deterministic.
type Graph struct {
	persons    []*Person
	index      map[string]ID
	parentsOf  [][]ID
	childrenOf [][]ID
}

// Build creates a Graph from persons and a flat edge list. Edge order is
// preserved in both indices; duplicate edges are kept.
func Build(persons []*Person, edges []Edge) (*Graph, error) {
	g := &Graph{
		persons:    make([]*Person, 0, len(persons)),
		index:      make(map[string]ID, len(persons)),
		parentsOf:  make([][]ID, len(persons)),
		childrenOf: make([][]ID, len(persons)),
	}

	for _, p := range persons {
		if p == nil {
			continue
		}
		if _, dup := g.index[p.Key]; dup {
			return nil, apperrors.NewInputError(p.Key, "duplicate person key", nil)
		}
		if p.Attrs == nil {
			p.Attrs = map[string]string{}
		}
		g.index[p.Key] = ID(len(g.persons))
		g.persons = append(g.persons, p)
	}

	for _, e := range edges {
		child, ok := g.index[e.Child]
		if !ok {
			return nil, apperrors.NewInputError(e.Child, fmt.Sprintf("edge to %s references unknown child", e.Parent), nil)
		}
		parent, ok := g.index[e.Parent]
		if !ok {
			return nil, apperrors.NewInputError(e.Parent, fmt.Sprintf("edge from %s references unknown parent", e.Child), nil)
		}
		g.parentsOf[child] = append(g.parentsOf[child], parent)
		g.childrenOf[parent] = append(g.childrenOf[parent], child)
	}

	return g, nil
}

// Len returns the number of persons
func (g *Graph) Len() int {
	return len(g.persons)
}

// IDs returns every person ID in insertion order
func (g *Graph) IDs() []ID {
	ids := make([]ID, len(g.persons))
	for i := range g.persons {
		ids[i] = ID(i)
	}
	return ids
}

// Person returns the record for id
func (g *Graph) Person(id ID) *Person {
	return g.persons[id]
}

// Name returns the display label for id
func (g *Graph) Name(id ID) string {
	return g.persons[id].Name
}

// Lookup finds a person by source key
func (g *Graph) Lookup(key string) (ID, bool) {
	id, ok := g.index[key]
	return id, ok
}

// Outgoing returns the parents of id in edge order
func (g *Graph) Outgoing(id ID) []ID {
	return g.parentsOf[id]
}

// Incoming returns the children of id in edge order
func (g *Graph) Incoming(id ID) []ID {
	return g.childrenOf[id]
}

// Names maps ids to display labels
func (g *Graph) Names(ids []ID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = g.persons[id].Name
	}
	return names
}

// Edges reconstructs the flat edge list, children first in person order
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for child, parents := range g.parentsOf {
		for _, parent := range parents {
			edges = append(edges, Edge{Child: g.persons[child].Key, Parent: g.persons[parent].Key})
		}
	}
	return edges
}

// StripAttr deletes key from every person and returns how many had it
func (g *Graph) StripAttr(key string) int {
	removed := 0
	for _, p := range g.persons {
		if _, ok := p.Attrs[key]; ok {
			delete(p.Attrs, key)
			removed++
		}
	}
	return removed
}
