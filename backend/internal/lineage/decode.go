package lineage

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "lineage-verifier/backend/pkg/errors"
)

// Document is the JSON form of a chart, used by the HTTP hook and CLI
type Document struct {
	Persons []DocumentPerson `json:"persons"`
	Edges   []Edge           `json:"edges"`
}

// DocumentPerson is one person in a Document
type DocumentPerson struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	Nested []string          `json:"nested,omitempty"`
}

// Graph builds the arena for a decoded Document
func (d *Document) Graph() (*Graph, error) {
	persons := make([]*Person, 0, len(d.Persons))
	for i, p := range d.Persons {
		key := p.ID
		if key == "" {
			key = fmt.Sprintf("#%d", i)
		}
		attrs := make(map[string]string, len(p.Attrs))
		for k, v := range p.Attrs {
			attrs[k] = v
		}
		persons = append(persons, &Person{Key: key, Name: p.Name, Attrs: attrs, Nested: p.Nested})
	}
	return Build(persons, d.Edges)
}

// DecodeJSON reads a Document from r
func DecodeJSON(r io.Reader, source string) (*Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, apperrors.NewInputError(source, "malformed JSON", err)
	}
	return doc.Graph()
}

// Native XML serialization: top-level <e> elements under <elements> are the
// persons, any nested <e> is a hierarchical child, <r r="id,id"/> lists
// parent references and every other attribute lands in the person's Attrs.

type xmlModel struct {
	XMLName  xml.Name `xml:"model"`
	Elements struct {
		Items []xmlElement `xml:"e"`
	} `xml:"elements"`
}

type xmlElement struct {
	ID       string       `xml:"i,attr,omitempty"`
	Name     string       `xml:"n,attr"`
	Attrs    []xml.Attr   `xml:",any,attr"`
	Refs     []xmlRef     `xml:"r"`
	Children []xmlElement `xml:"e"`
}

type xmlRef struct {
	Targets string `xml:"r,attr"`
	Type    string `xml:"t,attr,omitempty"`
}

// reserved element attributes that never become person attributes
var reservedXMLAttrs = map[string]bool{"t": true}

// DecodeXML reads the native chart serialization from r
func DecodeXML(r io.Reader, source string) (*Graph, error) {
	var model xmlModel
	if err := xml.NewDecoder(r).Decode(&model); err != nil {
		return nil, apperrors.NewInputError(source, "malformed XML", err)
	}

	persons := make([]*Person, 0, len(model.Elements.Items))
	var edges []Edge
	for i, el := range model.Elements.Items {
		key := el.ID
		if key == "" {
			key = fmt.Sprintf("#%d", i)
		}
		p := &Person{Key: key, Name: el.Name, Attrs: map[string]string{}}
		for _, a := range el.Attrs {
			if reservedXMLAttrs[a.Name.Local] {
				continue
			}
			p.Attrs[a.Name.Local] = a.Value
		}
		for _, child := range el.Children {
			p.Nested = append(p.Nested, child.Name)
		}
		for _, ref := range el.Refs {
			for _, target := range strings.Split(ref.Targets, ",") {
				if target = strings.TrimSpace(target); target != "" {
					edges = append(edges, Edge{Child: key, Parent: target})
				}
			}
		}
		persons = append(persons, p)
	}

	return Build(persons, edges)
}

// EncodeXML writes g in the native serialization
func EncodeXML(w io.Writer, g *Graph) error {
	var model xmlModel
	for _, id := range g.IDs() {
		p := g.Person(id)
		el := xmlElement{ID: p.Key, Name: p.Name}
		keys := make([]string, 0, len(p.Attrs))
		for k := range p.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			el.Attrs = append(el.Attrs, xml.Attr{Name: xml.Name{Local: k}, Value: p.Attrs[k]})
		}
		if parents := g.Outgoing(id); len(parents) > 0 {
			parentKeys := make([]string, len(parents))
			for i, parent := range parents {
				parentKeys[i] = g.Person(parent).Key
			}
			el.Refs = []xmlRef{{Targets: strings.Join(parentKeys, ","), Type: "parent"}}
		}
		for _, nested := range p.Nested {
			el.Children = append(el.Children, xmlElement{Name: nested})
		}
		model.Elements.Items = append(model.Elements.Items, el)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(model); err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	return enc.Flush()
}

// DecodeFile picks the decoder by file extension
func DecodeFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewInputError(path, "cannot open", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeJSON(f, path)
	case ".xml":
		return DecodeXML(f, path)
	default:
		return nil, apperrors.NewInputError(path, "unknown extension, want .xml or .json", nil)
	}
}
