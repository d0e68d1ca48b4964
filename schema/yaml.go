package schema

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Document is the YAML declaration of a set of row types.
//
//	schema: dbo
//	rows:
//	  - name: FakeData
//	    columns:
//	      - {name: FakeDataId, type: int, key: true, identity: true}
//	      - {name: RelatedName, type: string, through: [Related], column: Name}
//	    relations:
//	      - {path: [Related], kind: inner, target: FakeRelated, from: FakeDataId, to: FakeDataId}
type Document struct {
	Schema string        `yaml:"schema"`
	Rows   []RowDocument `yaml:"rows"`
}

// RowDocument declares one row type.
type RowDocument struct {
	Name      string             `yaml:"name"`
	Schema    string             `yaml:"schema"`
	Table     string             `yaml:"table"`
	Style     AliasStyle         `yaml:"style"`
	Columns   []ColumnDocument   `yaml:"columns"`
	Relations []RelationDocument `yaml:"relations"`
}

// ColumnDocument declares one column.
type ColumnDocument struct {
	Name     string   `yaml:"name"`
	Column   string   `yaml:"column"`
	Type     Type     `yaml:"type"`
	SQLType  string   `yaml:"sql_type"`
	Through  []string `yaml:"through"`
	Nullable bool     `yaml:"nullable"`
	Key      bool     `yaml:"key"`
	Identity bool     `yaml:"identity"`
}

// RelationDocument declares one relation.
type RelationDocument struct {
	Path    []string `yaml:"path"`
	Kind    JoinKind `yaml:"kind"`
	Target  string   `yaml:"target"`
	From    string   `yaml:"from"`
	To      string   `yaml:"to"`
	Aliased bool     `yaml:"aliased"`
}

// Decode reads a YAML document.
func Decode(r io.Reader) (*Document, error) {
	doc := &Document{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	return doc, nil
}

// Descriptors builds the descriptors declared by the document. Tables
// without a schema use the document schema, then defaultSchema.
func (doc *Document) Descriptors(defaultSchema string) ([]*Descriptor, error) {
	descs := make([]*Descriptor, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		table := Table{Schema: row.Schema, Name: row.Table, Style: row.Style}
		if table.Schema == "" {
			table.Schema = doc.Schema
		}
		if table.Schema == "" {
			table.Schema = defaultSchema
		}
		columns := make([]*Column, len(row.Columns))
		for i, c := range row.Columns {
			columns[i] = &Column{
				Name:     c.Name,
				Column:   c.Column,
				Path:     c.Through,
				Type:     c.Type,
				SQLType:  c.SQLType,
				Nullable: c.Nullable,
				Key:      c.Key,
				Identity: c.Identity,
			}
			if columns[i].Related() && c.Column == "" {
				columns[i].Column = RelatedColumnName(c.Through, c.Name)
			}
		}
		relations := make([]*Relation, len(row.Relations))
		for i, r := range row.Relations {
			relations[i] = &Relation{
				Path:       r.Path,
				Kind:       r.Kind,
				FromColumn: r.From,
				TargetName: r.Target,
				ToColumn:   r.To,
				Aliased:    r.Aliased,
			}
		}
		d, err := New(row.Name, table, columns, relations)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// Load decodes a YAML document and adds its descriptors to the registry.
func (r *Registry) Load(rd io.Reader) ([]*Descriptor, error) {
	doc, err := Decode(rd)
	if err != nil {
		return nil, err
	}
	descs, err := doc.Descriptors(r.defaultSchema)
	if err != nil {
		return nil, err
	}
	for _, d := range descs {
		if err := r.Add(d); err != nil {
			return nil, err
		}
	}
	return descs, nil
}
