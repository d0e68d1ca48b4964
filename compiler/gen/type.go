package gen

import (
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/Startitecture/storm-sub007/schema"
)

const (
	schemaPkg = "github.com/Startitecture/storm-sub007/schema"
	fieldPkg  = "github.com/Startitecture/storm-sub007/schema/field"
	edgePkg   = "github.com/Startitecture/storm-sub007/schema/edge"
	uuidPkg   = "github.com/google/uuid"
)

// GoName returns the exported Go identifier of a declared name: separators
// are dropped and each word is capitalized, so "Related.Name" becomes
// RelatedName.
func GoName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	s := b.String()
	if s != "" && unicode.IsDigit([]rune(s)[0]) {
		s = "X" + s
	}
	return s
}

// baseType returns the Go type of a column value.
func baseType(c *schema.Column) jen.Code {
	switch c.Type {
	case schema.TypeBool:
		return jen.Bool()
	case schema.TypeInt:
		return jen.Int()
	case schema.TypeInt64:
		return jen.Int64()
	case schema.TypeFloat, schema.TypeDecimal:
		return jen.Float64()
	case schema.TypeString:
		return jen.String()
	case schema.TypeTime:
		return jen.Qual("time", "Time")
	case schema.TypeUUID:
		return jen.Qual(uuidPkg, "UUID")
	case schema.TypeBytes:
		return jen.Index().Byte()
	default:
		return jen.Any()
	}
}

// pointer reports whether the column is generated as a pointer.
func pointer(c *schema.Column) bool {
	return c.Nullable && c.Type != schema.TypeBytes && c.Type != schema.TypeInvalid
}

// goType returns the struct field type of a column.
func goType(c *schema.Column) jen.Code {
	if pointer(c) {
		return jen.Op("*").Add(baseType(c))
	}
	return baseType(c)
}

var fieldConstructors = map[schema.Type]string{
	schema.TypeBool:    "Bool",
	schema.TypeInt:     "Int",
	schema.TypeInt64:   "Int64",
	schema.TypeFloat:   "Float",
	schema.TypeDecimal: "Decimal",
	schema.TypeString:  "String",
	schema.TypeTime:    "Time",
	schema.TypeUUID:    "UUID",
	schema.TypeBytes:   "Bytes",
}

// fieldExpr returns the field builder chain that declares c.
func fieldExpr(c *schema.Column) *jen.Statement {
	s := jen.Qual(fieldPkg, fieldConstructors[c.Type]).Call(jen.Lit(c.Name))
	if c.Key {
		s.Dot("Key").Call()
	}
	if c.Identity {
		s.Dot("Identity").Call()
	}
	if c.Nullable {
		s.Dot("Nullable").Call()
	}
	if c.SQLType != "" {
		s.Dot("SQLType").Call(jen.Lit(c.SQLType))
	}
	if c.Related() {
		paths := make([]jen.Code, len(c.Path))
		for i, p := range c.Path {
			paths[i] = jen.Lit(p)
		}
		s.Dot("Through").Call(paths...)
	}
	implied := c.Name
	if c.Related() {
		implied = schema.RelatedColumnName(c.Path, c.Name)
	}
	if c.Column != "" && c.Column != implied {
		s.Dot("StorageKey").Call(jen.Lit(c.Column))
	}
	return s
}

// edgeExpr returns the edge builder chain that declares rel. Targets
// generated in the same file are referenced by type, others by name.
func edgeExpr(rel *schema.Relation, local map[string]string) *jen.Statement {
	paths := make([]jen.Code, len(rel.Path))
	for i, p := range rel.Path {
		paths[i] = jen.Lit(p)
	}
	var s *jen.Statement
	if typ, ok := local[rel.TargetLabel()]; ok {
		ctor := "InnerJoin"
		if rel.Kind == schema.Left {
			ctor = "LeftJoin"
		}
		s = jen.Qual(edgePkg, ctor).Types(jen.Id(typ)).Call(paths...)
	} else {
		kind := "Inner"
		if rel.Kind == schema.Left {
			kind = "Left"
		}
		args := append([]jen.Code{jen.Qual(schemaPkg, kind), jen.Lit(rel.TargetLabel())}, paths...)
		s = jen.Qual(edgePkg, "To").Call(args...)
	}
	s.Dot("On").Call(jen.Lit(rel.FromColumn), jen.Lit(rel.ToColumn))
	if rel.Aliased {
		s.Dot("Aliased").Call()
	}
	return s
}
