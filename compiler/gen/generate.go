package gen

import (
	"bytes"
	"go/token"
	"slices"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/Startitecture/storm-sub007/schema"
)

// Header is the comment generated files start with.
const Header = "Code generated by stormgen. DO NOT EDIT."

// Generate renders one Go source file declaring a row type for every
// descriptor: a struct with one field per column, the Table, Fields and
// Edges methods of schema.Definition, a Get method implementing
// schema.Row, and a Register function adding all types to a registry.
func Generate(descs []*schema.Descriptor, pkg string) ([]byte, error) {
	if !token.IsIdentifier(pkg) {
		return nil, &ConfigError{Option: "package", Value: pkg, Message: "not a valid package name"}
	}
	if len(descs) == 0 {
		return nil, &ConfigError{Option: "schema", Message: "no row types declared"}
	}
	local := make(map[string]string, len(descs))
	for _, d := range descs {
		name := GoName(d.Name)
		if name == "" {
			return nil, &SchemaError{Type: d.Name, Message: "name has no identifier characters"}
		}
		if _, ok := local[d.Name]; ok {
			return nil, &SchemaError{Type: d.Name, Message: "declared more than once"}
		}
		local[d.Name] = name
	}

	f := jen.NewFile(pkg)
	f.HeaderComment(Header)
	for _, d := range descs {
		if err := genRow(f, d, local); err != nil {
			return nil, err
		}
	}
	genRegister(f, descs, local)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, &GenerationError{Op: "render", Cause: err}
	}
	return buf.Bytes(), nil
}

// genRow renders the declarations of one row type.
func genRow(f *jen.File, d *schema.Descriptor, local map[string]string) error {
	name := local[d.Name]
	fields := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		fields[i] = GoName(c.Name)
		if fields[i] == "" {
			return &SchemaError{Type: d.Name, Column: c.Name, Message: "name has no identifier characters"}
		}
		if slices.Contains(fields[:i], fields[i]) {
			return &SchemaError{Type: d.Name, Column: c.Name, Message: "field " + fields[i] + " is generated more than once"}
		}
		if _, ok := fieldConstructors[c.Type]; !ok {
			return &SchemaError{Type: d.Name, Column: c.Name, Message: "column type is not set"}
		}
	}

	f.Commentf("%s is a row of %s.", name, tableName(d))
	f.Type().Id(name).StructFunc(func(g *jen.Group) {
		for i, c := range d.Columns {
			g.Id(fields[i]).Add(goType(c))
		}
	})

	table := jen.Dict{
		jen.Id("Schema"): jen.Lit(d.Schema),
		jen.Id("Name"):   jen.Lit(d.Table),
	}
	if d.Style == schema.Dotted {
		table[jen.Id("Style")] = jen.Qual(schemaPkg, "Dotted")
	}
	f.Func().Params(jen.Id(name)).Id("Table").Params().Qual(schemaPkg, "Table").Block(
		jen.Return(jen.Qual(schemaPkg, "Table").Values(table)),
	)

	f.Func().Params(jen.Id(name)).Id("Fields").Params().Index().Qual(schemaPkg, "Field").Block(
		jen.Return(jen.Index().Qual(schemaPkg, "Field").ValuesFunc(func(g *jen.Group) {
			for _, c := range d.Columns {
				g.Line().Add(fieldExpr(c))
			}
			g.Line()
		})),
	)

	if len(d.Relations) == 0 {
		f.Func().Params(jen.Id(name)).Id("Edges").Params().Index().Qual(schemaPkg, "Edge").Block(
			jen.Return(jen.Nil()),
		)
	} else {
		f.Func().Params(jen.Id(name)).Id("Edges").Params().Index().Qual(schemaPkg, "Edge").Block(
			jen.Return(jen.Index().Qual(schemaPkg, "Edge").ValuesFunc(func(g *jen.Group) {
				for _, rel := range d.Relations {
					g.Line().Add(edgeExpr(rel, local))
				}
				g.Line()
			})),
		)
	}

	f.Comment("Get implements schema.Row.")
	f.Func().Params(jen.Id("r").Id(name)).Id("Get").Params(jen.Id("column").String()).Params(jen.Any(), jen.Bool()).Block(
		jen.Switch(jen.Id("column")).BlockFunc(func(g *jen.Group) {
			for i, c := range d.Columns {
				v := jen.Id("r").Dot(fields[i])
				if !pointer(c) {
					g.Case(jen.Lit(c.Name)).Block(jen.Return(v, jen.True()))
					continue
				}
				g.Case(jen.Lit(c.Name)).Block(
					jen.If(jen.Id("r").Dot(fields[i]).Op("==").Nil()).Block(
						jen.Return(jen.Nil(), jen.True()),
					),
					jen.Return(jen.Op("*").Add(v), jen.True()),
				)
			}
		}),
		jen.Return(jen.Nil(), jen.False()),
	)
	return nil
}

// genRegister renders the Register function of the file.
func genRegister(f *jen.File, descs []*schema.Descriptor, local map[string]string) {
	f.Comment("Register adds the row types of this package to reg.")
	f.Func().Id("Register").Params(jen.Id("reg").Op("*").Qual(schemaPkg, "Registry")).Error().BlockFunc(func(g *jen.Group) {
		for _, d := range descs {
			name := local[d.Name]
			g.If(
				jen.Err().Op(":=").Id("reg").Dot("Register").Call(
					jen.Qual("reflect", "TypeFor").Types(jen.Id(name)).Call(),
					jen.Id(name).Values(),
				),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err()))
		}
		g.Return(jen.Nil())
	})

	f.Var().DefsFunc(func(g *jen.Group) {
		for _, d := range descs {
			g.Id("_").Qual(schemaPkg, "Row").Op("=").Id(local[d.Name]).Values()
		}
	})
}

func tableName(d *schema.Descriptor) string {
	return strings.Join([]string{d.Schema, d.Table}, ".")
}
