// Package gen generates row types from schema declarations.
//
// Generate renders one Go file with a struct per declared row type. Each
// struct implements schema.Definition, so the registry can describe it, and
// schema.Row, so it can be bound to bulk parameters and used as an example
// in selections:
//
//	descs, err := gen.LoadFiles(ctx, "dbo", "schema/rows.yaml")
//	if err != nil {
//		return err
//	}
//	src, err := gen.Generate(descs, "rows")
//	if err != nil {
//		return err
//	}
//	return gen.WriteFile("rows/rows_gen.go", src)
package gen
