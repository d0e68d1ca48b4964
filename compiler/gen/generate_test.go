package gen

import (
	"context"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Startitecture/storm-sub007/schema"
)

func load(t *testing.T, paths ...string) []*schema.Descriptor {
	t.Helper()
	descs, err := LoadFiles(context.Background(), "dbo", paths...)
	require.NoError(t, err)
	return descs
}

// parse parses generated source and returns its declared types and the
// methods declared on each.
func parse(t *testing.T, src []byte) (types []string, methods map[string][]string) {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "rows_gen.go", src, parser.ParseComments)
	require.NoError(t, err, string(src))
	methods = make(map[string][]string)
	for _, decl := range file.Decls {
		switch decl := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range decl.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					types = append(types, ts.Name.Name)
				}
			}
		case *ast.FuncDecl:
			if decl.Recv == nil {
				continue
			}
			var recv string
			switch x := decl.Recv.List[0].Type.(type) {
			case *ast.Ident:
				recv = x.Name
			case *ast.StarExpr:
				recv = x.X.(*ast.Ident).Name
			}
			methods[recv] = append(methods[recv], decl.Name.Name)
		}
	}
	return types, methods
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	src, err := Generate(load(t, "testdata/rows.yaml"), "rows")
	require.NoError(t, err)

	types, methods := parse(t, src)
	assert.Equal(t, []string{"FakeData", "FakeRelated", "FakeDependent"}, types)
	for _, typ := range types {
		assert.Equal(t, []string{"Table", "Fields", "Edges", "Get"}, methods[typ], typ)
	}

	out := string(src)
	for _, want := range []string{
		"// " + Header,
		"package rows",
		`"github.com/Startitecture/storm-sub007/schema/field"`,
		`"github.com/google/uuid"`,
		`field.Int("FakeDataId").Key().Identity()`,
		`field.String("NullableColumn").Nullable().SQLType("NVARCHAR(50)")`,
		`field.String("RelatedName").Through("Related")`,
		`field.Int("DependentIntegerValue").Through("Related", "Dependent").StorageKey("IntegerValue")`,
		`edge.InnerJoin[FakeRelated]("Related").On("FakeDataId", "FakeDataId")`,
		`edge.InnerJoin[FakeDependent]("Related", "Dependent").On("FakeRelatedId", "FakeRelatedId")`,
		`edge.To(schema.Left, "FakeParent", "Parent").On("FakeDataId", "FakeDataId").Aliased()`,
		`func (r FakeData) Get(column string) (any, bool) {`,
		`return *r.NullableColumn, true`,
		`return r.ValueColumn, true`,
		`reflect.TypeFor[FakeDependent]()`,
		`func Register(reg *schema.Registry) error {`,
	} {
		assert.Contains(t, out, want)
	}
	for _, re := range []string{
		`NullableColumn\s+\*string`,
		`ValueColumn\s+int\n`,
		`FakeDependentId\s+uuid\.UUID`,
		`Payload\s+\[\]byte`,
		`ParentName\s+\*string`,
	} {
		assert.Regexp(t, regexp.MustCompile(re), out)
	}
	assert.NotContains(t, out, `StorageKey("Name")`, "implied related columns are not spelled out")

	again, err := Generate(load(t, "testdata/rows.yaml"), "rows")
	require.NoError(t, err)
	assert.Equal(t, src, again, "output is deterministic")
}

func TestGenerate_LocalTargets(t *testing.T) {
	t.Parallel()
	src, err := Generate(load(t, "testdata/rows.yaml", "testdata/parents.yaml"), "rows")
	require.NoError(t, err)
	types, _ := parse(t, src)
	assert.Equal(t, []string{"FakeData", "FakeRelated", "FakeDependent", "FakeParent"}, types)

	out := string(src)
	assert.Contains(t, out, `edge.LeftJoin[FakeParent]("Parent").On("FakeDataId", "FakeDataId").Aliased()`)
	assert.Regexp(t, `Name:\s+"FakeParents"`, out)
	assert.Regexp(t, `CreatedAt\s+time\.Time`, out)
	assert.NotContains(t, out, "edge.To(")
}

func TestGenerate_Dotted(t *testing.T) {
	t.Parallel()
	d, err := schema.New("FakeNested", schema.Table{Schema: "dbo", Name: "FakeData", Style: schema.Dotted},
		[]*schema.Column{
			{Name: "FakeDataId", Type: schema.TypeInt, Key: true},
			{Name: "Related.Name", Type: schema.TypeString, Path: []string{"Related"}, Column: "Name"},
		},
		[]*schema.Relation{{Path: []string{"Related"}, TargetName: "FakeRelated", FromColumn: "FakeDataId", ToColumn: "FakeDataId"}},
	)
	require.NoError(t, err)
	src, err := Generate([]*schema.Descriptor{d}, "nested")
	require.NoError(t, err)
	parse(t, src)

	out := string(src)
	assert.Contains(t, out, "schema.Dotted")
	assert.Contains(t, out, `case "Related.Name":`)
	assert.Contains(t, out, `return r.RelatedName, true`)
	assert.Contains(t, out, `field.String("Related.Name").Through("Related")`)
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()
	descs := load(t, "testdata/rows.yaml")
	collide, err := schema.New("Collide", schema.Table{Schema: "dbo"}, []*schema.Column{
		{Name: "a_b", Type: schema.TypeInt, Key: true},
		{Name: "aB", Type: schema.TypeInt},
	}, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		descs  []*schema.Descriptor
		pkg    string
		target error
	}{
		{"invalid_package", descs, "1rows", ErrMissingConfig},
		{"empty_package", descs, "", ErrMissingConfig},
		{"no_rows", nil, "rows", ErrMissingConfig},
		{"duplicate_row", append(descs[:1:1], descs[0]), "rows", ErrInvalidSchema},
		{"field_collision", []*schema.Descriptor{collide}, "rows", ErrInvalidSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.descs, tt.pkg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), err.Error())
		})
	}
}

func TestGoName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"FakeDataId":         "FakeDataId",
		"Related.Name":       "RelatedName",
		"related_alias.name": "RelatedAliasName",
		"order items":        "OrderItems",
		"2fa":                "X2fa",
		"...":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, GoName(in), in)
	}
}

func TestLoadFiles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	descs := load(t, "testdata/parents.yaml")
	require.Len(t, descs, 1)
	assert.Equal(t, "dbo", descs[0].Schema, "default schema")
	assert.Equal(t, "FakeParents", descs[0].Table)

	_, err := LoadFiles(ctx, "dbo")
	assert.ErrorIs(t, err, ErrMissingConfig)

	_, err = LoadFiles(ctx, "dbo", "testdata/missing.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rows:\n  - name: X\n    columns:\n      - {name: A, type: nope}\n"), 0o644))
	_, err = LoadFiles(ctx, "dbo", "testdata/rows.yaml", bad)
	assert.ErrorIs(t, err, ErrInvalidSchema)
	assert.Contains(t, err.Error(), "bad.yaml")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = LoadFiles(canceled, "dbo", "testdata/rows.yaml")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "rows", "rows_gen.go")
	require.NoError(t, WriteFile(path, []byte("package rows\n")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "package rows\n", string(data))

	err = WriteFile(filepath.Join(path, "nested.go"), nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestErrors(t *testing.T) {
	t.Parallel()
	cause := errors.New("underlying error")
	tests := []struct {
		name string
		err  error
		want string
		is   error
	}{
		{
			name: "schema_column",
			err:  &SchemaError{Type: "FakeData", Column: "ValueColumn", Message: "invalid", Cause: cause},
			want: "stormgen: row FakeData column ValueColumn: invalid: underlying error",
			is:   ErrInvalidSchema,
		},
		{
			name: "schema_file",
			err:  &SchemaError{File: "testdata/rows.yaml", Cause: cause},
			want: "stormgen: testdata/rows.yaml: underlying error",
			is:   ErrInvalidSchema,
		},
		{
			name: "config_value",
			err:  &ConfigError{Option: "package", Value: "1rows", Message: "not a valid package name"},
			want: "stormgen: --package=1rows: not a valid package name",
			is:   ErrMissingConfig,
		},
		{
			name: "config",
			err:  &ConfigError{Option: "schema", Message: "no schema files given"},
			want: "stormgen: --schema: no schema files given",
			is:   ErrMissingConfig,
		},
		{
			name: "generation_file",
			err:  &GenerationError{Op: "write", File: "rows_gen.go", Cause: cause},
			want: "stormgen: write rows_gen.go: underlying error",
			is:   ErrGenerationFailed,
		},
		{
			name: "generation",
			err:  &GenerationError{Op: "render", Cause: cause},
			want: "stormgen: render: underlying error",
			is:   ErrGenerationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.EqualError(t, tt.err, tt.want)
			assert.ErrorIs(t, tt.err, tt.is)
		})
	}
	assert.ErrorIs(t, &SchemaError{Cause: cause}, cause)
	assert.ErrorIs(t, &GenerationError{Op: "write", Cause: cause}, cause)
}
