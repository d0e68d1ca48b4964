// Package rowtest declares the row types shared by the package tests.
package rowtest

import (
	"github.com/Startitecture/storm-sub007/schema"
	"github.com/Startitecture/storm-sub007/schema/edge"
	"github.com/Startitecture/storm-sub007/schema/field"
)

// FakeData is a flat row that reads columns through four relations, three
// of which reach the same table.
type FakeData struct {
	FakeDataId            int
	NormalColumn          string
	NullableColumn        *string
	NullableValueColumn   *int
	ValueColumn           int
	AnotherValueColumn    int
	RelatedName           string
	DependentIntegerValue int
	RelatedAliasName      *string
	OtherAliasName        *string
}

func (FakeData) Table() schema.Table {
	return schema.Table{Name: "FakeData"}
}

func (FakeData) Fields() []schema.Field {
	return []schema.Field{
		field.Int("FakeDataId").Key().Identity(),
		field.String("NormalColumn").Size(50),
		field.String("NullableColumn").Nullable().Size(50),
		field.Int("NullableValueColumn").Nullable(),
		field.Int("ValueColumn"),
		field.Int("AnotherValueColumn"),
		field.String("RelatedName").Through("Related"),
		field.Int("DependentIntegerValue").Through("Related", "Dependent").StorageKey("IntegerValue"),
		field.String("RelatedAliasName").Nullable().Through("RelatedAlias"),
		field.String("OtherAliasName").Nullable().Through("OtherAlias"),
	}
}

func (FakeData) Edges() []schema.Edge {
	return []schema.Edge{
		edge.LeftJoin[FakeRelated]("RelatedAlias").On("FakeDataId", "FakeDataId"),
		edge.InnerJoin[FakeRelated]("Related").On("FakeDataId", "FakeDataId"),
		edge.InnerJoin[FakeDependent]("Related", "Dependent").On("FakeRelatedId", "FakeRelatedId"),
		edge.LeftJoin[FakeRelated]("OtherAlias").On("FakeDataId", "FakeDataId"),
	}
}

// Get implements schema.Row.
func (r FakeData) Get(column string) (any, bool) {
	switch column {
	case "FakeDataId":
		return r.FakeDataId, true
	case "NormalColumn":
		return r.NormalColumn, true
	case "NullableColumn":
		return deref(r.NullableColumn), true
	case "NullableValueColumn":
		return deref(r.NullableValueColumn), true
	case "ValueColumn":
		return r.ValueColumn, true
	case "AnotherValueColumn":
		return r.AnotherValueColumn, true
	case "RelatedName":
		return r.RelatedName, true
	case "DependentIntegerValue":
		return r.DependentIntegerValue, true
	case "RelatedAliasName":
		return deref(r.RelatedAliasName), true
	case "OtherAliasName":
		return deref(r.OtherAliasName), true
	}
	return nil, false
}

// FakeRelated is joined from FakeData three times.
type FakeRelated struct {
	FakeRelatedId int
	FakeDataId    int
	Name          *string
}

func (FakeRelated) Table() schema.Table {
	return schema.Table{Name: "FakeRelated"}
}

func (FakeRelated) Fields() []schema.Field {
	return []schema.Field{
		field.Int("FakeRelatedId").Key().Identity(),
		field.Int("FakeDataId"),
		field.String("Name").Nullable(),
	}
}

func (FakeRelated) Edges() []schema.Edge { return nil }

// FakeDependent is reached from FakeData through FakeRelated.
type FakeDependent struct {
	FakeDependentId int
	FakeRelatedId   int
	IntegerValue    int
}

func (FakeDependent) Table() schema.Table {
	return schema.Table{Name: "FakeDependent"}
}

func (FakeDependent) Fields() []schema.Field {
	return []schema.Field{
		field.Int("FakeDependentId").Key().Identity(),
		field.Int("FakeRelatedId"),
		field.Int("IntegerValue"),
	}
}

func (FakeDependent) Edges() []schema.Edge { return nil }

// FakeNested is the nested shape of FakeData: relation columns are aliased
// with dotted paths.
type FakeNested struct{}

func (FakeNested) Table() schema.Table {
	return schema.Table{Name: "FakeData", Style: schema.Dotted}
}

func (FakeNested) Fields() []schema.Field {
	return []schema.Field{
		field.Int("FakeDataId").Key().Identity(),
		field.Int("ValueColumn"),
		field.String("Related.Name").Through("Related"),
		field.String("RelatedAlias.Name").Nullable().Through("RelatedAlias"),
	}
}

func (FakeNested) Edges() []schema.Edge {
	return []schema.Edge{
		edge.InnerJoin[FakeRelated]("Related").On("FakeDataId", "FakeDataId"),
		edge.LeftJoin[FakeRelated]("RelatedAlias").On("FakeDataId", "FakeDataId"),
	}
}

// FakeChild is merged in bulk by its natural key (ParentId, Ordinal); the
// server assigns FakeChildId.
type FakeChild struct {
	FakeChildId int
	ParentId    int
	Ordinal     int
	Name        string
}

func (FakeChild) Table() schema.Table {
	return schema.Table{Name: "FakeChildren"}
}

func (FakeChild) Fields() []schema.Field {
	return []schema.Field{
		field.Int("FakeChildId").Key().Identity(),
		field.Int("ParentId"),
		field.Int("Ordinal"),
		field.String("Name").Size(50),
	}
}

func (FakeChild) Edges() []schema.Edge { return nil }

// Get implements schema.Row.
func (r FakeChild) Get(column string) (any, bool) {
	switch column {
	case "FakeChildId":
		return r.FakeChildId, true
	case "ParentId":
		return r.ParentId, true
	case "Ordinal":
		return r.Ordinal, true
	case "Name":
		return r.Name, true
	}
	return nil, false
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
