// Package schema describes row types: their table, ordered columns, keys and
// relations to other row types.
//
// A row type declares itself by implementing Definition, using the builders
// of the field and edge packages:
//
//	func (FakeData) Table() schema.Table { return schema.Table{Name: "FakeData"} }
//
//	func (FakeData) Fields() []schema.Field {
//	    return []schema.Field{
//	        field.Int("FakeDataId").Key().Identity(),
//	        field.String("RelatedName").Through("Related"),
//	    }
//	}
//
//	func (FakeData) Edges() []schema.Edge {
//	    return []schema.Edge{
//	        edge.InnerJoin[FakeRelated]("Related").On("FakeDataId", "FakeDataId"),
//	    }
//	}
//
// Descriptors are built once per type by a Registry, on first use, and are
// immutable afterwards. Types that cannot carry methods are registered with
// Register and a separate Definition. Row types can also be declared in YAML
// and added by name with Registry.Load.
package schema
