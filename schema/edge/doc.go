// Package edge provides fluent builders for declaring the relations of a row type.
//
// A relation joins the row type, or one of its relations, to another row
// type. Its path is its identity: two relations to the same row type under
// different paths are distinct joins with their own aliases.
//
//	edge.InnerJoin[FakeRelated]().On("FakeDataId", "FakeDataId")
//	edge.LeftJoin[FakeRelated]("RelatedAlias").On("FakeDataId", "FakeDataId")
//
// # Multi-hop Relations
//
// A path with more than one segment joins from the relation at its parent
// path, which must be declared first:
//
//	edge.InnerJoin[FakeRelated]("Related").On("FakeDataId", "FakeDataId"),
//	edge.InnerJoin[FakeDependent]("Related", "Dependent").On("FakeRelatedId", "FakeRelatedId"),
//
// # Aliases
//
// The first relation to reach a table that is not yet part of the FROM block
// is rendered with the bare table name. Later relations to the same table are
// rendered AS [<last path segment>]. Aliased forces the alias on a first
// occurrence.
package edge
