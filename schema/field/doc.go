// Package field provides fluent builders for declaring the columns of a row type.
//
// The name passed to a builder is the attribute name used to reference the
// column from selections; the physical column name defaults to it:
//
//	field.Int("FakeDataId").Key().Identity()   // [FakeDataId], server-generated key
//	field.String("Name").StorageKey("Title")   // referenced as Name, stored as [Title]
//
// # Field Types
//
//	field.Bool("IsActive")
//	field.Int("Count")
//	field.Int64("BigNumber")
//	field.Float("Ratio")
//	field.Decimal("Price").Precision(19, 4)
//	field.String("Name").Size(50)
//	field.Time("CreatedAt")
//	field.UUID("ExternalId")
//	field.Bytes("Payload")
//
// # Related Columns
//
// Columns read through a relation name the relation path with Through. The
// physical column defaults to the name with the path prefix removed:
//
//	field.String("RelatedAliasName").Nullable().Through("RelatedAlias") // [RelatedAlias].[Name]
//	field.String("Related.Name").Through("Related")                     // [FakeRelated].[Name]
package field
