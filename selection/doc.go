// Package selection builds the query model that the SQL emitter renders.
//
// A selection names a row type, its projected columns, and an ordered list
// of predicate clauses:
//
//	sel := selection.From[rows.FakeData]().
//		Matching("ValueColumn", 2).
//		Matching("NullableColumn", "X").
//		Between("FakeDataId", 10, 20)
//	if err := sel.Err(); err != nil {
//		return err
//	}
//
// Clauses are emitted in the order they were added and joined by AND.
package selection
