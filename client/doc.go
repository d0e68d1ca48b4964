// Package client runs compiled selections and bulk commands against a
// dialect.Driver.
//
//	c, err := client.Open("sqlserver", dsn, storm.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	rows, err := c.Select(ctx, client.From[FakeData](c).
//		Matching("ValueColumn", 2).
//		Between("FakeDataId", 10, 20))
//
// Statement text is cached by the structural fingerprint of the selection,
// so selections that differ only in their values share one entry. Merge and
// Insert pair the returned rows with the submitted rows by key inside one
// transaction.
package client
