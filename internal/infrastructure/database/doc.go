// Package database provides the local SQLite store of the weather node.
//
// This package manages:
//   - The database connection (single writer, optional WAL journaling)
//   - Schema migrations embedded in the binary (see the migrations package)
//
// The sqlite offline queue backend is the only consumer. Readings are
// appended in their own statement so each one is durable once the call
// returns.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.{up,down}.sql and are
// additive: a newer binary never needs an older table layout.
package database
