// Package database provides SQLite connectivity for the Gray Logic bridges.
//
// The bridges keep very little local state: the cloud session token (so a
// restart resumes without a fresh login) and the schema migration history.
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//   - Stored refresh tokens grant account access; protect the data directory
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are embedded by the top-level migrations package and are
// named YYYYMMDD_HHMMSS_description.up.sql / .down.sql.
package database
