// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL (production) or SQLite (tests, local runs)
// connections from the application's configuration.
//
// # Connect
//
// Connect opens the configured driver with TranslateError enabled, so a unique
// constraint violation surfaces as gorm.ErrDuplicatedKey regardless of the
// backend. Callers rely on that to detect lost creation races.
//
// # Schema Inspection
//
// GetTableColumns reads live column definitions (SHOW COLUMNS or PRAGMA
// table_info). VerifySchema compares them with the columns the store expects
// and is run by the migrate command after AutoMigrate.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	issues, err := database.VerifySchema(db, store.ExpectedColumns())
package database
