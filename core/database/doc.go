// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL and SQLite connections based on the application's configuration.
//
// # Connect
//
// The generic Connect function establishes a connection to the database, configures
// the connection pool and verifies the connection with a bounded ping.
//
// # Schema Inspection
//
// The package includes tools to inspect the database schema, used by the migrate
// command to report the resulting table layout. It allows retrieving table columns
// for both supported dialects.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "products")
package database
