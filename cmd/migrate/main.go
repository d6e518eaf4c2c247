// Command migrate applies the initial schema to a database file without
// starting the server. Useful for provisioning and for inspecting a fresh
// schema in CI.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	"groupsentry/internal/migrations"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	dbPath := flag.String("db", "./groupsentry.db", "Path to the database file")
	flag.Parse()

	db, err := sql.Open("sqlite3", *dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	schema, err := migrations.GetInitialSchema()
	if err != nil {
		log.Fatalf("Failed to read schema: %v", err)
	}

	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	fmt.Println("Schema applied successfully")
}
