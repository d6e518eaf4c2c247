// Package database implements the SQLite persistence layer: canonical
// message storage, session instance flags, QR events, monitoring rule
// reads and alert inserts.
package database

import (
	"database/sql"
	"fmt"
	"strings"

	"groupsentry/internal/migrations"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Database, error) {
	if dbPath == "" || strings.ContainsRune(dbPath, '\x00') {
		return nil, fmt.Errorf("invalid database path")
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		closeOnErr(db)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema, err := migrations.GetInitialSchema()
	if err != nil {
		closeOnErr(db)
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		closeOnErr(db)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	enc, err := newEncryptor()
	if err != nil {
		closeOnErr(db)
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{db: db, encryptor: enc}, nil
}

func closeOnErr(db *sql.DB) {
	_ = db.Close()
}

func (d *Database) Close() error {
	return d.db.Close()
}
