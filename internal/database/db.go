package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn   *sql.DB
	dbType string
}

type Config struct {
	Type       string
	SQLitePath string
}

func NewDB(config Config) (*DB, error) {
	if config.Type == "" {
		config.Type = "sqlite"
	}
	if config.Type != "sqlite" {
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	// foreign keys are off by default in SQLite
	dsn := config.SQLitePath + "?_foreign_keys=on"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// a single writer avoids "database is locked" under concurrent requests
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn, dbType: config.Type}, nil
}

// RunMigrations applies the embedded schema and seed migrations.
func (db *DB) RunMigrations(ctx context.Context) error {
	return NewMigrator(db.conn, Migrations()).Run(ctx)
}

// Migrations returns the embedded migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}
