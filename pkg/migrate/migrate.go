// Package migrate applies the goose SQL migrations compiled into the binary and manages the
// migrations directory on disk for development.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir is the on-disk source of the embedded migrations, relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations is the migration set shipped with the binary.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, embeddedDir)
	if err != nil {
		panic(err)
	}
	return sub
}

func prepare(db *sql.DB) error {
	if db == nil {
		return errors.New("db is required")
	}
	goose.SetBaseFS(embedded)
	return goose.SetDialect("postgres")
}

// Run executes a goose command (up, down, redo, status, ...) against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if err := prepare(db); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, embeddedDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until it sits at target (YYYYMMDDHHMMSS).
func MigrateToVersion(ctx context.Context, db *sql.DB, target string) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil || len(target) != 14 {
		return fmt.Errorf("invalid version %q, expected YYYYMMDDHHMMSS", target)
	}
	if err := prepare(db); err != nil {
		return err
	}
	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case version > current:
		err = goose.UpToContext(ctx, db, embeddedDir, version)
	case version < current:
		err = goose.DownToContext(ctx, db, embeddedDir, version)
	}
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, version, err)
	}
	return nil
}
