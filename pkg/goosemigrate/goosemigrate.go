package goosemigrate

import (
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/leonid6372/paper-trading/pkg/log"
	"github.com/pressly/goose/v3"
)

type Migrator struct {
	postgresURL string
	migrations  fs.FS
	schemaName  string
}

// NewMigrator returns a Migrator applying the *.sql files found at the root
// of migrations inside schemaName. The goose version table lives in the same schema.
func NewMigrator(postgresURL string, migrations fs.FS, schemaName string) *Migrator {
	return &Migrator{
		postgresURL: postgresURL,
		migrations:  migrations,
		schemaName:  schemaName,
	}
}

func (m *Migrator) Up() error {
	return m.run(func(db *sql.DB) error {
		_, err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", m.schemaName))
		if err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}

		if err := goose.Up(db, "."); err != nil {
			return fmt.Errorf("failed to up migrations: %w", err)
		}

		return nil
	})
}

// Down rolls back every migration and drops the schema.
func (m *Migrator) Down() error {
	return m.run(func(db *sql.DB) error {
		if err := goose.DownTo(db, ".", 0); err != nil {
			return fmt.Errorf("failed to down migrations: %w", err)
		}

		_, err := db.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", m.schemaName))
		if err != nil {
			return fmt.Errorf("failed to delete schema: %w", err)
		}

		return nil
	})
}

func (m *Migrator) Status() error {
	return m.run(func(db *sql.DB) error {
		_, err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", m.schemaName))
		if err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}

		if err := goose.Status(db, "."); err != nil {
			return fmt.Errorf("failed to get migrations status: %w", err)
		}

		return nil
	})
}

func (m *Migrator) run(fn func(db *sql.DB) error) error {
	goose.SetBaseFS(m.migrations)
	goose.SetLogger(gooseLogger{})
	goose.SetTableName(m.schemaName + "." + "migrations")

	db, err := goose.OpenDBWithDriver("postgres", m.postgresURL)
	if err != nil {
		return fmt.Errorf("failed to open DB for migration: %w", err)
	}

	if err := fn(db); err != nil {
		db.Close()
		return err
	}

	err = db.Close()
	if err != nil {
		return fmt.Errorf("failed to close db for migration: %w", err)
	}

	return nil
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...any) {
	log.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
