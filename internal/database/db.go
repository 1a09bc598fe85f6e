package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Supported values of DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Options describes how to reach the database.  MySQL fields are ignored
// for the sqlite driver and SQLitePath is ignored for mysql.
type Options struct {
	Driver     string
	User       string
	Pass       string
	Host       string
	Port       string
	Name       string
	SQLitePath string
}

// Open connects to the configured database and verifies the connection.
func Open(o Options) (*sql.DB, error) {
	switch o.Driver {
	case "", DriverMySQL:
		return openMySQL(o)
	case DriverSQLite:
		return openSQLite(o.SQLitePath)
	}
	return nil, fmt.Errorf("unsupported db driver %q", o.Driver)
}

func openMySQL(o Options) (*sql.DB, error) {
	auth := o.User
	if o.Pass != "" {
		auth = fmt.Sprintf("%s:%s", o.User, o.Pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, o.Host, o.Port, o.Name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, ping(db)
}

// openSQLite opens a SQLite database.  An empty path or ":memory:" gives a
// private in-memory database; the pool is pinned to one connection so the
// database lives as long as the handle and writers are serialized.
func openSQLite(path string) (*sql.DB, error) {
	if path == "" || path == ":memory:" {
		path = "file::memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, ping(db)
}

func ping(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	return nil
}

// Migrate applies the embedded schema for driver.  Every statement is
// idempotent (CREATE ... IF NOT EXISTS) so it is safe to run on each start.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	if driver == "" {
		driver = DriverMySQL
	}
	raw, err := schemaFS.ReadFile("schema/" + driver + ".sql")
	if err != nil {
		return fmt.Errorf("schema for %s: %w", driver, err)
	}
	for _, stmt := range splitStatements(string(raw)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// splitStatements breaks a schema file on semicolons, dropping comment
// lines and empty statements.
func splitStatements(src string) []string {
	var b strings.Builder
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	var out []string
	for _, s := range strings.Split(b.String(), ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
