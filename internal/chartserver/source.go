package chartserver

import (
	"context"
	"fmt"
)

// Dialect selects placeholder style and operator support
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// ResultSet is a query result with column names in select order
type ResultSet struct {
	Columns []string
	Rows    []map[string]any
}

// Source executes generated SQL against one database
type Source interface {
	Query(ctx context.Context, sql string, args ...any) (*ResultSet, error)
	Dialect() Dialect
	Close() error
}

// Open connects to a datasource by driver name
func Open(ctx context.Context, driver, dsn string) (Source, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return NewSQLiteSource(dsn)
	case "postgres", "pgx":
		return NewPostgresSource(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}
