package chartserver

import (
	"context"
	"fmt"
	"strings"
)

// Execer is implemented by sources that accept DDL and inserts
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) error
}

type birthName struct {
	ds     string
	name   string
	gender string
	state  string
	num    int
}

var birthNames = []birthName{
	{"2000-01-01", "Aaron", "boy", "CA", 1269},
	{"2000-01-01", "Amy", "girl", "CA", 883},
	{"2000-01-01", "Michael", "boy", "NY", 2011},
	{"2000-01-01", "Jessica", "girl", "NY", 1766},
	{"2000-01-01", "Jose", "boy", "TX", 1432},
	{"2000-01-01", "Emily", "girl", "TX", 1520},
	{"2001-01-01", "Aaron", "boy", "CA", 1190},
	{"2001-01-01", "Amy", "girl", "CA", 801},
	{"2001-01-01", "Michael", "boy", "NY", 1893},
	{"2001-01-01", "Jessica", "girl", "NY", 1612},
	{"2001-01-01", "Jose", "boy", "TX", 1518},
	{"2001-01-01", "Emily", "girl", "TX", 1467},
	{"2002-01-01", "Aaron", "boy", "CA", 1102},
	{"2002-01-01", "Amy", "girl", "CA", 745},
	{"2002-01-01", "Michael", "boy", "NY", 1821},
	{"2002-01-01", "Jessica", "girl", "NY", 1480},
	{"2002-01-01", "Jose", "boy", "TX", 1550},
	{"2002-01-01", "Emily", "girl", "TX", 1398},
}

// Seed creates and fills the birth_names demo table when it is missing
func Seed(ctx context.Context, src Source) error {
	execer, ok := src.(Execer)
	if !ok {
		return fmt.Errorf("source does not support seeding")
	}

	if err := execer.Exec(ctx, `CREATE TABLE IF NOT EXISTS birth_names (
		ds TEXT NOT NULL,
		name TEXT NOT NULL,
		gender TEXT NOT NULL,
		state TEXT NOT NULL,
		num INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create birth_names: %w", err)
	}

	rs, err := src.Query(ctx, "SELECT COUNT(*) AS n FROM birth_names")
	if err != nil {
		return fmt.Errorf("failed to count birth_names: %w", err)
	}
	if len(rs.Rows) == 1 && toInt(rs.Rows[0]["n"]) > 0 {
		return nil
	}

	b := NewBuilder(src.Dialect())
	values := make([]string, 0, len(birthNames))
	for _, r := range birthNames {
		values = append(values, fmt.Sprintf("(%s, %s, %s, %s, %s)",
			b.bind(r.ds), b.bind(r.name), b.bind(r.gender), b.bind(r.state), b.bind(r.num)))
	}
	stmt := "INSERT INTO birth_names (ds, name, gender, state, num) VALUES " + strings.Join(values, ", ")
	if err := execer.Exec(ctx, stmt, b.Args()...); err != nil {
		return fmt.Errorf("failed to seed birth_names: %w", err)
	}
	return nil
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
