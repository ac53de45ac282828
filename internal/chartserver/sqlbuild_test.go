package chartserver

import (
	"testing"

	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		filters []models.AdhocFilter
		want    string
		args    []any
		wantErr bool
	}{
		{
			name:    "empty",
			dialect: DialectSQLite,
		},
		{
			name:    "equal uses single equals",
			dialect: DialectSQLite,
			filters: []models.AdhocFilter{{Subject: "gender", Operator: models.OpEqual, Comparator: "boy"}},
			want:    `WHERE "gender" = ?`,
			args:    []any{"boy"},
		},
		{
			name:    "postgres numbers placeholders across conditions",
			dialect: DialectPostgres,
			filters: []models.AdhocFilter{
				{Subject: "state", Operator: models.OpIn, Comparator: []any{"CA", "NY"}},
				{Subject: "num", Operator: models.OpGreaterThan, Comparator: 1000.0},
			},
			want: `WHERE "state" IN ($1, $2) AND "num" > $3`,
			args: []any{"CA", "NY", 1000.0},
		},
		{
			name:    "ilike falls back to like on sqlite",
			dialect: DialectSQLite,
			filters: []models.AdhocFilter{{Subject: "name", Operator: models.OpILike, Comparator: "a%"}},
			want:    `WHERE "name" LIKE ?`,
			args:    []any{"a%"},
		},
		{
			name:    "ilike kept on postgres",
			dialect: DialectPostgres,
			filters: []models.AdhocFilter{{Subject: "name", Operator: models.OpILike, Comparator: "a%"}},
			want:    `WHERE "name" ILIKE $1`,
			args:    []any{"a%"},
		},
		{
			name:    "null checks bind nothing",
			dialect: DialectSQLite,
			filters: []models.AdhocFilter{{Subject: "state", Operator: models.OpIsNotNull}},
			want:    `WHERE "state" IS NOT NULL`,
		},
		{
			name:    "scalar comparator for IN",
			dialect: DialectSQLite,
			filters: []models.AdhocFilter{{Subject: "state", Operator: models.OpNotIn, Comparator: "TX"}},
			want:    `WHERE "state" NOT IN (?)`,
			args:    []any{"TX"},
		},
		{
			name:    "empty IN list",
			dialect: DialectSQLite,
			filters: []models.AdhocFilter{{Subject: "state", Operator: models.OpIn, Comparator: []any{}}},
			wantErr: true,
		},
		{
			name:    "bad identifier",
			dialect: DialectSQLite,
			filters: []models.AdhocFilter{{Subject: `x"; DROP TABLE t; --`, Operator: models.OpEqual, Comparator: 1}},
			wantErr: true,
		},
		{
			name:    "unknown operator",
			dialect: DialectSQLite,
			filters: []models.AdhocFilter{{Subject: "num", Operator: "BETWEEN", Comparator: 1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(tt.dialect)
			got, err := b.BuildWhere(tt.filters)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.args, b.Args())
		})
	}
}

func TestSelect(t *testing.T) {
	b := NewBuilder(DialectPostgres)
	stmt, err := b.Select(QuerySpec{
		Table:   "birth_names",
		GroupBy: []string{"gender"},
		Metrics: []Metric{
			{Aggregate: "SUM", Column: "num", Label: "SUM(num)"},
			{Aggregate: "COUNT", Label: "count"},
		},
		Filters:  []models.AdhocFilter{{Subject: "state", Operator: models.OpEqual, Comparator: "CA"}},
		RowLimit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "gender", SUM("num") AS "SUM(num)", COUNT(*) AS "count" FROM "birth_names" WHERE "state" = $1 GROUP BY "gender" ORDER BY "SUM(num)" DESC LIMIT 10`,
		stmt)
	assert.Equal(t, []any{"CA"}, b.Args())
}

func TestSelectRawRows(t *testing.T) {
	stmt, err := NewBuilder(DialectSQLite).Select(QuerySpec{Table: "birth_names", RowLimit: 5})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "birth_names" LIMIT 5`, stmt)

	stmt, err = NewBuilder(DialectSQLite).Select(QuerySpec{Table: "birth_names", Columns: []string{"name", "num"}})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "name", "num" FROM "birth_names"`, stmt)
}

func TestSelectRejectsBadMetric(t *testing.T) {
	_, err := NewBuilder(DialectSQLite).Select(QuerySpec{
		Table:   "birth_names",
		Metrics: []Metric{{Aggregate: "DROP", Column: "num", Label: "x"}},
	})
	assert.Error(t, err)

	_, err = NewBuilder(DialectSQLite).Select(QuerySpec{
		Table:   "birth_names",
		Metrics: []Metric{{Aggregate: "SUM", Label: "x"}},
	})
	assert.Error(t, err)
}
