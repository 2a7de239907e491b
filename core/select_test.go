package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name   string
		build  func() *SelectQuery
		sql    string
		params []any
	}{
		{
			name: "Default Paging",
			build: func() *SelectQuery {
				return BuildSelect("users").
					Query(map[string]any{"age": map[string]any{"$gt": 18}})
			},
			sql:    "SELECT * FROM users WHERE age > ? ORDER BY id DESC LIMIT 10",
			params: []any{18},
		},
		{
			name: "No Filter",
			build: func() *SelectQuery {
				return BuildSelect("users")
			},
			sql: "SELECT * FROM users ORDER BY id DESC LIMIT 10",
		},
		{
			name: "Skip Without Limit Uses Sentinel",
			build: func() *SelectQuery {
				return BuildSelect("users").Skip(20)
			},
			sql: "SELECT * FROM users ORDER BY id DESC LIMIT 18446744073709551615 OFFSET 20",
		},
		{
			name: "Explicit Limit And Offset",
			build: func() *SelectQuery {
				return BuildSelect("users").Limit(5).Offset(10)
			},
			sql: "SELECT * FROM users ORDER BY id DESC LIMIT 5 OFFSET 10",
		},
		{
			name: "Projection",
			build: func() *SelectQuery {
				return BuildSelect("users").Project("id", "name")
			},
			sql: "SELECT id, name FROM users ORDER BY id DESC LIMIT 10",
		},
		{
			name: "Sort Map",
			build: func() *SelectQuery {
				return BuildSelect("users").Sort(map[string]any{"age": -1, "name": 1})
			},
			sql: "SELECT * FROM users ORDER BY age DESC, name ASC LIMIT 10",
		},
		{
			name: "Sort Raw String",
			build: func() *SelectQuery {
				return BuildSelect("users").Sort("created_at DESC")
			},
			sql: "SELECT * FROM users ORDER BY created_at DESC LIMIT 10",
		},
		{
			name: "Join With Alias Resolution",
			build: func() *SelectQuery {
				return BuildSelect("users").
					Project("name", "o.total").
					Join(Join{Table: "orders", Alias: "o", On: "users.id = o.user_id"})
			},
			sql: "SELECT users.name, o.total FROM users LEFT JOIN orders AS o ON users.id = o.user_id ORDER BY id DESC LIMIT 10",
		},
		{
			name: "Join From Map",
			build: func() *SelectQuery {
				return BuildSelect("users").Join(map[string]any{
					"table": "orders",
					"type":  "inner",
					"on":    "users.id = orders.user_id",
				})
			},
			sql: "SELECT * FROM users INNER JOIN orders AS orders ON users.id = orders.user_id ORDER BY id DESC LIMIT 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := tt.build().ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.sql, st.SQL)
			if len(tt.params) != 0 {
				assert.Equal(t, tt.params, st.Params)
			} else {
				assert.Empty(t, st.Params)
			}
		})
	}
}

// Repeated Query calls must compile to the same statement as one explicit
// $and of the individual filters.
func TestSelectQueryMerge(t *testing.T) {
	merged, err := BuildSelect("users").
		Query(map[string]any{"a": 1}).
		Query(map[string]any{"b": 2}).
		Query(map[string]any{"c": 3}).
		ToSQL()
	require.NoError(t, err)

	explicit, err := BuildSelect("users").
		Query(map[string]any{"$and": []any{
			map[string]any{"a": 1},
			map[string]any{"b": 2},
			map[string]any{"c": 3},
		}}).
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, explicit, merged)
}

func TestSelectSubquery(t *testing.T) {
	sub := WrapSubquery(
		BuildSelect("orders").
			Project("user_id").
			Query(map[string]any{"total": map[string]any{"$gt": 100}}))

	st, err := BuildSelect("users").
		Query(map[string]any{"id": sub}).
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM users WHERE id IN (SELECT user_id FROM orders WHERE total > ? ORDER BY id DESC LIMIT 10) ORDER BY id DESC LIMIT 10",
		st.SQL)
	assert.Equal(t, []any{100}, st.Params)
}

func TestSelectSubqueryInList(t *testing.T) {
	sub := WrapSubquery(BuildSelect("banned").Project("user_id"))

	st, err := BuildSelect("users").
		Query(map[string]any{"id": map[string]any{"$nin": []any{0, sub}}}).
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM users WHERE id NOT IN (?, (SELECT user_id FROM banned ORDER BY id DESC LIMIT 10)) ORDER BY id DESC LIMIT 10",
		st.SQL)
	assert.Equal(t, []any{0}, st.Params)
}

// A subquery compiles once; SQL and params always come from that one pass.
func TestSubquerySinglePass(t *testing.T) {
	q := BuildSelect("orders").Project("user_id").
		Query(map[string]any{"total": map[string]any{"$gt": 100}})
	sub := WrapSubquery(q)

	sql1, params1, err := sub.Compile()
	require.NoError(t, err)

	// Later mutation of the wrapped builder has no effect.
	q.Query(map[string]any{"status": "void"})

	sql2, params2, err := sub.Compile()
	require.NoError(t, err)
	assert.Equal(t, sql1, sql2)
	assert.Equal(t, params1, params2)
}
