package core

import "github.com/dosco/mongosql/core/internal/msql"

// DeleteQuery builds a DELETE statement. A filter is mandatory; compiling
// without one fails with a SafetyError before any SQL is produced.
type DeleteQuery struct {
	e *Engine

	table  string
	filter map[string]any
	merged bool
	single bool
}

// BuildDelete starts a delete builder for a table.
func (e *Engine) BuildDelete(table string) *DeleteQuery {
	return &DeleteQuery{e: e, table: table}
}

// Query constrains the delete. Repeated calls merge like SelectQuery.Query.
func (q *DeleteQuery) Query(filter map[string]any) *DeleteQuery {
	q.filter, q.merged = mergeFilter(q.filter, q.merged, filter)
	return q
}

// Single restricts the delete to one row with LIMIT 1.
func (q *DeleteQuery) Single() *DeleteQuery {
	q.single = true
	return q
}

// ToSQL compiles the delete into a Statement. Deletes are never cached.
func (q *DeleteQuery) ToSQL() (Statement, error) {
	ex, err := q.e.qc.ParseFilter(q.filter)
	if err != nil {
		return Statement{}, err
	}

	sql, params, err := q.e.sc.CompileDelete(msql.DeleteSpec{
		Table:  q.table,
		Filter: ex,
		Single: q.single,
	})
	if err != nil {
		return Statement{}, err
	}
	st := Statement{SQL: sql, Params: params}
	q.e.debugStatement("delete", q.table, st)
	return st, nil
}
