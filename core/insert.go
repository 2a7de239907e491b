package core

import "github.com/dosco/mongosql/core/internal/msql"

// InsertQuery builds an INSERT statement. Column order comes from the first
// document's keys, sorted; every document must supply the same columns.
// Composite values are serialized to JSON text so the driver can bind them.
type InsertQuery struct {
	e *Engine

	table string
	docs  []map[string]any

	upsert     bool
	upsertCols []string
}

// BuildInsert starts an insert builder for a table.
func (e *Engine) BuildInsert(table string) *InsertQuery {
	return &InsertQuery{e: e, table: table}
}

// InsertOne appends a single document.
func (q *InsertQuery) InsertOne(doc map[string]any) *InsertQuery {
	q.docs = append(q.docs, doc)
	return q
}

// InsertMany appends a batch of documents.
func (q *InsertQuery) InsertMany(docs []map[string]any) *InsertQuery {
	q.docs = append(q.docs, docs...)
	return q
}

// Upsert turns the insert into ON DUPLICATE KEY UPDATE form. With no
// columns given, every inserted column is updated on conflict.
func (q *InsertQuery) Upsert(cols ...string) *InsertQuery {
	q.upsert = true
	q.upsertCols = append(q.upsertCols, cols...)
	return q
}

// ToSQL compiles the insert into a Statement. Inserts are never cached.
func (q *InsertQuery) ToSQL() (Statement, error) {
	sql, params, err := q.e.sc.CompileInsert(msql.InsertSpec{
		Table:      q.table,
		Docs:       q.docs,
		Upsert:     q.upsert,
		UpsertCols: q.upsertCols,
	})
	if err != nil {
		return Statement{}, err
	}
	st := Statement{SQL: sql, Params: params}
	q.e.debugStatement("insert", q.table, st)
	return st, nil
}
