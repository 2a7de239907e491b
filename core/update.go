package core

import (
	"github.com/dosco/mongosql/core/internal/msql"
	"github.com/dosco/mongosql/core/internal/qcode"
)

// UpdateQuery builds an UPDATE statement, either from an update document
// ($set, $inc, $mul, $unset, or a plain document shorthand for $set) or
// from a list of per-row documents compiled into one bulk CASE statement
// over the identity column.
type UpdateQuery struct {
	e   *Engine
	err error

	table    string
	idColumn string
	filter   map[string]any
	merged   bool
	single   bool

	ops  []qcode.UpdateOp
	docs []map[string]any
}

// BuildUpdate starts an update builder for a table. The optional second
// argument overrides the configured identity column for bulk updates.
func (e *Engine) BuildUpdate(table string, idColumn ...string) *UpdateQuery {
	idc := e.conf.IDColumn
	if len(idColumn) != 0 && idColumn[0] != "" {
		idc = idColumn[0]
	}
	return &UpdateQuery{e: e, table: table, idColumn: idc}
}

func (q *UpdateQuery) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Query constrains the update. Repeated calls merge like SelectQuery.Query.
// An update document form requires a filter; the bulk form is already
// restricted to its identity values, any filter given here is ANDed on top.
func (q *UpdateQuery) Query(filter map[string]any) *UpdateQuery {
	q.filter, q.merged = mergeFilter(q.filter, q.merged, filter)
	return q
}

// Update sets what to write: a map[string]any update document, or a slice
// of documents for the bulk per-row form.
func (q *UpdateQuery) Update(v any) *UpdateQuery {
	switch u := v.(type) {
	case map[string]any:
		ops, err := qcode.ParseUpdate(u)
		if err != nil {
			q.fail(err)
			return q
		}
		q.ops = ops
	case []map[string]any:
		q.docs = u
	case []any:
		docs := make([]map[string]any, len(u))
		for i, el := range u {
			m, ok := el.(map[string]any)
			if !ok {
				q.fail(&TranslationError{Message: "bulk update entries must be documents"})
				return q
			}
			docs[i] = m
		}
		q.docs = docs
	default:
		q.fail(&TranslationError{Message: "update expects a document or a document list"})
	}
	return q
}

// Single restricts the update to one row with LIMIT 1.
func (q *UpdateQuery) Single() *UpdateQuery {
	q.single = true
	return q
}

// ToSQL compiles the update into a Statement. Updates are never cached.
func (q *UpdateQuery) ToSQL() (Statement, error) {
	if q.err != nil {
		return Statement{}, q.err
	}
	if len(q.ops) == 0 && len(q.docs) == 0 {
		return Statement{}, &ConfigError{Message: "update requires an update document"}
	}

	ex, err := q.e.qc.ParseFilter(q.filter)
	if err != nil {
		return Statement{}, err
	}

	sql, params, err := q.e.sc.CompileUpdate(msql.UpdateSpec{
		Table:    q.table,
		IDColumn: q.idColumn,
		Ops:      q.ops,
		Docs:     q.docs,
		Filter:   ex,
		Single:   q.single,
	})
	if err != nil {
		return Statement{}, err
	}
	st := Statement{SQL: sql, Params: params}
	q.e.debugStatement("update", q.table, st)
	return st, nil
}
