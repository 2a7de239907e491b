package core

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/dosco/mongosql/core/internal/msql"
)

// Join configures one join clause of a select. Type defaults to LEFT and
// Alias to the joined table name.
type Join struct {
	Table string `mapstructure:"table"`
	Alias string `mapstructure:"alias"`
	Type  string `mapstructure:"type"`
	On    string `mapstructure:"on"`
}

// SelectQuery builds a SELECT statement. All methods return the receiver
// for chaining; input errors are held back and surface at ToSQL.
type SelectQuery struct {
	e   *Engine
	err error

	table   string
	filter  map[string]any
	merged  bool
	columns []string
	joins   []Join
	sort    any

	limit  uint64
	offset uint64

	hasLimit  bool
	hasOffset bool
}

// BuildSelect starts a select builder for a table.
func (e *Engine) BuildSelect(table string) *SelectQuery {
	return &SelectQuery{e: e, table: table}
}

// Query constrains the select. The first call takes the filter as-is; each
// further call folds the previous state and the new filter into one explicit
// $and sequence.
func (q *SelectQuery) Query(filter map[string]any) *SelectQuery {
	q.filter, q.merged = mergeFilter(q.filter, q.merged, filter)
	return q
}

// Project sets the selected columns. Without joins they are used verbatim;
// with joins, dotted references resolving to a join alias pass through and
// everything else is qualified with the base table.
func (q *SelectQuery) Project(columns ...string) *SelectQuery {
	q.columns = append(q.columns, columns...)
	return q
}

// Join adds join clauses, each either a Join value or an equivalent
// map[string]any.
func (q *SelectQuery) Join(joins ...any) *SelectQuery {
	for _, in := range joins {
		switch j := in.(type) {
		case Join:
			q.joins = append(q.joins, j)
		case *Join:
			q.joins = append(q.joins, *j)
		default:
			var dj Join
			if err := mapstructure.Decode(in, &dj); err != nil {
				q.fail(errors.Wrap(err, "join config"))
				continue
			}
			q.joins = append(q.joins, dj)
		}
	}
	return q
}

// Sort sets the ordering, either a raw ORDER BY fragment or a direction map
// in the {field: -1} style.
func (q *SelectQuery) Sort(v any) *SelectQuery {
	q.sort = v
	return q
}

func (q *SelectQuery) Limit(n uint64) *SelectQuery {
	q.limit = n
	q.hasLimit = true
	return q
}

func (q *SelectQuery) Offset(n uint64) *SelectQuery {
	q.offset = n
	q.hasOffset = true
	return q
}

// Skip is an alias for Offset.
func (q *SelectQuery) Skip(n uint64) *SelectQuery {
	return q.Offset(n)
}

func (q *SelectQuery) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// ToSQL compiles the accumulated state into a Statement. On error no
// partial statement is returned.
func (q *SelectQuery) ToSQL() (Statement, error) {
	if q.err != nil {
		return Statement{}, q.err
	}

	ex, err := q.e.qc.ParseFilter(q.filter)
	if err != nil {
		return Statement{}, err
	}

	joins := make([]msql.Join, len(q.joins))
	for i, j := range q.joins {
		joins[i] = msql.Join(j)
	}

	key := struct {
		Kind      string
		Table     string
		Columns   []string
		Joins     []Join
		Filter    map[string]any
		Sort      any
		Limit     uint64
		Offset    uint64
		HasLimit  bool
		HasOffset bool
	}{
		"select", q.table, q.columns, q.joins, q.filter,
		q.sort, q.limit, q.offset, q.hasLimit, q.hasOffset,
	}

	return q.e.compileCached("select", q.table, key, func() (string, []any, error) {
		return q.e.sc.CompileSelect(msql.SelectSpec{
			Table:        q.table,
			Columns:      q.columns,
			Joins:        joins,
			Filter:       ex,
			Sort:         q.sort,
			Limit:        q.limit,
			Offset:       q.offset,
			HasLimit:     q.hasLimit,
			HasOffset:    q.hasOffset,
			DefaultLimit: uint64(q.e.conf.DefaultLimit),
			IDColumn:     q.e.conf.IDColumn,
		})
	})
}

// mergeFilter folds repeated Query calls into one explicit $and sequence.
func mergeFilter(cur map[string]any, merged bool, next map[string]any) (map[string]any, bool) {
	if next == nil {
		return cur, merged
	}
	if cur == nil {
		return next, false
	}
	if merged {
		cur["$and"] = append(cur["$and"].([]any), next)
		return cur, true
	}
	return map[string]any{"$and": []any{cur, next}}, true
}
