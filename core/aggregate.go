package core

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/dosco/mongosql/core/internal/msql"
	"github.com/dosco/mongosql/core/internal/qcode"
)

// Lookup configures a $lookup stage. As defaults to the joined table name.
type Lookup struct {
	From         string `mapstructure:"from"`
	LocalField   string `mapstructure:"localField"`
	ForeignField string `mapstructure:"foreignField"`
	As           string `mapstructure:"as"`
}

// AggregateQuery builds a single SELECT out of an aggregation pipeline.
// Stages fold left to right into clause accumulators, so a later stage of
// the same kind overrides an earlier one where the clause cannot repeat.
type AggregateQuery struct {
	e   *Engine
	err error

	table  string
	stages []msql.Stage
}

// BuildAggregation starts an aggregation builder for a table.
func (e *Engine) BuildAggregation(table string) *AggregateQuery {
	return &AggregateQuery{e: e, table: table}
}

func (q *AggregateQuery) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Match appends a $match stage. All match stages land in the WHERE clause,
// joined by AND.
func (q *AggregateQuery) Match(filter map[string]any) *AggregateQuery {
	ex, err := q.e.qc.ParseFilter(filter)
	if err != nil {
		q.fail(err)
		return q
	}
	q.stages = append(q.stages, msql.Stage{Kind: msql.StageMatch, Filter: ex})
	return q
}

// Having appends a post-grouping filter rendered into the HAVING clause.
func (q *AggregateQuery) Having(filter map[string]any) *AggregateQuery {
	ex, err := q.e.qc.ParseFilter(filter)
	if err != nil {
		q.fail(err)
		return q
	}
	q.stages = append(q.stages, msql.Stage{Kind: msql.StageHaving, Filter: ex})
	return q
}

// Group appends a $group stage: the _id entry becomes the GROUP BY key and
// the select list identity, accumulators become aggregate columns aliased
// by their output names.
func (q *AggregateQuery) Group(spec map[string]any) *AggregateQuery {
	g, err := qcode.ParseGroup(spec)
	if err != nil {
		q.fail(err)
		return q
	}
	q.stages = append(q.stages, msql.Stage{Kind: msql.StageGroup, Group: g})
	return q
}

// Project appends a $project stage, either a field list used verbatim or an
// inclusion map.
func (q *AggregateQuery) Project(fields any) *AggregateQuery {
	q.stages = append(q.stages, msql.Stage{Kind: msql.StageProject, Project: fields})
	return q
}

// Sort appends a $sort stage, a direction map or a raw ORDER BY fragment.
func (q *AggregateQuery) Sort(spec any) *AggregateQuery {
	q.stages = append(q.stages, msql.Stage{Kind: msql.StageSort, Sort: spec})
	return q
}

func (q *AggregateQuery) Limit(n uint64) *AggregateQuery {
	q.stages = append(q.stages, msql.Stage{Kind: msql.StageLimit, N: n})
	return q
}

func (q *AggregateQuery) Skip(n uint64) *AggregateQuery {
	q.stages = append(q.stages, msql.Stage{Kind: msql.StageSkip, N: n})
	return q
}

// Lookup appends a $lookup stage, a Lookup value or a $lookup-shaped map,
// rendered as a LEFT JOIN.
func (q *AggregateQuery) Lookup(spec any) *AggregateQuery {
	var l Lookup
	switch v := spec.(type) {
	case Lookup:
		l = v
	case *Lookup:
		l = *v
	default:
		if err := mapstructure.Decode(spec, &l); err != nil {
			q.fail(errors.Wrap(err, "lookup config"))
			return q
		}
	}
	q.stages = append(q.stages, msql.Stage{Kind: msql.StageLookup, Lookup: msql.Lookup(l)})
	return q
}

// Unwind appends a $unwind stage. MySQL has no row-expanding equivalent, so
// the stage becomes an inert annotation comment in the statement.
func (q *AggregateQuery) Unwind(path string) *AggregateQuery {
	q.stages = append(q.stages, msql.Stage{Kind: msql.StageUnwind, Path: path})
	return q
}

// ToSQL compiles the pipeline into a Statement.
func (q *AggregateQuery) ToSQL() (Statement, error) {
	if q.err != nil {
		return Statement{}, q.err
	}

	key := struct {
		Kind   string
		Table  string
		Stages []msql.Stage
	}{"aggregate", q.table, q.stages}

	return q.e.compileCached("aggregate", q.table, key, func() (string, []any, error) {
		return q.e.sc.CompileAggregate(msql.AggregateSpec{
			Table:  q.table,
			Stages: q.stages,
		})
	})
}
