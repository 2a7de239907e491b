package msql

import (
	"strconv"
	"strings"

	"github.com/dosco/mongosql/core/internal/qcode"
)

type StageKind int8

const (
	StageMatch StageKind = iota
	StageGroup
	StageProject
	StageSort
	StageLimit
	StageSkip
	StageLookup
	StageUnwind
	StageHaving
)

// Lookup is a resolved $lookup stage.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
}

// Stage is one pipeline stage, already parsed. Only the field matching the
// Kind tag is set.
type Stage struct {
	Kind    StageKind
	Filter  *qcode.Exp // match, having
	Group   *qcode.GroupSpec
	Project any // []string or map[string]any
	Sort    any
	N       uint64 // limit, skip
	Lookup  Lookup
	Path    string // unwind
}

type AggregateSpec struct {
	Table  string
	Stages []Stage
}

// CompileAggregate folds the pipeline left to right into clause accumulators
// and assembles the final SELECT. Parameters come only from match and having
// filters and are collected in clause order, WHERE before HAVING, so they
// line up with the placeholders of the assembled text.
func (c *Compiler) CompileAggregate(agg AggregateSpec) (string, []any, error) {
	var (
		selectClause string
		groupBy      string
		grouped      bool
		sortSpec     any
		matches      []*qcode.Exp
		havings      []*qcode.Exp
		joins        []string
		comments     []string

		limit, skip       uint64
		hasLimit, hasSkip bool
	)

	for _, st := range agg.Stages {
		switch st.Kind {
		case StageMatch:
			if st.Filter != nil {
				matches = append(matches, st.Filter)
			}

		case StageHaving:
			if st.Filter != nil {
				havings = append(havings, st.Filter)
			}

		case StageGroup:
			sel, gb := renderGroup(st.Group)
			selectClause = sel
			groupBy = gb
			grouped = true

		case StageProject:
			cols, err := projectColumns(st.Project)
			if err != nil {
				return "", nil, err
			}
			// A projection after a group prepends plain columns to the
			// grouped select list; before a group it just replaces it.
			if grouped && selectClause != "" && cols != "" {
				selectClause = cols + `, ` + selectClause
			} else if cols != "" {
				selectClause = cols
			}

		case StageSort:
			sortSpec = st.Sort

		case StageLimit:
			limit = st.N
			hasLimit = true

		case StageSkip:
			skip = st.N
			hasSkip = true

		case StageLookup:
			l := st.Lookup
			as := l.As
			if as == "" {
				as = l.From
			}
			joins = append(joins,
				`LEFT JOIN `+l.From+` AS `+as+` ON `+agg.Table+`.`+l.LocalField+` = `+as+`.`+l.ForeignField)

		case StageUnwind:
			comments = append(comments, `/* unwind: `+st.Path+` */`)
		}
	}

	ctx := c.newContext()

	ctx.w.WriteString(`SELECT `)
	if selectClause == "" {
		selectClause = `*`
	}
	ctx.w.WriteString(selectClause)
	ctx.w.WriteString(` FROM `)
	ctx.w.WriteString(agg.Table)

	for _, j := range joins {
		ctx.w.WriteString(` `)
		ctx.w.WriteString(j)
	}
	for _, cm := range comments {
		ctx.w.WriteString(` `)
		ctx.w.WriteString(cm)
	}

	if err := ctx.renderFilterClause(` WHERE `, matches); err != nil {
		return "", nil, err
	}

	if groupBy != "" {
		ctx.w.WriteString(` GROUP BY `)
		ctx.w.WriteString(groupBy)
	}

	if err := ctx.renderFilterClause(` HAVING `, havings); err != nil {
		return "", nil, err
	}

	ob, err := renderOrderBy(sortSpec)
	if err != nil {
		return "", nil, err
	}
	if ob != "" {
		ctx.w.WriteString(` ORDER BY `)
		ctx.w.WriteString(ob)
	}

	if hasLimit || hasSkip {
		ctx.w.WriteString(` LIMIT `)
		if hasLimit {
			ctx.w.WriteString(strconv.FormatUint(limit, 10))
		} else {
			ctx.w.WriteString(maxLimit)
		}
		if hasSkip {
			ctx.w.WriteString(` OFFSET `)
			ctx.w.WriteString(strconv.FormatUint(skip, 10))
		}
	}

	sql, params := ctx.result()
	return sql, params, nil
}

func (ctx *compilerContext) renderFilterClause(kw string, filters []*qcode.Exp) error {
	if len(filters) == 0 {
		return nil
	}
	ctx.w.WriteString(kw)
	for i, f := range filters {
		if i != 0 {
			ctx.w.WriteString(` AND `)
		}
		if err := ctx.renderExp(f); err != nil {
			return err
		}
	}
	return nil
}

// renderGroup emits the select list and GROUP BY columns for a group stage.
// The identity comes first, aliased as _id, followed by the accumulators in
// output-name order.
func renderGroup(g *qcode.GroupSpec) (sel, groupBy string) {
	var parts []string

	switch g.ID.Kind {
	case qcode.GroupIDField:
		parts = append(parts, g.ID.Field+` AS _id`)
		groupBy = g.ID.Field
	case qcode.GroupIDComposite:
		parts = append(parts, g.ID.Fields...)
		groupBy = strings.Join(g.ID.Fields, `, `)
	case qcode.GroupIDLiteral:
		parts = append(parts, literal(g.ID.Literal)+` AS _id`)
	}

	for _, a := range g.Aggregates {
		parts = append(parts, a.Func+`(`+aggOperand(a.Operand)+`) AS `+a.Name)
	}
	return strings.Join(parts, `, `), groupBy
}

func aggOperand(v any) string {
	if s, ok := v.(string); ok {
		if f, ref := qcode.FieldRef(s); ref {
			return f
		}
	}
	return literal(v)
}

// projectColumns renders a $project stage: a sequence of column expressions
// used verbatim, or an inclusion map whose truthy keys are kept in sorted
// order.
func projectColumns(v any) (string, error) {
	switch p := v.(type) {
	case []string:
		return strings.Join(p, `, `), nil
	case []any:
		cols := make([]string, len(p))
		for i, c := range p {
			s, ok := c.(string)
			if !ok {
				return "", &qcode.TranslationError{
					Operator: "$project",
					Message:  "projection list entries must be strings",
				}
			}
			cols[i] = s
		}
		return strings.Join(cols, `, `), nil
	case map[string]any:
		var cols []string
		for _, k := range sortedKeys(p) {
			if included(p[k]) {
				cols = append(cols, k)
			}
		}
		return strings.Join(cols, `, `), nil
	default:
		return "", &qcode.TranslationError{
			Operator: "$project",
			Message:  "projection must be a field list or an inclusion map",
		}
	}
}

func included(v any) bool {
	switch n := v.(type) {
	case bool:
		return n
	case int:
		return n != 0
	case float64:
		return n != 0
	default:
		return v != nil
	}
}
