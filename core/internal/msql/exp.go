package msql

import (
	"github.com/spf13/cast"

	"github.com/dosco/mongosql/core/internal/qcode"
)

// sqlOps is the static comparison-operator table.
var sqlOps = map[qcode.ExpOp]string{
	qcode.OpEquals:          `=`,
	qcode.OpNotEquals:       `<>`,
	qcode.OpGreaterThan:     `>`,
	qcode.OpGreaterOrEquals: `>=`,
	qcode.OpLesserThan:      `<`,
	qcode.OpLesserOrEquals:  `<=`,
}

// CompileFilter renders an expression tree into a WHERE fragment plus its
// parameters. A nil tree yields an empty fragment.
func (c *Compiler) CompileFilter(ex *qcode.Exp) (string, []any, error) {
	if ex == nil {
		return "", nil, nil
	}
	ctx := c.newContext()
	if err := ctx.renderExp(ex); err != nil {
		return "", nil, err
	}
	sql, params := ctx.result()
	return sql, params, nil
}

func (ctx *compilerContext) renderExp(ex *qcode.Exp) error {
	switch ex.Op {
	case qcode.OpTrue:
		ctx.w.WriteString(truePred)

	case qcode.OpFalse:
		ctx.w.WriteString(falsePred)

	case qcode.OpAnd:
		return ctx.renderAnd(ex)

	case qcode.OpOr, qcode.OpNor:
		return ctx.renderOr(ex)

	case qcode.OpEquals, qcode.OpNotEquals,
		qcode.OpGreaterThan, qcode.OpGreaterOrEquals,
		qcode.OpLesserThan, qcode.OpLesserOrEquals:
		ctx.w.WriteString(ex.Field)
		ctx.w.WriteString(` `)
		ctx.w.WriteString(sqlOps[ex.Op])
		ctx.w.WriteString(` `)
		ctx.param(ex.Val)

	case qcode.OpIn, qcode.OpNotIn:
		return ctx.renderIn(ex)

	case qcode.OpAll:
		return ctx.renderAll(ex)

	case qcode.OpExists:
		ctx.w.WriteString(ex.Field)
		if cast.ToBool(ex.Val) {
			ctx.w.WriteString(` IS NOT NULL`)
		} else {
			ctx.w.WriteString(` IS NULL`)
		}

	case qcode.OpSize:
		ctx.w.WriteString(`JSON_LENGTH(`)
		ctx.w.WriteString(ex.Field)
		ctx.w.WriteString(`) = `)
		ctx.param(ex.Val)

	case qcode.OpElemMatch:
		ctx.w.WriteString(`JSON_CONTAINS(`)
		ctx.w.WriteString(ex.Field)
		ctx.w.WriteString(`, `)
		if err := ctx.jsonParam(ex.Val); err != nil {
			return err
		}
		ctx.w.WriteString(`)`)

	case qcode.OpRegex:
		ctx.w.WriteString(ex.Field)
		ctx.w.WriteString(` REGEXP `)
		ctx.param(ex.Val)

	case qcode.OpLike:
		ctx.w.WriteString(ex.Field)
		ctx.w.WriteString(` LIKE `)
		ctx.param(ex.Val)

	case qcode.OpSubquery:
		sql, params, err := ex.Sub.Compile()
		if err != nil {
			return err
		}
		ctx.w.WriteString(ex.Field)
		ctx.w.WriteString(` IN (`)
		ctx.w.WriteString(sql)
		ctx.w.WriteString(`)`)
		ctx.params = append(ctx.params, params...)

	case qcode.OpCustom:
		return ctx.renderCustom(ex)
	}
	return nil
}

func (ctx *compilerContext) renderAnd(ex *qcode.Exp) error {
	if len(ex.Children) == 0 {
		ctx.w.WriteString(truePred)
		return nil
	}

	explicit := ex.Name == "$and"
	grouped := !explicit && ex.Name != ""

	if grouped {
		ctx.w.WriteString(`(`)
	}
	for i, child := range ex.Children {
		if i != 0 {
			ctx.w.WriteString(` AND `)
		}
		if explicit {
			ctx.w.WriteString(`(`)
		}
		if err := ctx.renderExp(child); err != nil {
			return err
		}
		if explicit {
			ctx.w.WriteString(`)`)
		}
	}
	if grouped {
		ctx.w.WriteString(`)`)
	}
	return nil
}

// renderOr handles $or and $nor. Children are rendered into scratch contexts
// first so trivially true disjuncts can be elided together with any
// parameters they would have contributed.
func (ctx *compilerContext) renderOr(ex *qcode.Exp) error {
	type part struct {
		sql    string
		params []any
	}
	parts := make([]part, 0, len(ex.Children))
	for _, child := range ex.Children {
		sub := ctx.c.newContext()
		if err := sub.renderExp(child); err != nil {
			return err
		}
		sql, params := sub.result()
		if sql == truePred {
			continue
		}
		parts = append(parts, part{sql, params})
	}

	if ex.Op == qcode.OpNor {
		if len(parts) == 0 {
			ctx.w.WriteString(truePred)
			return nil
		}
		ctx.w.WriteString(`NOT `)
	} else if len(parts) == 0 {
		ctx.w.WriteString(falsePred)
		return nil
	}

	if len(parts) == 1 {
		ctx.w.WriteString(`(` + parts[0].sql + `)`)
		ctx.params = append(ctx.params, parts[0].params...)
		return nil
	}

	ctx.w.WriteString(`(`)
	for i, p := range parts {
		if i != 0 {
			ctx.w.WriteString(` OR `)
		}
		ctx.w.WriteString(`(` + p.sql + `)`)
		ctx.params = append(ctx.params, p.params...)
	}
	ctx.w.WriteString(`)`)
	return nil
}

func (ctx *compilerContext) renderIn(ex *qcode.Exp) error {
	if len(ex.List) == 0 {
		if ex.Op == qcode.OpIn {
			ctx.w.WriteString(falsePred)
		} else {
			ctx.w.WriteString(truePred)
		}
		return nil
	}

	ctx.w.WriteString(ex.Field)
	if ex.Op == qcode.OpNotIn {
		ctx.w.WriteString(` NOT IN (`)
	} else {
		ctx.w.WriteString(` IN (`)
	}
	for i, el := range ex.List {
		if i != 0 {
			ctx.w.WriteString(`, `)
		}
		if sub, ok := el.(qcode.Subquery); ok {
			sql, params, err := sub.Compile()
			if err != nil {
				return err
			}
			ctx.w.WriteString(`(` + sql + `)`)
			ctx.params = append(ctx.params, params...)
		} else {
			ctx.param(el)
		}
	}
	ctx.w.WriteString(`)`)
	return nil
}

// renderAll emits one containment predicate per element. Every element is
// serialized independently since JSON_CONTAINS takes a JSON candidate.
func (ctx *compilerContext) renderAll(ex *qcode.Exp) error {
	if len(ex.List) == 0 {
		ctx.w.WriteString(truePred)
		return nil
	}
	if len(ex.List) > 1 {
		ctx.w.WriteString(`(`)
	}
	for i, el := range ex.List {
		if i != 0 {
			ctx.w.WriteString(` AND `)
		}
		ctx.w.WriteString(`JSON_CONTAINS(`)
		ctx.w.WriteString(ex.Field)
		ctx.w.WriteString(`, `)
		if err := ctx.jsonParam(el); err != nil {
			return err
		}
		ctx.w.WriteString(`)`)
	}
	if len(ex.List) > 1 {
		ctx.w.WriteString(`)`)
	}
	return nil
}

func (ctx *compilerContext) renderCustom(ex *qcode.Exp) error {
	fn, ok := ctx.c.custom(ex.Name)
	if !ok {
		return &qcode.TranslationError{
			Field:    ex.Field,
			Operator: ex.Name,
			Path:     ex.Path,
			Message:  "unsupported operator",
		}
	}
	sql, params, err := fn(ex.Field, ex.Val)
	if err != nil {
		return &qcode.TranslationError{
			Field:    ex.Field,
			Operator: ex.Name,
			Path:     ex.Path,
			Message:  "custom operator: " + err.Error(),
		}
	}
	ctx.w.WriteString(sql)
	ctx.params = append(ctx.params, params...)
	return nil
}
