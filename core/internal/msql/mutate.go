package msql

import (
	"fmt"

	"github.com/dosco/mongosql/core/internal/qcode"
)

type InsertSpec struct {
	Table string
	Docs  []map[string]any

	Upsert     bool
	UpsertCols []string // defaults to every inserted column
}

// CompileInsert emits a multi-row INSERT. Columns come from the first
// document in sorted order and every document must supply all of them. The
// upsert form appends ON DUPLICATE KEY UPDATE with col = VALUES(col)
// assignments.
func (c *Compiler) CompileInsert(ins InsertSpec) (string, []any, error) {
	if len(ins.Docs) == 0 {
		return "", nil, &qcode.SafetyError{Message: "insert requires at least one document"}
	}
	cols := sortedKeys(ins.Docs[0])
	if len(cols) == 0 {
		return "", nil, &qcode.ConfigError{Message: "insert document has no columns"}
	}

	ctx := c.newContext()
	ctx.w.WriteString(`INSERT INTO `)
	ctx.w.WriteString(ins.Table)
	ctx.w.WriteString(` (`)
	for i, col := range cols {
		if i != 0 {
			ctx.w.WriteString(`, `)
		}
		ctx.w.WriteString(col)
	}
	ctx.w.WriteString(`) VALUES `)

	for di, doc := range ins.Docs {
		if di != 0 {
			ctx.w.WriteString(`, `)
		}
		ctx.w.WriteString(`(`)
		for ci, col := range cols {
			if ci != 0 {
				ctx.w.WriteString(`, `)
			}
			v, ok := doc[col]
			if !ok {
				return "", nil, &qcode.ConfigError{
					Message: fmt.Sprintf("insert document %d is missing column %q", di, col),
				}
			}
			sv, err := storable(v)
			if err != nil {
				return "", nil, err
			}
			ctx.param(sv)
		}
		ctx.w.WriteString(`)`)
	}

	if ins.Upsert {
		upCols := ins.UpsertCols
		if len(upCols) == 0 {
			upCols = cols
		}
		ctx.w.WriteString(` ON DUPLICATE KEY UPDATE `)
		for i, col := range upCols {
			if i != 0 {
				ctx.w.WriteString(`, `)
			}
			ctx.w.WriteString(col + ` = VALUES(` + col + `)`)
		}
	}

	sql, params := ctx.result()
	return sql, params, nil
}

type UpdateSpec struct {
	Table    string
	IDColumn string

	Ops    []qcode.UpdateOp // operator-document form
	Docs   []map[string]any // bulk per-row form
	Filter *qcode.Exp
	Single bool
}

func (c *Compiler) CompileUpdate(u UpdateSpec) (string, []any, error) {
	if len(u.Docs) != 0 {
		return c.compileBulkUpdate(u)
	}

	if u.Filter == nil {
		return "", nil, &qcode.SafetyError{Message: "update requires a filter"}
	}

	ctx := c.newContext()
	ctx.w.WriteString(`UPDATE `)
	ctx.w.WriteString(u.Table)
	ctx.w.WriteString(` SET `)

	for i, op := range u.Ops {
		if i != 0 {
			ctx.w.WriteString(`, `)
		}
		ctx.w.WriteString(op.Col)
		switch op.Kind {
		case qcode.UpdateSet:
			ctx.w.WriteString(` = `)
			sv, err := storable(op.Val)
			if err != nil {
				return "", nil, err
			}
			ctx.param(sv)
		case qcode.UpdateInc:
			ctx.w.WriteString(` = ` + op.Col + ` + `)
			ctx.param(op.Val)
		case qcode.UpdateMul:
			ctx.w.WriteString(` = ` + op.Col + ` * `)
			ctx.param(op.Val)
		case qcode.UpdateUnset:
			ctx.w.WriteString(` = NULL`)
		}
	}

	ctx.w.WriteString(` WHERE `)
	if err := ctx.renderExp(u.Filter); err != nil {
		return "", nil, err
	}
	if u.Single {
		ctx.w.WriteString(` LIMIT 1`)
	}

	sql, params := ctx.result()
	return sql, params, nil
}

// compileBulkUpdate emits the single-statement bulk form: one CASE over the
// identity column per updated column, restricted to the identity values the
// documents carry. Columns are ordered by first appearance across the
// documents, keys within each document visited sorted.
func (c *Compiler) compileBulkUpdate(u UpdateSpec) (string, []any, error) {
	type cell struct {
		id  any
		val any
	}

	var (
		cols  []string
		byCol = map[string][]cell{}
		ids   []any
	)
	for i, doc := range u.Docs {
		id, ok := doc[u.IDColumn]
		if !ok {
			return "", nil, &qcode.ConfigError{
				Message: fmt.Sprintf("bulk update document %d is missing identity column %q", i, u.IDColumn),
			}
		}
		ids = append(ids, id)
		for _, col := range sortedKeys(doc) {
			if col == u.IDColumn {
				continue
			}
			if _, seen := byCol[col]; !seen {
				cols = append(cols, col)
			}
			byCol[col] = append(byCol[col], cell{id: id, val: doc[col]})
		}
	}
	if len(cols) == 0 {
		return "", nil, &qcode.ConfigError{Message: "bulk update documents carry no columns to set"}
	}

	ctx := c.newContext()
	ctx.w.WriteString(`UPDATE `)
	ctx.w.WriteString(u.Table)
	ctx.w.WriteString(` SET `)

	for i, col := range cols {
		if i != 0 {
			ctx.w.WriteString(`, `)
		}
		ctx.w.WriteString(col + ` = CASE ` + u.IDColumn)
		for _, cl := range byCol[col] {
			ctx.w.WriteString(` WHEN `)
			ctx.param(cl.id)
			ctx.w.WriteString(` THEN `)
			sv, err := storable(cl.val)
			if err != nil {
				return "", nil, err
			}
			ctx.param(sv)
		}
		ctx.w.WriteString(` ELSE ` + col + ` END`)
	}

	ctx.w.WriteString(` WHERE ` + u.IDColumn + ` IN (`)
	for i, id := range ids {
		if i != 0 {
			ctx.w.WriteString(`, `)
		}
		ctx.param(id)
	}
	ctx.w.WriteString(`)`)

	if u.Filter != nil {
		sub := c.newContext()
		if err := sub.renderExp(u.Filter); err != nil {
			return "", nil, err
		}
		frag, params := sub.result()
		if frag != "" && frag != truePred {
			ctx.w.WriteString(` AND (` + frag + `)`)
			ctx.params = append(ctx.params, params...)
		}
	}
	if u.Single {
		ctx.w.WriteString(` LIMIT 1`)
	}

	sql, params := ctx.result()
	return sql, params, nil
}

type DeleteSpec struct {
	Table  string
	Filter *qcode.Exp
	Single bool
}

func (c *Compiler) CompileDelete(d DeleteSpec) (string, []any, error) {
	if d.Filter == nil {
		return "", nil, &qcode.SafetyError{Message: "delete requires a filter"}
	}

	ctx := c.newContext()
	ctx.w.WriteString(`DELETE FROM `)
	ctx.w.WriteString(d.Table)
	ctx.w.WriteString(` WHERE `)
	if err := ctx.renderExp(d.Filter); err != nil {
		return "", nil, err
	}
	if d.Single {
		ctx.w.WriteString(` LIMIT 1`)
	}

	sql, params := ctx.result()
	return sql, params, nil
}
