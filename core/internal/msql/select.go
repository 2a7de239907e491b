package msql

import (
	"strconv"
	"strings"

	"github.com/dosco/mongosql/core/internal/qcode"
)

// Join is one resolved join clause of a select.
type Join struct {
	Table string
	Alias string
	Type  string // LEFT, INNER, ...
	On    string
}

func (j Join) alias() string {
	if j.Alias != "" {
		return j.Alias
	}
	return j.Table
}

type SelectSpec struct {
	Table   string
	Columns []string
	Joins   []Join
	Filter  *qcode.Exp
	Sort    any
	Limit   uint64
	Offset  uint64

	HasLimit  bool
	HasOffset bool

	DefaultLimit uint64
	IDColumn     string
}

// CompileSelect assembles a SELECT statement. Default paging applies when
// the caller gave no explicit sort or limit: newest rows first by the
// identity column, capped at the configured default. A skip without a limit
// uses the MySQL max-rows sentinel so OFFSET stays valid.
func (c *Compiler) CompileSelect(sel SelectSpec) (string, []any, error) {
	ctx := c.newContext()

	ctx.w.WriteString(`SELECT `)
	ctx.w.WriteString(renderColumns(sel))
	ctx.w.WriteString(` FROM `)
	ctx.w.WriteString(sel.Table)

	for _, j := range sel.Joins {
		ctx.w.WriteString(` `)
		ctx.w.WriteString(renderJoin(j))
	}

	if sel.Filter != nil {
		ctx.w.WriteString(` WHERE `)
		if err := ctx.renderExp(sel.Filter); err != nil {
			return "", nil, err
		}
	}

	ob, err := renderOrderBy(sel.Sort)
	if err != nil {
		return "", nil, err
	}
	if ob == "" {
		ob = sel.IDColumn + ` DESC`
	}
	ctx.w.WriteString(` ORDER BY `)
	ctx.w.WriteString(ob)

	ctx.w.WriteString(` LIMIT `)
	switch {
	case sel.HasLimit:
		ctx.w.WriteString(strconv.FormatUint(sel.Limit, 10))
	case sel.HasOffset:
		ctx.w.WriteString(maxLimit)
	default:
		ctx.w.WriteString(strconv.FormatUint(sel.DefaultLimit, 10))
	}

	if sel.HasOffset {
		ctx.w.WriteString(` OFFSET `)
		ctx.w.WriteString(strconv.FormatUint(sel.Offset, 10))
	}

	sql, params := ctx.result()
	return sql, params, nil
}

// renderColumns emits the projection list. Without joins, columns pass
// through verbatim. With joins, a dotted reference that resolves to a join
// alias passes through and everything else is qualified with the base table.
func renderColumns(sel SelectSpec) string {
	if len(sel.Columns) == 0 {
		return `*`
	}
	if len(sel.Joins) == 0 {
		return strings.Join(sel.Columns, `, `)
	}

	aliases := make(map[string]bool, len(sel.Joins))
	for _, j := range sel.Joins {
		aliases[j.alias()] = true
	}

	cols := make([]string, len(sel.Columns))
	for i, col := range sel.Columns {
		if dot := strings.IndexByte(col, '.'); dot != -1 {
			if aliases[col[:dot]] {
				cols[i] = col
			} else {
				cols[i] = sel.Table + `.` + col[dot+1:]
			}
		} else {
			cols[i] = sel.Table + `.` + col
		}
	}
	return strings.Join(cols, `, `)
}

func renderJoin(j Join) string {
	typ := strings.ToUpper(strings.TrimSpace(j.Type))
	if typ == "" {
		typ = `LEFT`
	}
	return typ + ` JOIN ` + j.Table + ` AS ` + j.alias() + ` ON ` + j.On
}
