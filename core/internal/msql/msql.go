// Package msql renders parsed query values into MySQL text. All rendering
// goes through a compilerContext that writes into one buffer and collects
// parameters in the order their placeholders appear, so the placeholder
// count and the parameter count can never drift apart.
package msql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/dosco/mongosql/core/internal/qcode"
)

const (
	truePred  = `1=1`
	falsePred = `1=0`

	// maxLimit keeps OFFSET syntactically valid when a skip was given
	// without a limit.
	maxLimit = `18446744073709551615`
)

// OperatorFunc is a caller-registered handler for a custom filter operator.
// It returns a SQL fragment and the parameters backing its placeholders.
type OperatorFunc func(field string, operand any) (sql string, params []any, err error)

type Config struct {
	// Custom resolves registered custom-operator handlers by token.
	Custom func(op string) (OperatorFunc, bool)
}

type Compiler struct {
	custom func(op string) (OperatorFunc, bool)
}

func NewCompiler(conf Config) *Compiler {
	c := &Compiler{custom: conf.Custom}
	if c.custom == nil {
		c.custom = func(string) (OperatorFunc, bool) { return nil, false }
	}
	return c
}

type compilerContext struct {
	w *bytes.Buffer
	c *Compiler

	params []any
}

func (c *Compiler) newContext() *compilerContext {
	return &compilerContext{w: &bytes.Buffer{}, c: c}
}

// param writes one placeholder and records its value.
func (ctx *compilerContext) param(v any) {
	ctx.w.WriteString(`?`)
	ctx.params = append(ctx.params, v)
}

// jsonParam writes a placeholder backed by the JSON encoding of v, for
// predicates whose operand MySQL expects as a JSON document.
func (ctx *compilerContext) jsonParam(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode operand")
	}
	ctx.param(string(b))
	return nil
}

func (ctx *compilerContext) result() (string, []any) {
	return ctx.w.String(), ctx.params
}

// storable flattens a document value into something a MySQL driver can bind:
// scalars pass through, composites are serialized to JSON text.
func storable(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, []byte:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode value")
	}
	return string(b), nil
}

// renderOrderBy accepts a raw ORDER BY fragment or a direction map in the
// {field: -1} style. Map keys are sorted for deterministic output.
func renderOrderBy(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case map[string]any:
		parts := make([]string, 0, len(s))
		for _, k := range sortedKeys(s) {
			dir := " ASC"
			if cast.ToInt(s[k]) == -1 {
				dir = " DESC"
			}
			parts = append(parts, k+dir)
		}
		return strings.Join(parts, ", "), nil
	default:
		return "", &qcode.ConfigError{Message: fmt.Sprintf("invalid sort specification %T", v)}
	}
}

// literal renders a constant directly into SQL text, used only for group
// identities and aggregate operands that are not field references.
func literal(v any) string {
	if s, ok := v.(string); ok {
		return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
	}
	return fmt.Sprintf("%v", v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
