// Package qcode parses MongoDB-style filter documents, aggregation stages
// and update documents into typed values the SQL renderer consumes. Parsing
// happens exactly once per input; everything downstream works on tagged
// structs, never on raw maps.
package qcode

import (
	"reflect"
	"sort"
	"strings"
)

type Config struct {
	// IsCustomOp reports whether a caller-registered handler exists for an
	// operator token. Custom operators win over built-ins of the same name.
	IsCustomOp func(op string) bool
}

type Compiler struct {
	isCustom func(op string) bool
}

func NewCompiler(conf Config) *Compiler {
	co := &Compiler{isCustom: conf.IsCustomOp}
	if co.isCustom == nil {
		co.isCustom = func(string) bool { return false }
	}
	return co
}

// ParseFilter turns a filter document into an expression tree. An empty or
// nil filter parses to nil, which renders as the absence of a WHERE clause.
// Map keys are visited in sorted order so output is deterministic.
func (co *Compiler) ParseFilter(filter map[string]any) (*Exp, error) {
	return co.parseFilter(filter, nil)
}

func (co *Compiler) parseFilter(filter map[string]any, path []string) (*Exp, error) {
	if len(filter) == 0 {
		return nil, nil
	}

	children := make([]*Exp, 0, len(filter))
	for _, k := range sortedKeys(filter) {
		ex, err := co.parseKey(k, filter[k], pathTo(path, k))
		if err != nil {
			return nil, err
		}
		children = append(children, ex)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &Exp{Op: OpAnd, Children: children, Path: path}, nil
}

func (co *Compiler) parseKey(k string, v any, path []string) (*Exp, error) {
	if op, ok := logicalTable[k]; ok {
		return co.parseLogical(k, op, v, path)
	}

	if sub, ok := v.(Subquery); ok {
		return &Exp{Op: OpSubquery, Field: k, Sub: sub, Path: path}, nil
	}

	if m, ok := v.(map[string]any); ok && len(m) != 0 {
		return co.parseOperand(k, m, path)
	}

	// Scalars, arrays, null and the empty object all compare literally.
	return &Exp{Op: OpEquals, Name: "$eq", Field: k, Val: v, Path: path}, nil
}

func (co *Compiler) parseLogical(tok string, op ExpOp, v any, path []string) (*Exp, error) {
	list, ok := anySlice(v)
	if !ok {
		return nil, &TranslationError{
			Operator: tok,
			Path:     path,
			Message:  "logical operator expects an array of filters",
		}
	}

	children := make([]*Exp, 0, len(list))
	for _, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			return nil, &TranslationError{
				Operator: tok,
				Path:     path,
				Message:  "logical operator elements must be filter documents",
			}
		}
		child, err := co.parseFilter(m, path)
		if err != nil {
			return nil, err
		}
		if child == nil {
			child = &Exp{Op: OpTrue, Path: path}
		}
		children = append(children, child)
	}
	return &Exp{Op: op, Name: tok, Children: children, Path: path}, nil
}

// parseOperand handles a field whose value is a document: each $-prefixed
// entry is an operator application on the field, anything else is an
// implicit equality condition of its own. Multiple entries form a
// parenthesized AND group.
func (co *Compiler) parseOperand(field string, m map[string]any, path []string) (*Exp, error) {
	children := make([]*Exp, 0, len(m))
	for _, ek := range sortedKeys(m) {
		var (
			ex  *Exp
			err error
		)
		if strings.HasPrefix(ek, "$") {
			ex, err = co.applyOperator(field, ek, m[ek], pathTo(path, ek))
		} else {
			ex = &Exp{Op: OpEquals, Name: "$eq", Field: ek, Val: m[ek], Path: pathTo(path, ek)}
		}
		if err != nil {
			return nil, err
		}
		children = append(children, ex)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &Exp{Op: OpAnd, Name: field, Children: children, Path: path}, nil
}

func (co *Compiler) applyOperator(field, op string, v any, path []string) (*Exp, error) {
	if co.isCustom(op) {
		return &Exp{Op: OpCustom, Name: op, Field: field, Val: v, Path: path}, nil
	}

	if sub, ok := v.(Subquery); ok {
		return &Exp{Op: OpSubquery, Name: op, Field: field, Sub: sub, Path: path}, nil
	}

	tag, ok := operatorTable[op]
	if !ok {
		return nil, &TranslationError{
			Field:    field,
			Operator: op,
			Path:     path,
			Message:  "unsupported operator",
		}
	}

	ex := &Exp{Op: tag, Name: op, Field: field, Path: path}
	switch tag {
	case OpIn, OpNotIn, OpAll:
		list, ok := anySlice(v)
		if !ok {
			return nil, &TranslationError{
				Field:    field,
				Operator: op,
				Path:     path,
				Message:  "operator expects an array operand",
			}
		}
		ex.List = list
	default:
		ex.Val = v
	}
	return ex, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pathTo(path []string, k string) []string {
	np := make([]string, 0, len(path)+1)
	np = append(np, path...)
	return append(np, k)
}

// anySlice normalizes any slice-typed value to []any so callers can hand in
// []string, []int or similar without pre-conversion.
func anySlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	l := make([]any, rv.Len())
	for i := range l {
		l[i] = rv.Index(i).Interface()
	}
	return l, true
}
