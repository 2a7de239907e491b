package core

import "strings"

// OperatorFunc handles a custom filter operator. It receives the field the
// operator was applied to and the raw operand, and returns a SQL fragment
// plus the parameters backing its placeholders.
type OperatorFunc func(field string, operand any) (sql string, params []any, err error)

// OperatorRegistry maps operator tokens to handlers. Registration must
// happen before the registry is used for translation; lookups during
// translation take no lock.
type OperatorRegistry struct {
	ops map[string]OperatorFunc
}

func NewOperatorRegistry() *OperatorRegistry {
	return &OperatorRegistry{ops: make(map[string]OperatorFunc)}
}

// Register binds a handler to an operator token. The $ sigil is added if
// missing, so "fuzzy" and "$fuzzy" register the same operator. Custom
// operators shadow built-ins of the same name.
func (r *OperatorRegistry) Register(op string, fn OperatorFunc) {
	if !strings.HasPrefix(op, "$") {
		op = "$" + op
	}
	r.ops[op] = fn
}

func (r *OperatorRegistry) Has(op string) bool {
	_, ok := r.ops[op]
	return ok
}

func (r *OperatorRegistry) Lookup(op string) (OperatorFunc, bool) {
	fn, ok := r.ops[op]
	return fn, ok
}

var defaultRegistry = NewOperatorRegistry()

// RegisterOperator adds a custom operator to the process-wide registry used
// by every engine that was not given its own with OptionSetRegistry.
func RegisterOperator(op string, fn OperatorFunc) {
	defaultRegistry.Register(op, fn)
}
