package qcode

// ExpOp identifies the shape of a filter expression node. The shape of every
// node is decided once, at parse time; the SQL renderer switches over the tag
// and never re-inspects raw input values.
type ExpOp int8

const (
	OpNop ExpOp = iota
	OpAnd
	OpOr
	OpNor
	OpEquals
	OpNotEquals
	OpGreaterThan
	OpGreaterOrEquals
	OpLesserThan
	OpLesserOrEquals
	OpIn
	OpNotIn
	OpAll
	OpExists
	OpSize
	OpElemMatch
	OpRegex
	OpLike
	OpSubquery
	OpCustom
	OpTrue
	OpFalse
)

// operatorTable is the static mapping from operator tokens to expression
// tags. Caller-registered custom operators are resolved before this table is
// consulted.
var operatorTable = map[string]ExpOp{
	"$eq":        OpEquals,
	"$ne":        OpNotEquals,
	"$gt":        OpGreaterThan,
	"$gte":       OpGreaterOrEquals,
	"$lt":        OpLesserThan,
	"$lte":       OpLesserOrEquals,
	"$in":        OpIn,
	"$nin":       OpNotIn,
	"$all":       OpAll,
	"$exists":    OpExists,
	"$size":      OpSize,
	"$elemMatch": OpElemMatch,
	"$regex":     OpRegex,
	"$like":      OpLike,
}

var logicalTable = map[string]ExpOp{
	"$and": OpAnd,
	"$or":  OpOr,
	"$nor": OpNor,
}

// Subquery is a nested statement whose compiled SQL is embedded as an
// IN (...) operand inside a parent filter. Compile must derive the SQL text
// and the parameter list from the same translation pass so the two always
// line up.
type Subquery interface {
	Compile() (sql string, params []any, err error)
}

// Exp is one node of a parsed filter tree.
//
// For OpAnd the Name field doubles as a group marker: "$and" marks an
// explicit logical group whose children are parenthesized individually, a
// field name marks a multi-operator group on one field which is
// parenthesized as a whole, and "" marks the implicit conjunction of a
// multi-key filter document which is emitted without parentheses.
type Exp struct {
	Op       ExpOp
	Name     string // operator token as written, used for diagnostics and custom dispatch
	Field    string
	Val      any
	List     []any // operands for OpIn, OpNotIn, OpAll; elements may be Subquery
	Sub      Subquery
	Children []*Exp
	Path     []string
}
