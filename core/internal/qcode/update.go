package qcode

import "strings"

type UpdateKind int8

const (
	UpdateSet UpdateKind = iota
	UpdateInc
	UpdateMul
	UpdateUnset
)

// UpdateOp is one column assignment of an UPDATE statement.
type UpdateOp struct {
	Col  string
	Kind UpdateKind
	Val  any
}

var updateTable = map[string]UpdateKind{
	"$set":   UpdateSet,
	"$inc":   UpdateInc,
	"$mul":   UpdateMul,
	"$unset": UpdateUnset,
}

// ParseUpdate turns an update document into an ordered list of column
// assignments. A document whose keys all carry the operator sigil is treated
// operator by operator; a plain document is shorthand for $set. Mixing the
// two forms is an error. Operator tokens and columns are visited in sorted
// order.
func ParseUpdate(doc map[string]any) ([]UpdateOp, error) {
	if len(doc) == 0 {
		return nil, &TranslationError{Message: "empty update document"}
	}

	var opKeys, plainKeys int
	for k := range doc {
		if strings.HasPrefix(k, "$") {
			opKeys++
		} else {
			plainKeys++
		}
	}
	if opKeys != 0 && plainKeys != 0 {
		return nil, &TranslationError{Message: "update document mixes operator and field keys"}
	}

	if opKeys == 0 {
		doc = map[string]any{"$set": doc}
	}

	var ops []UpdateOp
	for _, tok := range sortedKeys(doc) {
		kind, ok := updateTable[tok]
		if !ok {
			return nil, &TranslationError{
				Operator: tok,
				Message:  "unsupported update operator",
			}
		}
		fields, ok := doc[tok].(map[string]any)
		if !ok || len(fields) == 0 {
			return nil, &TranslationError{
				Operator: tok,
				Message:  "update operator expects a document of columns",
			}
		}
		for _, col := range sortedKeys(fields) {
			ops = append(ops, UpdateOp{Col: col, Kind: kind, Val: fields[col]})
		}
	}
	return ops, nil
}
