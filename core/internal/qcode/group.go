package qcode

type GroupIDKind int8

const (
	GroupIDNone GroupIDKind = iota
	GroupIDField
	GroupIDComposite
	GroupIDLiteral
)

// GroupID is the parsed _id of a $group stage: a single field reference, a
// composite mapping, a constant, or null.
type GroupID struct {
	Kind    GroupIDKind
	Field   string
	Fields  []string // composite form, ordered by output name
	Literal any
}

// Aggregate is one accumulator entry of a $group stage, e.g.
// total: {$sum: "$amount"}.
type Aggregate struct {
	Name    string
	Func    string // SUM, AVG, MIN, MAX
	Operand any
}

type GroupSpec struct {
	ID         GroupID
	Aggregates []Aggregate
}

var aggregateTable = map[string]string{
	"$sum": "SUM",
	"$avg": "AVG",
	"$min": "MIN",
	"$max": "MAX",
}

// ParseGroup validates a $group stage document. Accumulator entries are
// ordered by output name so the emitted select list is deterministic.
func ParseGroup(spec map[string]any) (*GroupSpec, error) {
	g := &GroupSpec{}

	id, hasID := spec["_id"]
	switch {
	case !hasID || id == nil:
		g.ID.Kind = GroupIDNone
	default:
		switch v := id.(type) {
		case string:
			if f, ok := FieldRef(v); ok {
				g.ID.Kind = GroupIDField
				g.ID.Field = f
			} else {
				g.ID.Kind = GroupIDLiteral
				g.ID.Literal = v
			}
		case map[string]any:
			g.ID.Kind = GroupIDComposite
			for _, k := range sortedKeys(v) {
				s, ok := v[k].(string)
				if !ok {
					return nil, &TranslationError{
						Field:    k,
						Operator: "$group",
						Message:  "composite _id entries must be field references",
					}
				}
				f, _ := FieldRef(s)
				g.ID.Fields = append(g.ID.Fields, f)
			}
		default:
			g.ID.Kind = GroupIDLiteral
			g.ID.Literal = id
		}
	}

	for _, name := range sortedKeys(spec) {
		if name == "_id" {
			continue
		}
		acc, ok := spec[name].(map[string]any)
		if !ok || len(acc) != 1 {
			return nil, &TranslationError{
				Field:    name,
				Operator: "$group",
				Message:  "accumulator must be a single-operator document",
			}
		}
		for op, operand := range acc {
			fn, ok := aggregateTable[op]
			if !ok {
				return nil, &TranslationError{
					Field:    name,
					Operator: op,
					Message:  "unsupported aggregate operator",
				}
			}
			g.Aggregates = append(g.Aggregates, Aggregate{Name: name, Func: fn, Operand: operand})
		}
	}
	return g, nil
}

// FieldRef strips the $ prefix off an aggregation field reference. The
// second return reports whether the string was a reference at all.
func FieldRef(s string) (string, bool) {
	if len(s) > 1 && s[0] == '$' {
		return s[1:], true
	}
	return s, false
}
