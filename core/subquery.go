package core

import "github.com/mitchellh/hashstructure/v2"

// Subquery wraps a select builder so its compiled SQL can be embedded as an
// IN (...) operand inside another filter. The wrapped builder is compiled
// lazily on first use and the result is kept; SQL and parameters always come
// from that single pass. Mutating the wrapped builder after the first
// compilation has no effect, by the same token a Subquery must not be shared
// across goroutines.
type Subquery struct {
	q    *SelectQuery
	stmt *Statement
	err  error
}

// WrapSubquery makes a select builder embeddable in filters.
func WrapSubquery(q *SelectQuery) *Subquery {
	return &Subquery{q: q}
}

// Compile returns the wrapped builder's SQL and parameters.
func (s *Subquery) Compile() (string, []any, error) {
	if s.stmt == nil && s.err == nil {
		st, err := s.q.ToSQL()
		if err != nil {
			s.err = err
		} else {
			s.stmt = &st
		}
	}
	if s.err != nil {
		return "", nil, s.err
	}
	return s.stmt.SQL, s.stmt.Params, nil
}

// Hash implements hashstructure.Hashable so filters embedding subqueries
// stay usable as statement-cache keys.
func (s *Subquery) Hash() (uint64, error) {
	sql, params, err := s.Compile()
	if err != nil {
		return 0, err
	}
	return hashstructure.Hash(struct {
		SQL    string
		Params []any
	}{sql, params}, hashstructure.FormatV2, nil)
}
