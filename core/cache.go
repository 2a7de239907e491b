package core

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mitchellh/hashstructure/v2"
)

// stmtCache holds compiled read statements keyed by a structural hash of
// the builder state that produced them. Mutating statements are never
// cached.
type stmtCache struct {
	cache *lru.TwoQueueCache[uint64, Statement]
}

func newStmtCache(size int) (*stmtCache, error) {
	c, err := lru.New2Q[uint64, Statement](size)
	if err != nil {
		return nil, err
	}
	return &stmtCache{cache: c}, nil
}

func (c *stmtCache) get(key uint64) (Statement, bool) {
	return c.cache.Get(key)
}

func (c *stmtCache) set(key uint64, st Statement) {
	c.cache.Add(key, st)
}

// compileCached runs compile through the statement cache. The key value is
// hashed structurally; when hashing fails, for example because a filter
// embeds a value hashstructure cannot walk, the statement is compiled
// directly and not cached.
func (e *Engine) compileCached(kind, table string, key any, compile func() (string, []any, error)) (Statement, error) {
	var (
		hash     uint64
		useCache bool
	)
	if e.cache != nil {
		if h, err := hashstructure.Hash(key, hashstructure.FormatV2, nil); err == nil {
			hash = h
			useCache = true
			if st, ok := e.cache.get(hash); ok {
				return st, nil
			}
		}
	}

	sql, params, err := compile()
	if err != nil {
		return Statement{}, err
	}
	st := Statement{SQL: sql, Params: params}
	if useCache {
		e.cache.set(hash, st)
	}
	e.debugStatement(kind, table, st)
	return st, nil
}
