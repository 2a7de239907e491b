// Package core translates MongoDB-style filter documents and aggregation
// pipelines into parameterized MySQL statements. It never connects to a
// database: every builder compiles down to a Statement holding SQL text with
// ? placeholders and the matching ordered parameter list.
//
// Example usage:
//
//	st, err := core.BuildSelect("users").
//		Query(map[string]any{"age": map[string]any{"$gt": 18}}).
//		ToSQL()
//	// st.SQL    == "SELECT * FROM users WHERE age > ? ORDER BY id DESC LIMIT 10"
//	// st.Params == []any{18}
package core

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dosco/mongosql/core/internal/msql"
	"github.com/dosco/mongosql/core/internal/qcode"
)

// Statement is a compiled SQL statement. Params holds one value per ?
// placeholder, in placeholder order.
type Statement struct {
	SQL    string
	Params []any
}

// Engine compiles statements against one configuration. It is safe for
// concurrent use; the builders it hands out are not, each one belongs to a
// single goroutine until ToSQL.
type Engine struct {
	conf  *Config
	log   *zap.Logger
	reg   *OperatorRegistry
	cache *stmtCache

	qc *qcode.Compiler
	sc *msql.Compiler
}

// New creates an engine. A nil config uses the defaults.
func New(conf *Config, options ...Option) (*Engine, error) {
	if conf == nil {
		conf = &Config{}
	}
	conf.setDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		conf: conf,
		log:  zap.NewNop(),
		reg:  defaultRegistry,
	}
	for _, op := range options {
		if err := op(e); err != nil {
			return nil, err
		}
	}

	e.qc = qcode.NewCompiler(qcode.Config{IsCustomOp: e.reg.Has})
	e.sc = msql.NewCompiler(msql.Config{Custom: e.lookupOperator})

	if !conf.DisableCache {
		cache, err := newStmtCache(conf.CacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = cache
	}
	return e, nil
}

func (e *Engine) lookupOperator(op string) (msql.OperatorFunc, bool) {
	fn, ok := e.reg.Lookup(op)
	if !ok {
		return nil, false
	}
	return msql.OperatorFunc(fn), true
}

// TranslateFilter compiles a filter document into a WHERE fragment and its
// parameters. An empty filter yields an empty fragment.
func (e *Engine) TranslateFilter(filter map[string]any) (string, []any, error) {
	ex, err := e.qc.ParseFilter(filter)
	if err != nil {
		return "", nil, err
	}
	sql, params, err := e.sc.CompileFilter(ex)
	if err != nil {
		return "", nil, err
	}
	if e.conf.Debug {
		e.log.Debug("translated filter", zap.String("sql", sql), zap.Int("params", len(params)))
	}
	return sql, params, nil
}

// TranslateFilterJSON unmarshals a JSON filter document and translates it.
func (e *Engine) TranslateFilterJSON(b []byte) (string, []any, error) {
	var filter map[string]any
	if err := json.Unmarshal(b, &filter); err != nil {
		return "", nil, errors.Wrap(err, "decode filter")
	}
	return e.TranslateFilter(filter)
}

func (e *Engine) debugStatement(kind, table string, st Statement) {
	if !e.conf.Debug {
		return
	}
	e.log.Debug("compiled statement",
		zap.String("kind", kind),
		zap.String("table", table),
		zap.String("sql", st.SQL),
		zap.Int("params", len(st.Params)))
}

var (
	defEngine *Engine
	defOnce   sync.Once
)

func def() *Engine {
	defOnce.Do(func() {
		// Defaults cannot fail validation.
		defEngine, _ = New(nil)
	})
	return defEngine
}

// TranslateFilter compiles a filter document with the default engine.
func TranslateFilter(filter map[string]any) (string, []any, error) {
	return def().TranslateFilter(filter)
}

// TranslateFilterJSON compiles a JSON filter document with the default engine.
func TranslateFilterJSON(b []byte) (string, []any, error) {
	return def().TranslateFilterJSON(b)
}

// BuildSelect starts a select builder on the default engine.
func BuildSelect(table string) *SelectQuery { return def().BuildSelect(table) }

// BuildAggregation starts an aggregation builder on the default engine.
func BuildAggregation(table string) *AggregateQuery { return def().BuildAggregation(table) }

// BuildInsert starts an insert builder on the default engine.
func BuildInsert(table string) *InsertQuery { return def().BuildInsert(table) }

// BuildUpdate starts an update builder on the default engine. The optional
// second argument overrides the identity column used by bulk updates.
func BuildUpdate(table string, idColumn ...string) *UpdateQuery {
	return def().BuildUpdate(table, idColumn...)
}

// BuildDelete starts a delete builder on the default engine.
func BuildDelete(table string) *DeleteQuery { return def().BuildDelete(table) }
