package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementCacheReuse(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	build := func() (Statement, error) {
		return e.BuildSelect("users").
			Query(map[string]any{"age": map[string]any{"$gt": 18}}).
			ToSQL()
	}

	st1, err := build()
	require.NoError(t, err)
	st2, err := build()
	require.NoError(t, err)

	assert.Equal(t, st1, st2)
	assert.Equal(t, 1, e.cache.cache.Len())
}

func TestStatementCacheDistinguishesState(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	_, err = e.BuildSelect("users").Limit(5).ToSQL()
	require.NoError(t, err)
	_, err = e.BuildSelect("users").Limit(6).ToSQL()
	require.NoError(t, err)

	assert.Equal(t, 2, e.cache.cache.Len())
}

func TestStatementCacheDisabled(t *testing.T) {
	e, err := New(&Config{DisableCache: true})
	require.NoError(t, err)
	require.Nil(t, e.cache)

	st, err := e.BuildSelect("users").ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users ORDER BY id DESC LIMIT 10", st.SQL)
}

func TestMutationsNotCached(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	_, err = e.BuildDelete("users").Query(map[string]any{"id": 1}).ToSQL()
	require.NoError(t, err)

	assert.Equal(t, 0, e.cache.cache.Len())
}

func TestConcurrentCompile(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			st, err := e.BuildSelect("users").
				Query(map[string]any{"age": map[string]any{"$gt": n % 4}}).
				ToSQL()
			if err != nil {
				t.Error(err)
				return
			}
			want := "SELECT * FROM users WHERE age > ? ORDER BY id DESC LIMIT 10"
			if st.SQL != want {
				t.Errorf("sql = %q", st.SQL)
			}
			if fmt.Sprint(st.Params) != fmt.Sprint([]any{n % 4}) {
				t.Errorf("params = %#v", st.Params)
			}
		}(i)
	}
	wg.Wait()
}
