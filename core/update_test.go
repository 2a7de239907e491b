package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildUpdate(t *testing.T) {
	tests := []struct {
		name   string
		build  func() *UpdateQuery
		sql    string
		params []any
	}{
		{
			name: "Set",
			build: func() *UpdateQuery {
				return BuildUpdate("users").
					Query(map[string]any{"id": 5}).
					Update(map[string]any{"$set": map[string]any{"name": "Ann"}})
			},
			sql:    "UPDATE users SET name = ? WHERE id = ?",
			params: []any{"Ann", 5},
		},
		{
			name: "Plain Document Is Set Shorthand",
			build: func() *UpdateQuery {
				return BuildUpdate("users").
					Query(map[string]any{"id": 5}).
					Update(map[string]any{"name": "Ann", "age": 30})
			},
			sql:    "UPDATE users SET age = ?, name = ? WHERE id = ?",
			params: []any{30, "Ann", 5},
		},
		{
			name: "Inc And Mul And Unset",
			build: func() *UpdateQuery {
				return BuildUpdate("users").
					Query(map[string]any{"id": 5}).
					Update(map[string]any{
						"$inc":   map[string]any{"age": 1},
						"$mul":   map[string]any{"score": 2},
						"$unset": map[string]any{"bio": ""},
					})
			},
			sql:    "UPDATE users SET age = age + ?, score = score * ?, bio = NULL WHERE id = ?",
			params: []any{1, 2, 5},
		},
		{
			name: "Single Adds Limit",
			build: func() *UpdateQuery {
				return BuildUpdate("users").
					Query(map[string]any{"active": false}).
					Update(map[string]any{"$set": map[string]any{"active": true}}).
					Single()
			},
			sql:    "UPDATE users SET active = ? WHERE active = ? LIMIT 1",
			params: []any{true, false},
		},
		{
			name: "Bulk Case Form",
			build: func() *UpdateQuery {
				return BuildUpdate("users").Update([]map[string]any{
					{"id": 1, "name": "Carol", "age": 25},
					{"id": 2, "name": "Dave", "age": 28},
				})
			},
			sql: "UPDATE users SET " +
				"age = CASE id WHEN ? THEN ? WHEN ? THEN ? ELSE age END, " +
				"name = CASE id WHEN ? THEN ? WHEN ? THEN ? ELSE name END " +
				"WHERE id IN (?, ?)",
			params: []any{1, 25, 2, 28, 1, "Carol", 2, "Dave", 1, 2},
		},
		{
			name: "Bulk With Extra Filter",
			build: func() *UpdateQuery {
				return BuildUpdate("users").
					Query(map[string]any{"active": true}).
					Update([]map[string]any{{"id": 1, "name": "Carol"}})
			},
			sql:    "UPDATE users SET name = CASE id WHEN ? THEN ? ELSE name END WHERE id IN (?) AND (active = ?)",
			params: []any{1, "Carol", 1, true},
		},
		{
			name: "Bulk With Custom Identity Column",
			build: func() *UpdateQuery {
				return BuildUpdate("accounts", "uuid").Update([]map[string]any{
					{"uuid": "a1", "balance": 10},
				})
			},
			sql:    "UPDATE accounts SET balance = CASE uuid WHEN ? THEN ? ELSE balance END WHERE uuid IN (?)",
			params: []any{"a1", 10, "a1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := tt.build().ToSQL()
			if err != nil {
				t.Fatalf("ToSQL() error: %v", err)
			}
			if st.SQL != tt.sql {
				t.Errorf("sql = %q, want %q", st.SQL, tt.sql)
			}
			if !reflect.DeepEqual(st.Params, tt.params) {
				t.Errorf("params = %#v, want %#v", st.Params, tt.params)
			}
		})
	}
}

func TestBuildUpdateErrors(t *testing.T) {
	t.Run("Missing Filter", func(t *testing.T) {
		_, err := BuildUpdate("users").
			Update(map[string]any{"$set": map[string]any{"name": "x"}}).
			ToSQL()
		var serr *SafetyError
		if !errors.As(err, &serr) {
			t.Fatalf("expected a SafetyError, got %v", err)
		}
	})

	t.Run("Mixed Operator And Field Keys", func(t *testing.T) {
		_, err := BuildUpdate("users").
			Query(map[string]any{"id": 1}).
			Update(map[string]any{"name": "x", "$inc": map[string]any{"age": 1}}).
			ToSQL()
		var terr *TranslationError
		if !errors.As(err, &terr) {
			t.Fatalf("expected a TranslationError, got %v", err)
		}
	})

	t.Run("Unknown Update Operator", func(t *testing.T) {
		_, err := BuildUpdate("users").
			Query(map[string]any{"id": 1}).
			Update(map[string]any{"$rename": map[string]any{"a": "b"}}).
			ToSQL()
		var terr *TranslationError
		if !errors.As(err, &terr) {
			t.Fatalf("expected a TranslationError, got %v", err)
		}
		if terr.Operator != "$rename" {
			t.Errorf("operator = %q", terr.Operator)
		}
	})

	t.Run("Bulk Document Missing Identity", func(t *testing.T) {
		_, err := BuildUpdate("users").
			Update([]map[string]any{{"name": "Carol"}}).
			ToSQL()
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("expected a ConfigError, got %v", err)
		}
	})

	t.Run("No Update Document", func(t *testing.T) {
		_, err := BuildUpdate("users").Query(map[string]any{"id": 1}).ToSQL()
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("expected a ConfigError, got %v", err)
		}
	})
}

func TestBuildDelete(t *testing.T) {
	st, err := BuildDelete("users").
		Query(map[string]any{"status": "inactive"}).
		ToSQL()
	if err != nil {
		t.Fatal(err)
	}
	if st.SQL != "DELETE FROM users WHERE status = ?" {
		t.Errorf("sql = %q", st.SQL)
	}
	if !reflect.DeepEqual(st.Params, []any{"inactive"}) {
		t.Errorf("params = %#v", st.Params)
	}

	st, err = BuildDelete("users").
		Query(map[string]any{"id": 9}).
		Single().
		ToSQL()
	if err != nil {
		t.Fatal(err)
	}
	if st.SQL != "DELETE FROM users WHERE id = ? LIMIT 1" {
		t.Errorf("sql = %q", st.SQL)
	}
}

func TestBuildDeleteMissingFilter(t *testing.T) {
	_, err := BuildDelete("users").ToSQL()
	var serr *SafetyError
	if !errors.As(err, &serr) {
		t.Fatalf("expected a SafetyError, got %v", err)
	}
}
