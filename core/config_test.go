package core

import (
	"errors"
	"testing"
)

func TestNewConfig(t *testing.T) {
	conf, err := NewConfig([]byte(`
default_limit: 25
id_column: uid
cache_size: 64
debug: true
`))
	if err != nil {
		t.Fatal(err)
	}

	e, err := New(conf)
	if err != nil {
		t.Fatal(err)
	}

	st, err := e.BuildSelect("users").ToSQL()
	if err != nil {
		t.Fatal(err)
	}
	if st.SQL != "SELECT * FROM users ORDER BY uid DESC LIMIT 25" {
		t.Errorf("sql = %q", st.SQL)
	}
}

func TestNewConfigInvalidYAML(t *testing.T) {
	if _, err := NewConfig([]byte("default_limit: [")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestConfigValidation(t *testing.T) {
	_, err := New(&Config{DefaultLimit: -1})
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a ConfigError, got %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	e, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.conf.DefaultLimit != 10 || e.conf.IDColumn != "id" || e.conf.CacheSize != 512 {
		t.Errorf("unexpected defaults: %+v", e.conf)
	}
	if e.cache == nil {
		t.Error("cache should be enabled by default")
	}
}
