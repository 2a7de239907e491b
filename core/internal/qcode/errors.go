package qcode

import (
	"fmt"
	"strings"
)

// TranslationError reports a filter, pipeline or update document the
// compiler cannot express in SQL. Path records the recursion path down the
// input document at the point of failure.
type TranslationError struct {
	Field    string
	Operator string
	Path     []string
	Message  string
}

func (e *TranslationError) Error() string {
	var b strings.Builder
	b.WriteString("translate: ")
	b.WriteString(e.Message)
	if e.Operator != "" {
		fmt.Fprintf(&b, " (operator %s)", e.Operator)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (field %s)", e.Field)
	}
	if len(e.Path) != 0 {
		fmt.Fprintf(&b, " at %s", strings.Join(e.Path, "."))
	}
	return b.String()
}

// SafetyError reports a mutating statement that would run unconstrained,
// such as an update or delete with no filter. It is raised before any SQL
// is produced.
type SafetyError struct {
	Message string
}

func (e *SafetyError) Error() string {
	return "unsafe statement: " + e.Message
}

// ConfigError reports invalid builder usage or engine configuration.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Message
}
