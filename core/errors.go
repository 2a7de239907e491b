package core

import "github.com/dosco/mongosql/core/internal/qcode"

// Error kinds raised during compilation. All are returned as pointers, so
// callers match with errors.As(err, &perr) where perr is e.g.
// *core.TranslationError.
type (
	// TranslationError marks input the compiler cannot express in SQL: an
	// unknown operator, a malformed stage, an invalid update document.
	TranslationError = qcode.TranslationError

	// SafetyError marks a mutation that would run unconstrained.
	SafetyError = qcode.SafetyError

	// ConfigError marks invalid builder usage or engine configuration.
	ConfigError = qcode.ConfigError
)
