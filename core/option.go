package core

import "go.uber.org/zap"

// Option modifies the engine at creation time.
type Option func(*Engine) error

// OptionSetLogger sets the logger the engine emits debug output to. The
// default is a no-op logger.
func OptionSetLogger(log *zap.Logger) Option {
	return func(e *Engine) error {
		e.log = log
		return nil
	}
}

// OptionSetRegistry scopes the engine to its own operator registry instead
// of the shared process-wide one.
func OptionSetRegistry(reg *OperatorRegistry) Option {
	return func(e *Engine) error {
		if reg == nil {
			return &ConfigError{Message: "nil operator registry"}
		}
		e.reg = reg
		return nil
	}
}
