package builder

import "fmt"

// ConfigError is statement-generation misuse: asking for a statement the
// table's shape cannot support. It indicates a programming error and should
// be caught at startup, never on a live request path.
type ConfigError struct {
	Table   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("builder: %s: %s", e.Table, e.Message)
}

// ValidationError is malformed generator input, such as an update record
// missing a primary-key field.
type ValidationError struct {
	Table   string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("builder: %s: %s", e.Table, e.Message)
	}
	return fmt.Sprintf("builder: %s.%s: %s", e.Table, e.Field, e.Message)
}
