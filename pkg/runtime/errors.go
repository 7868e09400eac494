package runtime

import "fmt"

// QueryError wraps a database error with the statement that produced it.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v (query: %s)", e.Err, e.Query)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// NoRowsError reports a keyed statement that matched no row.
type NoRowsError struct {
	Table string
	Op    string
}

func (e *NoRowsError) Error() string {
	return fmt.Sprintf("%s on %s matched no rows", e.Op, e.Table)
}
