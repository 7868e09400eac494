package ledger

import "fmt"

// InsufficientBalanceError is an attempted debit that would drive a balance
// negative. It is a business-rule violation surfaced to the caller
// unmodified; the engine performs no local recovery.
type InsufficientBalanceError struct {
	UserID    string
	Balance   int
	Requested int
}

// Error implements the error interface.
func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("ledger: user %s has %d credits, %d requested", e.UserID, e.Balance, e.Requested)
}

// NotFoundError is a reference to a user, content, link, or promotion that
// does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ledger: %s %s not found", e.Kind, e.ID)
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
