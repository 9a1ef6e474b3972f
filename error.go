package bankacct

import (
	"errors"
	"fmt"
)

var (
	ErrInternalServer = errors.New("internal server error")
)

type ErrBadRequest struct {
	Fields map[string]string `json:"fields"`
}

func (e ErrBadRequest) Error() string {
	return fmt.Sprintf("missing/invalid params: %v", e.Fields)
}

type ErrNotFound struct {
	ID int64 `json:"id"`
}

func (e ErrNotFound) Error() string {
	return "record not found"
}

// ErrRuleViolation signals a well-formed request rejected by the current
// account state, e.g. a withdrawal that would break the balance floor.
type ErrRuleViolation struct {
	Reason string `json:"reason"`
}

func (e ErrRuleViolation) Error() string {
	return e.Reason
}

// ErrNoRule means no withdrawal rule is registered for an account type.
// This is a configuration defect, never a user error.
type ErrNoRule struct {
	AccountType AccountType `json:"account_type"`
}

func (e ErrNoRule) Error() string {
	return fmt.Sprintf("no withdrawal rule registered for account type %q", e.AccountType)
}
