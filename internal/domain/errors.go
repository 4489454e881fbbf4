package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrTransaction       = errors.New("transaction failed")
	ErrDanglingReference = errors.New("referenced entity does not exist")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransactionError wraps a failure to open, execute in, or commit a write transaction.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func (e *TransactionError) Is(target error) bool {
	return target == ErrTransaction
}

// ReferenceError is raised when an edge statement finds no entity for one of its
// endpoints, or the referenced entity's type cannot be a target of the relation.
// It aborts the transaction, so it also matches ErrTransaction.
type ReferenceError struct {
	Relation RelationType
	ID       string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: no referenced entity %s of a type the relation accepts", e.Relation, e.ID)
}

func (e *ReferenceError) Is(target error) bool {
	return target == ErrDanglingReference || target == ErrTransaction
}
