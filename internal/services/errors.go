package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nimasrn/collections-ledger/internal/model"
)

// ValidationError rejects input before any write. It is never retried.
type ValidationError struct {
	Field   string
	Message string
	// MissingIDs names referenced entities that do not exist, when that is the cause.
	MissingIDs []int64
	Fields     []model.FieldError
	Err        error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.MissingIDs) > 0 {
		fmt.Fprintf(&b, " %v", e.MissingIDs)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Entity string
	Key    string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ConflictError reports a lost race on a unique key. Retrying once with
// freshly read state is safe.
type ConflictError struct {
	Op  string
	Err error
}

func (e *ConflictError) Error() string {
	if e.Err == nil {
		return e.Op + ": conflict"
	}
	return e.Op + ": conflict: " + e.Err.Error()
}

func (e *ConflictError) Unwrap() error { return e.Err }

// ErrDanglingProduct is the cause wrapped by every StoreInconsistencyError.
var ErrDanglingProduct = errors.New("line item references a missing product")

// StoreInconsistencyError describes line items whose product reference does
// not resolve. Reads recover from it locally; it is logged and counted but
// not returned to callers.
type StoreInconsistencyError struct {
	Op         string
	OrderIDs   []int64
	ProductIDs []int64
}

func (e *StoreInconsistencyError) Error() string {
	return fmt.Sprintf("%s: dangling product references %v in orders %v", e.Op, e.ProductIDs, e.OrderIDs)
}

func (e *StoreInconsistencyError) Unwrap() error { return ErrDanglingProduct }

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// invalidInput turns a model Validate() error into a ValidationError.
func invalidInput(err error) *ValidationError {
	ve := &ValidationError{Message: err.Error(), Err: err}
	var fe *model.InvalidFieldsError
	if errors.As(err, &fe) {
		ve.Message = "invalid fields"
		ve.Fields = fe.Fields
	}
	return ve
}

func notFound(entity string, key interface{}, err error) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(key), Err: err}
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}
