package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness rule was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidReference indicates a foreign key did not resolve.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrTransaction marks a failed multi-row write that was rolled back.
	ErrTransaction = errors.New("transaction failed")
	// ErrDependency marks a failure of an external collaborator (mail, pdf, identity).
	ErrDependency = errors.New("dependency failed")
)

// DuplicateError names the record a uniqueness rule collided with. It
// matches ErrAlreadyExists.
type DuplicateError struct {
	Detail string
}

// NewDuplicateError builds a DuplicateError with a client-facing detail.
func NewDuplicateError(detail string) *DuplicateError {
	return &DuplicateError{Detail: detail}
}

func (e *DuplicateError) Error() string { return e.Detail }

func (e *DuplicateError) Is(target error) bool { return target == ErrAlreadyExists }

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
