package domain

import "github.com/google/uuid"

// ValidID reports whether id is a well-formed UUID. Malformed ids never
// reach the database; callers map them to ErrNotFound or ErrInvalidReference.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
