package util

import "github.com/google/uuid"

// NewID returns a random request-safe identifier.
func NewID() string {
	return uuid.NewString()
}
