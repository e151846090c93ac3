package util

import (
	"github.com/google/uuid"
)

// NewSessionCartID generates the opaque token that keys an anonymous cart.
func NewSessionCartID() string {
	return uuid.NewString()
}
