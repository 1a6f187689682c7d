package common

import (
	"github.com/google/uuid"
)

// NewRequestID generates a unique pipeline request ID with the "ask_" prefix.
// Format: ask_<uuid>
func NewRequestID() string {
	return "ask_" + uuid.New().String()
}
