package core

import (
	"log"
	"strings"

	"github.com/google/uuid"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NewID generates a new record identifier.
func NewID() string {
	return uuid.New().String()
}

// ValidID reports whether id is a well-formed record identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// InvalidIDs returns the ids which are not well-formed, in input order.
func InvalidIDs(ids []string) []string {
	invalid := make([]string, 0)
	for _, id := range ids {
		if !ValidID(id) {
			invalid = append(invalid, id)
		}
	}
	return invalid
}

// CleanIDs returns the ids trimmed and lowered, in input order.
func CleanIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = CleanString(id, true /* lower */)
	}
	return out
}

func fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
