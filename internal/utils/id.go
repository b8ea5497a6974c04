package utils

import (
	"time"

	"github.com/google/uuid"
)

// NewID generates a time-ordered identifier for users, projects, tasks, work
// packages and milestones. Ids created later in the same process compare
// greater, so (created_at, id) preserves insertion order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ValidID reports whether id has the shape produced by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Now returns the current UTC time at the millisecond precision every
// backend can round-trip.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
