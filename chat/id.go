package chat

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDFunc returns a new message identifier on every call.
type IDFunc func() string

// RandomIDs returns identifiers backed by random UUIDs.
func RandomIDs() IDFunc {
	return uuid.NewString
}

// CounterIDs returns a monotonic generator producing prefix-1, prefix-2, ...
func CounterIDs(prefix string) IDFunc {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
