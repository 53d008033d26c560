// Package ids generates the opaque identifiers used for assets, clips, tracks and jobs.
package ids

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator returns a new unique id on every call.
type Generator func() string

// New returns a random UUIDv4 string.
func New() string {
	return uuid.New().String()
}

// Short returns the first 8 characters of a fresh id, used for request ids.
func Short() string {
	return New()[:8]
}

// Sequence returns a deterministic generator yielding prefix-1, prefix-2, ...
// It is safe for concurrent use.
func Sequence(prefix string) Generator {
	var n atomic.Uint64
	return func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	}
}
