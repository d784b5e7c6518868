// Package id issues the run identifiers that key journal rows.
package id

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
)

var (
	mu sync.Mutex

	// Monotonic entropy keeps IDs minted within the same millisecond
	// strictly increasing, so runs list in creation order when sorted.
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a fresh ULID string.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}
