// Package ulid generates block identifiers: a millisecond timestamp followed
// by a monotonic random suffix, so ids stay unique across any number of
// deletions and sort by creation time.
package ulid

import (
	"io"
	"math/rand"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     io.Reader
	entropyOnce sync.Once

	genMu     sync.RWMutex
	generator = DefaultGenerator
)

var ulidPattern = regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

// DefaultEntropy returns a reader that generates ULID entropy.
func DefaultEntropy() io.Reader {
	entropyOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rng, 0),
		}
	})
	return entropy
}

// ValidID reports whether id is a canonical ULID string.
func ValidID(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil && ulidPattern.MatchString(id)
}

// GenerateID returns a new block id.
func GenerateID() string {
	genMu.RLock()
	g := generator
	genMu.RUnlock()
	return g()
}

func DefaultGenerator() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), DefaultEntropy()).String()
}

func ResetGenerator() {
	genMu.Lock()
	generator = DefaultGenerator
	genMu.Unlock()
}

// SequenceGenerator makes GenerateID return prefix-1, prefix-2, ... until
// ResetGenerator is called. Tests use it for readable, deterministic ids.
func SequenceGenerator(prefix string) {
	var (
		mu sync.Mutex
		n  int
	)
	genMu.Lock()
	generator = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
	genMu.Unlock()
}

