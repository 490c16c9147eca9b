package ulid

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     io.Reader
	entropyOnce sync.Once

	generatorMu sync.RWMutex
	generator   = DefaultGenerator
)

// DefaultEntropy returns a monotonic entropy source shared by all
// generated IDs, so IDs created within one millisecond still sort in
// creation order.
func DefaultEntropy() io.Reader {
	entropyOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rng, 0),
		}
	})
	return entropy
}

// ValidID reports whether id is a canonical ULID: 26 upper-case Crockford
// base32 characters.
func ValidID(id string) bool {
	parsed, err := ulid.ParseStrict(id)
	return err == nil && parsed.String() == id
}

// Time returns the creation time encoded in id.
func Time(id string) (time.Time, bool) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(parsed.Time()), true
}

// GenerateID returns a new note ID.
func GenerateID() string {
	generatorMu.RLock()
	defer generatorMu.RUnlock()
	return generator()
}

func DefaultGenerator() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), DefaultEntropy()).String()
}

func ResetGenerator() {
	setGenerator(DefaultGenerator)
}

// MockGenerator makes GenerateID return ids in turn, repeating the last
// one once they are used up.
func MockGenerator(ids ...string) {
	var (
		mu   sync.Mutex
		next int
	)
	setGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(ids) == 0 {
			return ""
		}
		id := ids[min(next, len(ids)-1)]
		next++
		return id
	})
}

func setGenerator(fn func() string) {
	generatorMu.Lock()
	defer generatorMu.Unlock()
	generator = fn
}
