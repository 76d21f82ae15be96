package shuffle

import (
	"hash/fnv"
	"math/rand"
	"sync"
	"time"
)

// Shuffler produces uniform permutations from a swappable random source.
type Shuffler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a Shuffler seeded from the wall clock.
func New() *Shuffler {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// Seeded returns a Shuffler that reproduces the same permutations for the same seed.
func Seeded(seed int64) *Shuffler {
	return NewWithSource(rand.NewSource(seed))
}

// NewWithSource wraps an arbitrary source (useful for tests).
func NewWithSource(src rand.Source) *Shuffler {
	return &Shuffler{rnd: rand.New(src)}
}

// intn returns a uniform integer in [0, n).
func (s *Shuffler) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// Shuffle returns a permuted copy of in. The input slice is never modified.
// Fisher-Yates: walk from the last index down to 1 and swap with a uniform j in [0, i].
func Shuffle[T any](s *Shuffler, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := len(out) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DailySeed derives a seed from the calendar day of t (in t's location) and a salt,
// so every player gets the same order on the same day.
func DailySeed(t time.Time, salt string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(t.Format("2006-01-02")))
	_, _ = h.Write([]byte(salt))
	return int64(h.Sum64() >> 1)
}
