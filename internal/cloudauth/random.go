package cloudauth

import (
	crand "crypto/rand"
	"math/rand/v2"
	"sync"
)

const (
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	hexDigits    = "0123456789abcdef"
)

// Source supplies uniformly distributed integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// RandomString returns n characters drawn from ASCII letters and digits.
func RandomString(n int, src Source) string {
	return randomFrom(alphanumeric, n, src)
}

// RandomHex returns n lowercase hexadecimal characters.
func RandomHex(n int, src Source) string {
	return randomFrom(hexDigits, n, src)
}

func randomFrom(alphabet string, n int, src Source) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[src.IntN(len(alphabet))]
	}
	return string(b)
}

// NewSource returns a ChaCha8 generator seeded from crypto/rand, safe for
// concurrent use.
func NewSource() Source {
	var seed [32]byte
	_, _ = crand.Read(seed[:]) //nolint:errcheck // crypto/rand.Read never fails on supported platforms
	return &lockedSource{r: rand.New(rand.NewChaCha8(seed))}
}

// lockedSource serialises access to a non-thread-safe generator.
type lockedSource struct {
	mu sync.Mutex
	r  Source
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}
