package cloudauth

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func TestRandomString(t *testing.T) {
	src := rand.New(rand.NewPCG(7, 7))

	for _, n := range []int{0, stateLength, verifierLength} {
		s := RandomString(n, src)
		if len(s) != n {
			t.Errorf("len(RandomString(%d)) = %d", n, len(s))
		}
		for _, r := range s {
			if !strings.ContainsRune(alphanumeric, r) {
				t.Errorf("RandomString produced %q outside letters and digits", r)
			}
		}
	}
}

func TestRandomHex(t *testing.T) {
	s := RandomHex(apiKeyLength, rand.New(rand.NewPCG(1, 1)))
	if !hex128.MatchString(s) {
		t.Errorf("RandomHex(128) = %q, want 128 lowercase hex characters", s)
	}
}

func TestRandom_DeterministicForSeed(t *testing.T) {
	a := RandomString(43, rand.New(rand.NewPCG(3, 4)))
	b := RandomString(43, rand.New(rand.NewPCG(3, 4)))
	if a != b {
		t.Errorf("same seed produced %q and %q", a, b)
	}
	if c := RandomString(43, rand.New(rand.NewPCG(5, 6))); c == a {
		t.Error("different seeds produced the same verifier")
	}
}

func TestNewSource(t *testing.T) {
	src := NewSource()
	if RandomHex(32, src) == RandomHex(32, src) {
		t.Error("consecutive values from NewSource should differ")
	}
}
