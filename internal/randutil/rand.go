package randutil

import (
	rand "math/rand/v2"
	"time"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// Every shuffle in the server draws from a generator built here so that a
// fixed seed replays the same sequence of decks.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Seeded returns a generator for seed when one is given, otherwise one seeded
// from the current time. The seed actually used is returned for logging.
func Seeded(seed *int64) (*rand.Rand, int64) {
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	return New(s), s
}

// Derive returns an independent generator for a named stream (one per table)
// so tables sharing a server seed do not deal identical decks.
func Derive(seed int64, stream string) *rand.Rand {
	h := uint64(seed)
	for i := 0; i < len(stream); i++ {
		h = mix(h ^ uint64(stream[i]))
	}
	return New(int64(h))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
