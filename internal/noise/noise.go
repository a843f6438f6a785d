// Package noise provides deterministic noise streams for the furnace
// simulation. Physics formulas take noise samples as plain arguments, so
// an episode replayed with the same seed produces bit-identical state.
package noise

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
)

// Stream generates uniform floats from an HMAC-SHA256 byte stream keyed by
// a seed. Each tick advances the counter, so draws within a tick are
// independent of how many draws earlier ticks consumed.
type Stream struct {
	seed       string
	episodeID  string
	tick       uint64
	currentPos int
	buffer     [32]byte
	round      uint64
}

// NewStream creates a stream for the given seed and episode identifier,
// positioned at tick 0.
func NewStream(seed, episodeID string) *Stream {
	s := &Stream{
		seed:      seed,
		episodeID: episodeID,
	}
	s.generateRound()
	return s
}

// Advance moves the stream to the given tick. Draws restart from the
// beginning of that tick's byte sequence.
func (s *Stream) Advance(tick uint64) {
	s.tick = tick
	s.round = 0
	s.currentPos = 0
	s.generateRound()
}

func (s *Stream) generateRound() {
	h := hmac.New(sha256.New, []byte(s.seed))
	message := fmt.Sprintf("%s:%d:%d", s.episodeID, s.tick, s.round)
	h.Write([]byte(message))
	copy(s.buffer[:], h.Sum(nil))
}

func (s *Stream) next() byte {
	if s.currentPos >= 32 {
		s.round++
		s.currentPos = 0
		s.generateRound()
	}
	b := s.buffer[s.currentPos]
	s.currentPos++
	return b
}

// Float64 returns the next uniform float in [0, 1) using exactly 4 bytes.
func (s *Stream) Float64() float64 {
	result := 0.0
	for i := 0; i < 4; i++ {
		divider := math.Pow(256, float64(i+1))
		result += float64(s.next()) / divider
	}
	return result
}

// Symmetric returns the next sample mapped to [-mag, +mag].
func (s *Stream) Symmetric(mag float64) float64 {
	return (s.Float64() - 0.5) * 2 * mag
}

// Uniform returns the next sample mapped to [lo, hi).
func (s *Stream) Uniform(lo, hi float64) float64 {
	return lo + s.Float64()*(hi-lo)
}

// Floats generates count floats for a single tick without constructing a
// long-lived stream.
func Floats(seed, episodeID string, tick uint64, count int) []float64 {
	s := NewStream(seed, episodeID)
	s.Advance(tick)
	out := make([]float64, count)
	for i := range out {
		out[i] = s.Float64()
	}
	return out
}
