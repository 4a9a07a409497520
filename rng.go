package main

// RNG is a seeded xorshift64 generator carried as explicit match state.
// Power-up spawning and AI randomness both draw from the same instance,
// so one seed plus the recorded inputs reproduces a full match.
type RNG struct {
	state uint64
}

// NewRNG creates a generator from a nonzero seed. A zero seed is
// remapped to a fixed constant since xorshift cannot leave state 0.
func NewRNG(seed uint64) *RNG {
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &RNG{state: seed}
}

// Uint64 advances the generator and returns the next raw value
func (r *RNG) Uint64() uint64 {
	r.state ^= r.state << 13
	r.state ^= r.state >> 7
	r.state ^= r.state << 17
	return r.state
}

// Float64 returns a value in [0, 1)
func (r *RNG) Float64() float64 {
	return float64(r.Uint64()>>11) / float64(1<<53)
}

// Range returns a value in [min, max)
func (r *RNG) Range(min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// Intn returns a value in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	return int(r.Uint64() % uint64(n))
}

// Chance returns true with probability p
func (r *RNG) Chance(p float64) bool {
	return r.Float64() < p
}
