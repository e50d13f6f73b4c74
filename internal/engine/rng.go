// Seeded randomness for the engine. Every stochastic draw in a run flows
// through one source so a (population, seed) pair reproduces exactly.
package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// rng wraps a seeded source with the model's distribution draws.
type rng struct {
	src *xrand.Rand
}

// newRNG creates the run's random source. A zero seed asks for a
// non-reproducible run seeded from crypto/rand.
func newRNG(seed int64) *rng {
	if seed == 0 {
		seed = cryptoSeed()
	}
	return &rng{src: xrand.New(xrand.NewSource(uint64(seed)))}
}

// cryptoSeed derives a seed from the OS entropy pool.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// SellingPrice draws from LogNormal(ln(mu), sigma), the daily price noise
// model. mu is the median price, not the mean.
func (r *rng) SellingPrice(mu, sigma float64) float64 {
	if mu <= 0 {
		return 0
	}
	if sigma <= 0 {
		return mu
	}
	return distuv.LogNormal{Mu: math.Log(mu), Sigma: sigma, Src: r.src}.Rand()
}

// Exponential draws consumer demand with the given mean.
func (r *rng) Exponential(mean float64) float64 {
	if mean <= 0 {
		return 0
	}
	return distuv.Exponential{Rate: 1 / mean, Src: r.src}.Rand()
}

// Bernoulli reports success with probability p.
func (r *rng) Bernoulli(p float64) bool {
	return r.src.Float64() < p
}

// Shuffle permutes n elements through swap.
func (r *rng) Shuffle(n int, swap func(i, j int)) {
	r.src.Shuffle(n, swap)
}

// normalCDF is the standard normal CDF used by the default-probability
// mapping Φ(−DD).
func normalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}
