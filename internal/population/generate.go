// Synthetic population generation: builds a plausible three-tier
// population from tier counts and a seed, for runs without an external
// population sheet.
package population

import (
	"math/rand"
)

// GenConfig controls synthetic population generation.
type GenConfig struct {
	Retailers     int
	Manufacturers int
	Suppliers     int
	Seed          int64
}

// DefaultGenConfig returns a small balanced population.
func DefaultGenConfig() GenConfig {
	return GenConfig{Retailers: 5, Manufacturers: 5, Suppliers: 5, Seed: 42}
}

// Generate builds a validated population from GenerateSpecs records.
func Generate(cfg GenConfig) (*Population, error) {
	return Build(GenerateSpecs(cfg))
}

// GenerateSpecs produces the spec records for a synthetic population.
// Prices are tiered so margins exist by construction: suppliers sell below
// manufacturers, manufacturers below retailers, with per-agent jitter
// around each tier's mean. The same config always yields the same records.
func GenerateSpecs(cfg GenConfig) []AgentSpec {
	rng := rand.New(rand.NewSource(cfg.Seed + 300))

	specs := make([]AgentSpec, 0, cfg.Retailers+cfg.Manufacturers+cfg.Suppliers)
	nextID := uint64(1)

	add := func(role string, n int, muPrice float64) {
		for i := 0; i < n; i++ {
			specs = append(specs, AgentSpec{
				AgentID:              nextID,
				Role:                 role,
				WorkingCapital:       100 + rng.Float64()*50,
				MuSellingPrice:       muPrice * (0.9 + rng.Float64()*0.2),
				SigmaSellingPrice:    0.05 + rng.Float64()*0.05,
				Q:                    0.9,
				ConsumerDemandMean:   50 + rng.Float64()*20,
				PDelivery:            0.8,
				InputMargin:          0.01,
				InterestRate:         0.02,
				FixedCost:            0.5 + rng.Float64()*0.5,
				DaysBetweenFinancing: 30,
				FinancingPeriod:      90,
				OrderingPeriod:       1 + rng.Intn(7),
				DeliveryPeriod:       1 + rng.Intn(3),
				FixedAssets:          40 + rng.Float64()*20,
			})
			nextID++
		}
	}

	add("retailer", cfg.Retailers, 6.0)
	add("manufacturer", cfg.Manufacturers, 4.0)
	add("supplier", cfg.Suppliers, 3.0)

	return specs
}
