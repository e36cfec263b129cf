// Package scoring compares a draft listing with catalog entries and turns the
// best comparison into a verdict.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Config holds the fusion weights and the tunable decay parameters.
type Config struct {
	NameWeight      float64
	GeoWeight       float64
	DeveloperWeight float64
	PriceWeight     float64

	// GeoRadiusMeters is the distance at which the geo sub-score has decayed
	// to exp(-0.5), about 0.61.
	GeoRadiusMeters float64
	// PriceTolerance is the relative price difference at which the price
	// sub-score reaches zero.
	PriceTolerance float64
}

// DefaultConfig returns the production weights. Weights sum to 1.
func DefaultConfig() Config {
	return Config{
		NameWeight:      0.40,
		GeoWeight:       0.35,
		DeveloperWeight: 0.15,
		PriceWeight:     0.10,

		GeoRadiusMeters: 300,
		PriceTolerance:  0.35,
	}
}

// WeightSum returns the sum of all component weights.
func (c Config) WeightSum() float64 {
	return c.NameWeight + c.GeoWeight + c.DeveloperWeight + c.PriceWeight
}

// Validate checks that the config is internally consistent.
func (c Config) Validate() error {
	var errs []string

	weights := []struct {
		name string
		w    float64
	}{
		{"name_weight", c.NameWeight},
		{"geo_weight", c.GeoWeight},
		{"developer_weight", c.DeveloperWeight},
		{"price_weight", c.PriceWeight},
	}
	for _, w := range weights {
		if w.w < 0 || math.IsNaN(w.w) {
			errs = append(errs, w.name+" must be >= 0")
		}
	}
	if !(c.WeightSum() > 0) {
		errs = append(errs, "weight sum must be > 0")
	}
	if !(c.GeoRadiusMeters > 0) {
		errs = append(errs, "geo_radius_meters must be > 0")
	}
	if !(c.PriceTolerance > 0) || c.PriceTolerance > 1 {
		errs = append(errs, "price_tolerance must be in (0, 1]")
	}

	if len(errs) > 0 {
		return fmt.Errorf("scoring: invalid config: %w", errors.New(strings.Join(errs, "; ")))
	}
	return nil
}
