package core

import (
	"fmt"
	"math/rand"

	"github.com/signalsfoundry/conjunction-screener/model"
)

// GenerateDebrisField synthesises count debris objects around a seed
// object by jittering the inclination and RAAN fields of the seed's
// TLE second line. spread scales the jitter: up to ±spread*10 degrees
// of inclination and ±spread*100 degrees of RAAN.
//
// The caller supplies the random source, so a seeded source gives a
// reproducible field.
func GenerateDebrisField(seed *model.ObjectDefinition, count int, spread float64, rng *rand.Rand) ([]*model.ObjectDefinition, error) {
	if seed == nil {
		return nil, fmt.Errorf("%w: nil seed object", ErrInvalidElements)
	}
	if count < 0 {
		return nil, fmt.Errorf("debris count must be non-negative, got %d", count)
	}

	field := make([]*model.ObjectDefinition, 0, count)
	for i := 0; i < count; i++ {
		dIncl := (rng.Float64()*2 - 1) * spread * 10
		dRAAN := (rng.Float64()*2 - 1) * spread * 100

		line2, err := PerturbTLELine2(seed.TLELine2, dIncl, dRAAN)
		if err != nil {
			return nil, fmt.Errorf("debris %d from %s: %w", i+1, seed.ID, err)
		}
		// The perturbed line keeps the seed's checksum-consistent
		// line 1, so the pair stays a valid element set.
		elements, noradID, err := ParseTLE(seed.TLELine1, line2)
		if err != nil {
			return nil, fmt.Errorf("debris %d from %s: %w", i+1, seed.ID, err)
		}

		field = append(field, &model.ObjectDefinition{
			ID:       fmt.Sprintf("%s-debris-%d", seed.ID, i+1),
			Name:     fmt.Sprintf("%s DEBRIS %d", seed.Name, i+1),
			Type:     model.ObjectDebris,
			TLELine1: seed.TLELine1,
			TLELine2: line2,
			NoradID:  noradID,
			Elements: elements,
		})
	}
	return field, nil
}
