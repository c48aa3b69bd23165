package core

import (
	"math/rand"
	"testing"
)

func TestGenerateDebrisField(t *testing.T) {
	seed := issObject(t)
	field, err := GenerateDebrisField(seed, 5, 0.05, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("GenerateDebrisField: %v", err)
	}
	if len(field) != 5 {
		t.Fatalf("got %d debris objects, want 5", len(field))
	}

	seen := make(map[string]bool)
	for i, d := range field {
		if !d.IsDebris() {
			t.Errorf("debris %d has type %q", i, d.Type)
		}
		if seen[d.ID] {
			t.Errorf("duplicate debris id %q", d.ID)
		}
		seen[d.ID] = true

		// Each fragment must remain a valid element set near the seed.
		elements, _, err := ParseTLE(d.TLELine1, d.TLELine2)
		if err != nil {
			t.Fatalf("debris %d TLE invalid: %v", i, err)
		}
		if dIncl := elements.InclinationDeg - seed.Elements.InclinationDeg; dIncl < -0.5 || dIncl > 0.5 {
			t.Errorf("debris %d inclination drifted %v deg from seed", i, dIncl)
		}
	}
	if field[0].ID != "iss-debris-1" {
		t.Errorf("first debris id = %q, want iss-debris-1", field[0].ID)
	}
}

func TestGenerateDebrisFieldIsReproducible(t *testing.T) {
	seed := issObject(t)
	first, err := GenerateDebrisField(seed, 8, 0.01, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("first GenerateDebrisField: %v", err)
	}
	second, err := GenerateDebrisField(seed, 8, 0.01, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("second GenerateDebrisField: %v", err)
	}
	for i := range first {
		if first[i].TLELine2 != second[i].TLELine2 {
			t.Fatalf("debris %d differs between seeded runs:\n%s\n%s", i, first[i].TLELine2, second[i].TLELine2)
		}
	}
}

func TestGenerateDebrisFieldEdgeCases(t *testing.T) {
	seed := issObject(t)
	rng := rand.New(rand.NewSource(1))

	field, err := GenerateDebrisField(seed, 0, 0.01, rng)
	if err != nil {
		t.Fatalf("GenerateDebrisField with count 0: %v", err)
	}
	if len(field) != 0 {
		t.Fatalf("got %d debris objects, want 0", len(field))
	}

	if _, err := GenerateDebrisField(nil, 3, 0.01, rng); err == nil {
		t.Fatalf("expected error for nil seed")
	}
	if _, err := GenerateDebrisField(seed, -1, 0.01, rng); err == nil {
		t.Fatalf("expected error for negative count")
	}
}
