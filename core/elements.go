package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/conjunction-screener/model"
)

// muEarth is the Earth gravitational parameter in km^3/s^2, used to
// recover the semi-major axis from the TLE mean motion.
const muEarth = 398600.4418

// ParseTLE derives classical orbital elements from a two-line element
// set. It validates line structure before touching the numeric fields
// because downstream SGP4 initialisation is unforgiving about
// malformed input.
//
// Eccentricity outside [0,1) or inclination outside [0°,180°] is
// reported as ErrInvalidElements: such a set is unphysical for the
// propagation model even when the lines themselves are well formed.
func ParseTLE(line1, line2 string) (model.OrbitalElements, uint32, error) {
	line1 = strings.TrimRight(line1, "\r\n ")
	line2 = strings.TrimRight(line2, "\r\n ")

	if err := ValidateTLELines(line1, line2); err != nil {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}

	noradID, err := parseUintField(line1[2:7], "catalog number")
	if err != nil {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}

	epoch, err := parseTLEEpoch(line1[18:32])
	if err != nil {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}

	incl, err := parseFloatField(line2[8:16], "inclination")
	if err != nil {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}
	raan, err := parseFloatField(line2[17:25], "RAAN")
	if err != nil {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}
	// Eccentricity is printed with an assumed leading decimal point.
	ecc, err := parseFloatField("0."+strings.TrimSpace(line2[26:33]), "eccentricity")
	if err != nil {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}
	argp, err := parseFloatField(line2[34:42], "argument of perigee")
	if err != nil {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}
	meanAnomaly, err := parseFloatField(line2[43:51], "mean anomaly")
	if err != nil {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}
	meanMotion, err := parseFloatField(line2[52:63], "mean motion")
	if err != nil {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}

	if ecc < 0 || ecc >= 1 {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: eccentricity %v outside [0,1)", ErrInvalidElements, ecc)
	}
	if incl < 0 || incl > 180 {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: inclination %v outside [0,180]", ErrInvalidElements, incl)
	}
	if meanMotion <= 0 {
		return model.OrbitalElements{}, 0, fmt.Errorf("%w: mean motion %v must be positive", ErrInvalidElements, meanMotion)
	}

	// Mean motion rev/day -> rad/s, then a = (mu/n^2)^(1/3).
	n := meanMotion * 2 * math.Pi / 86400.0
	semiMajor := math.Cbrt(muEarth / (n * n))

	return model.OrbitalElements{
		SemiMajorAxisKm: semiMajor,
		Eccentricity:    ecc,
		InclinationDeg:  incl,
		RAANDeg:         raan,
		ArgPerigeeDeg:   argp,
		MeanAnomalyDeg:  meanAnomaly,
		Epoch:           epoch,
	}, uint32(noradID), nil
}

// ValidateTLELines performs structural validation on TLE lines before
// they reach the SGP4 library, which terminates the process on
// unparseable input.
func ValidateTLELines(line1, line2 string) error {
	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got %q", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got %q", line2[0])
	}
	if line1[2:7] != line2[2:7] {
		return fmt.Errorf("catalog numbers differ between lines: %q vs %q", line1[2:7], line2[2:7])
	}
	for i, line := range []string{line1, line2} {
		want := int(line[68] - '0')
		if got := tleChecksum(line[:68]); got != want {
			return fmt.Errorf("line%d checksum %d, expected %d", i+1, got, want)
		}
	}
	return nil
}

// PerturbTLELine2 rewrites the inclination and RAAN fields of a TLE
// second line by the given deltas, clamping inclination into [0,180],
// wrapping RAAN into [0,360), and recomputing the checksum. Used to
// synthesise debris objects around a seed TLE.
func PerturbTLELine2(line2 string, deltaInclDeg, deltaRAANDeg float64) (string, error) {
	if len(line2) != 69 || line2[0] != '2' {
		return "", fmt.Errorf("%w: not a TLE line 2", ErrInvalidElements)
	}

	incl, err := parseFloatField(line2[8:16], "inclination")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}
	raan, err := parseFloatField(line2[17:25], "RAAN")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}

	incl += deltaInclDeg
	if incl < 0 {
		incl = 0
	} else if incl > 180 {
		incl = 180
	}
	raan = math.Mod(raan+deltaRAANDeg, 360)
	if raan < 0 {
		raan += 360
	}

	out := line2[:8] + fmt.Sprintf("%8.4f", incl) + line2[16:17] +
		fmt.Sprintf("%8.4f", raan) + line2[25:68]
	out += strconv.Itoa(tleChecksum(out))
	return out, nil
}

// tleChecksum computes the mod-10 TLE checksum: digits count as their
// value, minus signs count as 1, everything else as 0.
func tleChecksum(s string) int {
	sum := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			sum += int(r - '0')
		case r == '-':
			sum++
		}
	}
	return sum % 10
}

func parseFloatField(field, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %v", name, field, err)
	}
	return v, nil
}

func parseUintField(field, name string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %v", name, field, err)
	}
	return v, nil
}

// parseTLEEpoch decodes the YYDDD.DDDDDDDD epoch field. Years below
// 57 are 2000s, the rest 1900s, per the TLE convention.
func parseTLEEpoch(field string) (time.Time, error) {
	field = strings.TrimSpace(field)
	if len(field) < 5 {
		return time.Time{}, fmt.Errorf("epoch field %q too short", field)
	}
	year, err := strconv.Atoi(field[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("parse epoch year %q: %v", field, err)
	}
	if year < 57 {
		year += 2000
	} else {
		year += 1900
	}
	dayOfYear, err := strconv.ParseFloat(field[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse epoch day %q: %v", field, err)
	}
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((dayOfYear - 1) * 24 * float64(time.Hour))), nil
}
