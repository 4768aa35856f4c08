package grade

import (
	"math"

	"github.com/pkg/errors"
)

const (
	TestMax  = 10.0
	FinalMax = 20.0
)

var ErrInvalidInput = errors.New("invalid input")

// ComputeWeightedScore linearly rescales raw out of maxItems to a score out of targetMax.
func ComputeWeightedScore(raw, maxItems, targetMax float64) (float64, error) {
	if maxItems <= 0 || math.IsNaN(maxItems) || math.IsInf(maxItems, 0) {
		return 0, errors.Wrapf(ErrInvalidInput, "max items must be positive, got %v", maxItems)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) || math.IsNaN(targetMax) || math.IsInf(targetMax, 0) {
		return 0, errors.Wrap(ErrInvalidInput, "scores must be finite")
	}
	return (raw / maxItems) * targetMax, nil
}
