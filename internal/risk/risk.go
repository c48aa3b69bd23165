// Package risk scores flagged conjunctions. The trained model is an
// opaque artifact produced offline; this package only runs inference
// and deliberately knows nothing about training.
package risk

import (
	"errors"

	"github.com/signalsfoundry/conjunction-screener/model"
)

// ErrFeatureSchemaMismatch reports a feature vector whose shape or
// ordering differs from what the loaded model was trained on. This is
// a configuration error: the caller should halt the pipeline rather
// than skip the pair, since it indicates model/feature drift.
var ErrFeatureSchemaMismatch = errors.New("feature schema mismatch")

// Predictor maps a fixed-order feature vector to a risk category and a
// probability in [0,1]. Implementations must be side-effect-free and
// safe for concurrent use; the pipeline shares one Predictor across
// all pairs of a run.
type Predictor interface {
	Predict(features model.FeatureVector) (model.RiskCategory, float64, error)
}
