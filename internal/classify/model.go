package classify

import (
	"errors"

	"github.com/owlin/docintake/constants"
)

// ErrModelUnavailable is returned by models that cannot serve predictions.
var ErrModelUnavailable = errors.New("classification model unavailable")

// Prediction is a trained model's verdict for one page.
type Prediction struct {
	Label        constants.DocType
	Confidence   float64
	Distribution map[constants.DocType]float64
}

// Model is the capability interface for an optional trained page classifier.
// Selection is by availability, never by type inspection.
type Model interface {
	Available() bool
	Predict(features map[string]float64) (Prediction, error)
}

// NullModel reports unavailable; the classifier then relies on heuristics.
type NullModel struct{}

func (NullModel) Available() bool { return false }

func (NullModel) Predict(map[string]float64) (Prediction, error) {
	return Prediction{}, ErrModelUnavailable
}
