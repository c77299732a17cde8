// Package result turns model scores into a labelled prediction and the
// display fields that go with it.
package result

import (
	"errors"
	"fmt"
	"math"

	"github.com/jatin-wig/Brain-Tumor-Detection/internal/model"
)

var (
	ErrLengthMismatch     = errors.New("probability vector length does not match labels")
	ErrInvalidProbability = errors.New("probability vector contains NaN")
)

// Prediction is the top-scoring label of a probability vector.
type Prediction struct {
	Label         model.Label        `json:"class"`
	Index         int                `json:"index"`
	Confidence    float32            `json:"confidence"`
	Probabilities map[string]float32 `json:"predictions"`
}

// Interpret picks the arg-max label. Ties go to the lowest index.
func Interpret(probs model.ProbabilityVector, labels model.LabelSet) (Prediction, error) {
	if len(probs) == 0 || len(probs) != labels.Len() {
		return Prediction{}, fmt.Errorf("%w: %d scores for %d labels", ErrLengthMismatch, len(probs), labels.Len())
	}

	maxIdx := 0
	maxVal := probs[0]
	predictions := make(map[string]float32, len(probs))
	for i, val := range probs {
		if math.IsNaN(float64(val)) {
			return Prediction{}, fmt.Errorf("%w: index %d", ErrInvalidProbability, i)
		}
		predictions[string(labels.At(i))] = val
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}

	return Prediction{
		Label:         labels.At(maxIdx),
		Index:         maxIdx,
		Confidence:    maxVal,
		Probabilities: predictions,
	}, nil
}
