package result

import (
	"fmt"

	"github.com/jatin-wig/Brain-Tumor-Detection/internal/model"
)

// Report is everything a client needs to show one prediction.
type Report struct {
	Prediction
	ConfidencePercent string      `json:"confidence_percent"`
	Band              Band        `json:"band"`
	BandColor         string      `json:"band_color"`
	Description       Description `json:"description"`
	Disclaimer        string      `json:"disclaimer"`
}

// Render attaches band and description to a prediction.
func Render(p Prediction, labels model.LabelSet) Report {
	band := BandFor(p.Confidence)
	return Report{
		Prediction:        p,
		ConfidencePercent: FormatPercent(p.Confidence),
		Band:              band,
		BandColor:         band.Color(),
		Description:       Describe(p.Label, labels),
		Disclaimer:        Disclaimer,
	}
}

// FormatPercent renders a confidence in [0,1] as a percentage with two decimals.
func FormatPercent(confidence float32) string {
	return fmt.Sprintf("%.2f%%", float64(confidence)*100)
}
