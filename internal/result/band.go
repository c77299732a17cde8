package result

// Band classifies how much a confidence value can be trusted on screen.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

const (
	highThreshold   = 0.9
	mediumThreshold = 0.7
)

var bandColors = map[Band]string{
	BandHigh:   "#34A853",
	BandMedium: "#FBBC05",
	BandLow:    "#EA4335",
}

// BandFor maps confidence to a band: above 0.9 high, above 0.7 medium, else low.
func BandFor(confidence float32) Band {
	switch {
	case confidence > highThreshold:
		return BandHigh
	case confidence > mediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// Color is the bar color used for the band.
func (b Band) Color() string {
	return bandColors[b]
}
