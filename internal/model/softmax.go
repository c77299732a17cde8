package model

import "math"

// Softmax converts logits to probabilities in place.
func Softmax(v []float32) {
	if len(v) == 0 {
		return
	}
	maxVal := v[0]
	for _, x := range v[1:] {
		if x > maxVal {
			maxVal = x
		}
	}
	var sum float64
	for i, x := range v {
		e := math.Exp(float64(x - maxVal))
		v[i] = float32(e)
		sum += e
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / sum)
	}
}
