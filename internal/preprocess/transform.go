package preprocess

import (
	"fmt"
	"sort"
)

// Transform maps one RGB pixel in [0, 255] to the three model input values,
// in the channel order the model expects.
type Transform func(r, g, b float32) (c0, c1, c2 float32)

var (
	torchMean = [3]float32{0.485, 0.456, 0.406}
	torchStd  = [3]float32{0.229, 0.224, 0.225}
	caffeMean = [3]float32{103.939, 116.779, 123.68} // BGR
)

// These follow the Keras applications preprocess_input recipes. EfficientNet
// keeps raw [0, 255] values because its rescaling layer is part of the graph.
var transforms = map[string]Transform{
	"efficientnet": Identity,
	"none":         Identity,
	"unit": func(r, g, b float32) (float32, float32, float32) {
		return r / 255, g / 255, b / 255
	},
	"tf": func(r, g, b float32) (float32, float32, float32) {
		return r/127.5 - 1, g/127.5 - 1, b/127.5 - 1
	},
	"torch": func(r, g, b float32) (float32, float32, float32) {
		return (r/255 - torchMean[0]) / torchStd[0],
			(g/255 - torchMean[1]) / torchStd[1],
			(b/255 - torchMean[2]) / torchStd[2]
	},
	"caffe": func(r, g, b float32) (float32, float32, float32) {
		return b - caffeMean[0], g - caffeMean[1], r - caffeMean[2]
	},
}

func Identity(r, g, b float32) (float32, float32, float32) {
	return r, g, b
}

// TransformByName looks up a pixel transform.
func TransformByName(name string) (Transform, error) {
	t, ok := transforms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownTransform, name, TransformNames())
	}
	return t, nil
}

func TransformNames() []string {
	names := make([]string, 0, len(transforms))
	for n := range transforms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FilterNames returns the registered resampling filter names, sorted.
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for n := range filters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
