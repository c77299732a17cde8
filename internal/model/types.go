package model

// Layout is the memory order of the model input tensor.
type Layout string

const (
	LayoutNHWC Layout = "nhwc"
	LayoutNCHW Layout = "nchw"
)

// Metadata is the JSON sidecar shipped next to the ONNX model.
type Metadata struct {
	InputShape       []int64  `json:"input_shape"`
	OutputShape      []int64  `json:"output_shape"`
	Classes          []string `json:"classes"`
	ImageSize        int      `json:"image_size"`
	InputName        string   `json:"input_name,omitempty"`
	OutputName       string   `json:"output_name,omitempty"`
	Layout           Layout   `json:"layout,omitempty"`
	Preprocessing    string   `json:"preprocessing,omitempty"`
	Resample         string   `json:"resample,omitempty"`
	OutputActivation string   `json:"output_activation,omitempty"`
	NegativeClass    string   `json:"negative_class,omitempty"`
}

// Tensor is a dense float32 model input.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NumElements returns the product of the tensor dimensions.
func (t Tensor) NumElements() int {
	return shapeSize(t.Shape)
}

// ProbabilityVector holds one score per label, in label order.
type ProbabilityVector []float32

// PredictionRequest is the body of a raw tensor prediction.
type PredictionRequest struct {
	Image []float32 `json:"image"`
}

func shapeSize(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}
