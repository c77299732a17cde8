package model

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

const (
	DefaultImageSize     = 128
	DefaultInputName     = "input"
	DefaultOutputName    = "output"
	DefaultPreprocessing = "efficientnet"
	DefaultResample      = "bicubic"
	DefaultNegativeClass = "notumor"

	ActivationSoftmax = "softmax"
	ActivationLogits  = "logits"
)

// PreprocessingNames are the pixel transforms the normalizer implements.
var PreprocessingNames = []string{"caffe", "efficientnet", "none", "tf", "torch", "unit"}

// ResampleNames are the resize filters the normalizer implements.
var ResampleNames = []string{"bicubic", "bilinear", "lanczos2", "lanczos3", "mitchell", "nearest"}

// BrainTumorClasses is the label order the MRI classifier was trained with.
var BrainTumorClasses = []string{"glioma", "meningioma", "notumor", "pituitary"}

// DefaultMetadata describes the stock 128x128 EfficientNet MRI classifier.
func DefaultMetadata() Metadata {
	m := Metadata{
		InputShape:  []int64{1, DefaultImageSize, DefaultImageSize, 3},
		OutputShape: []int64{1, int64(len(BrainTumorClasses))},
		Classes:     slices.Clone(BrainTumorClasses),
		ImageSize:   DefaultImageSize,
	}
	m.applyDefaults()
	return m
}

// LoadMetadata reads and validates a metadata sidecar.
func LoadMetadata(path string) (Metadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return Metadata{}, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidMetadata, path, err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

func (m *Metadata) applyDefaults() {
	if m.InputName == "" {
		m.InputName = DefaultInputName
	}
	if m.OutputName == "" {
		m.OutputName = DefaultOutputName
	}
	if m.Layout == "" {
		m.Layout = LayoutNHWC
	}
	if m.Preprocessing == "" {
		m.Preprocessing = DefaultPreprocessing
	}
	if m.Resample == "" {
		m.Resample = DefaultResample
	}
	if m.OutputActivation == "" {
		m.OutputActivation = ActivationSoftmax
	}
	if m.NegativeClass == "" {
		m.NegativeClass = DefaultNegativeClass
	}
}

// Validate checks that shapes, layout and classes agree with each other.
func (m Metadata) Validate() error {
	if m.ImageSize <= 0 {
		return fmt.Errorf("%w: image_size must be positive, got %d", ErrInvalidMetadata, m.ImageSize)
	}
	if m.Layout != LayoutNHWC && m.Layout != LayoutNCHW {
		return fmt.Errorf("%w: unknown layout %q", ErrInvalidMetadata, m.Layout)
	}
	if m.OutputActivation != ActivationSoftmax && m.OutputActivation != ActivationLogits {
		return fmt.Errorf("%w: unknown output_activation %q", ErrInvalidMetadata, m.OutputActivation)
	}
	if !slices.Contains(PreprocessingNames, m.Preprocessing) {
		return fmt.Errorf("%w: unknown preprocessing %q", ErrInvalidMetadata, m.Preprocessing)
	}
	if !slices.Contains(ResampleNames, m.Resample) {
		return fmt.Errorf("%w: unknown resample %q", ErrInvalidMetadata, m.Resample)
	}
	want := m.ExpectedInputShape()
	if !slices.Equal(m.InputShape, want) {
		return fmt.Errorf("%w: input_shape %v does not match image_size %d with layout %s (want %v)",
			ErrInvalidMetadata, m.InputShape, m.ImageSize, m.Layout, want)
	}
	if len(m.OutputShape) == 0 {
		return fmt.Errorf("%w: output_shape is empty", ErrInvalidMetadata)
	}
	for _, d := range m.OutputShape {
		if d <= 0 {
			return fmt.Errorf("%w: output_shape %v has non-positive dimension", ErrInvalidMetadata, m.OutputShape)
		}
	}
	ls, err := m.LabelSet()
	if err != nil {
		return err
	}
	return ls.CheckWidth(m.OutputWidth())
}

// ExpectedInputShape is the single-image input shape for the metadata layout.
func (m Metadata) ExpectedInputShape() []int64 {
	s := int64(m.ImageSize)
	if m.Layout == LayoutNCHW {
		return []int64{1, 3, s, s}
	}
	return []int64{1, s, s, 3}
}

// InputSize is the number of float32 values the model consumes.
func (m Metadata) InputSize() int {
	return shapeSize(m.InputShape)
}

// OutputWidth is the number of scores per image, ignoring the batch dimension.
func (m Metadata) OutputWidth() int {
	if len(m.OutputShape) == 1 {
		return int(m.OutputShape[0])
	}
	return shapeSize(m.OutputShape[1:])
}

func (m Metadata) LabelSet() (LabelSet, error) {
	return NewLabelSet(m.Classes, m.NegativeClass)
}
