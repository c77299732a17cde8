package model

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

type Server struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	Metadata     Metadata
	labels       LabelSet
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

type options struct {
	sharedLibraryPath string
	intraOpThreads    int
}

// Option configures Load.
type Option func(*options)

// WithSharedLibraryPath points onnxruntime_go at a specific libonnxruntime.
func WithSharedLibraryPath(path string) Option {
	return func(o *options) {
		o.sharedLibraryPath = path
	}
}

// WithIntraOpThreads caps the threads onnxruntime uses inside one Run.
func WithIntraOpThreads(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.intraOpThreads = n
		}
	}
}

// Load opens the ONNX model and its metadata sidecar. Any failure releases
// whatever was already allocated, and the returned server is nil.
func Load(modelPath, metadataPath string, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("failed to stat model: %w", err)
	}

	metadata, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}
	labels, err := metadata.LabelSet()
	if err != nil {
		return nil, err
	}

	if o.sharedLibraryPath != "" {
		ort.SetSharedLibraryPath(o.sharedLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	s := &Server{Metadata: metadata, labels: labels}
	if err := s.open(modelPath, o); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) open(modelPath string, o options) error {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return fmt.Errorf("failed to read model inputs and outputs: %w", err)
	}
	if err := checkModelShapes(s.Metadata, inputs, outputs); err != nil {
		return err
	}

	s.inputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(s.Metadata.InputShape...))
	if err != nil {
		return fmt.Errorf("failed to create input tensor: %w", err)
	}
	s.outputTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(s.Metadata.OutputShape...))
	if err != nil {
		return fmt.Errorf("failed to create output tensor: %w", err)
	}

	var sessionOptions *ort.SessionOptions
	if o.intraOpThreads > 0 {
		sessionOptions, err = ort.NewSessionOptions()
		if err != nil {
			return fmt.Errorf("failed to create session options: %w", err)
		}
		defer sessionOptions.Destroy()
		if err := sessionOptions.SetIntraOpNumThreads(o.intraOpThreads); err != nil {
			return fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}

	s.session, err = ort.NewAdvancedSession(modelPath,
		[]string{s.Metadata.InputName}, []string{s.Metadata.OutputName},
		[]ort.ArbitraryTensor{s.inputTensor}, []ort.ArbitraryTensor{s.outputTensor},
		sessionOptions)
	if err != nil {
		return fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return nil
}

// Labels returns the validated output index to label pairing.
func (s *Server) Labels() LabelSet {
	return s.labels
}

// Config returns the metadata the model was loaded with.
func (s *Server) Config() Metadata {
	return s.Metadata
}

// Infer runs one forward pass. The returned vector is a fresh copy owned by
// the caller.
func (s *Server) Infer(ctx context.Context, t Tensor) (ProbabilityVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !slices.Equal(t.Shape, s.Metadata.InputShape) {
		return nil, fmt.Errorf("%w: got %v, model wants %v", ErrShapeMismatch, t.Shape, s.Metadata.InputShape)
	}
	if len(t.Data) != s.Metadata.InputSize() {
		return nil, fmt.Errorf("%w: got %d values, model wants %d", ErrShapeMismatch, len(t.Data), s.Metadata.InputSize())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy(s.inputTensor.GetData(), t.Data)
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}

	width := s.labels.Len()
	out := make(ProbabilityVector, width)
	copy(out, s.outputTensor.GetData()[:width])
	if s.Metadata.OutputActivation == ActivationLogits {
		Softmax(out)
	}
	return out, nil
}

func (s *Server) Close() {
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
		s.inputTensor = nil
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
		s.outputTensor = nil
	}
	ort.DestroyEnvironment()
}

// checkModelShapes compares the graph's declared input and output with the
// sidecar. Negative graph dimensions are symbolic and match any size.
func checkModelShapes(m Metadata, inputs, outputs []ort.InputOutputInfo) error {
	in, ok := findInfo(inputs, m.InputName)
	if !ok {
		return fmt.Errorf("%w: model has no input %q (has %v)", ErrInvalidMetadata, m.InputName, infoNames(inputs))
	}
	if !shapeMatches(in.Dimensions, m.InputShape) {
		return fmt.Errorf("%w: model input %q is %v, input_shape is %v", ErrInvalidMetadata, in.Name, in.Dimensions, m.InputShape)
	}

	out, ok := findInfo(outputs, m.OutputName)
	if !ok {
		return fmt.Errorf("%w: model has no output %q (has %v)", ErrInvalidMetadata, m.OutputName, infoNames(outputs))
	}
	if len(out.Dimensions) != len(m.OutputShape) {
		return fmt.Errorf("%w: model output %q is %v, output_shape is %v", ErrInvalidMetadata, out.Name, out.Dimensions, m.OutputShape)
	}
	if !shapeMatches(out.Dimensions, m.OutputShape) {
		return fmt.Errorf("%w: model output %q is %v but %d classes are listed",
			ErrInvalidLabels, out.Name, out.Dimensions, len(m.Classes))
	}
	return nil
}

func findInfo(infos []ort.InputOutputInfo, name string) (ort.InputOutputInfo, bool) {
	for _, info := range infos {
		if info.Name == name {
			return info, true
		}
	}
	return ort.InputOutputInfo{}, false
}

func infoNames(infos []ort.InputOutputInfo) []string {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

func shapeMatches(graph ort.Shape, want []int64) bool {
	if len(graph) != len(want) {
		return false
	}
	for i, d := range graph {
		if d >= 0 && d != want[i] {
			return false
		}
	}
	return true
}
