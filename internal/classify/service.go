// Package classify runs the image -> tensor -> scores -> report pipeline.
package classify

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/jatin-wig/Brain-Tumor-Detection/internal/metrics"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/model"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/preprocess"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/result"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidInput = errors.New("invalid model input")

// Classifier is a loaded model. *model.Server implements it.
type Classifier interface {
	Infer(ctx context.Context, t model.Tensor) (model.ProbabilityVector, error)
	Labels() model.LabelSet
	Config() model.Metadata
}

type Service struct {
	classifier Classifier
	normalizer *preprocess.Normalizer
	metadata   model.Metadata
	labels     model.LabelSet
	metrics    *metrics.Manager
	log        log.FieldLogger
}

// Option configures a Service.
type Option func(*Service)

func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(l log.FieldLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New builds the pipeline for a loaded classifier. It fails when the model's
// preprocessing or resampling names are unknown, which callers treat as a
// startup error.
func New(c Classifier, opts ...Option) (*Service, error) {
	meta := c.Config()
	normalizer, err := preprocess.NewNormalizer(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to build normalizer: %w", err)
	}
	labels := c.Labels()
	if err := labels.CheckWidth(meta.OutputWidth()); err != nil {
		return nil, err
	}
	s := &Service{
		classifier: c,
		normalizer: normalizer,
		metadata:   meta,
		labels:     labels,
		log:        log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Labels() model.LabelSet {
	return s.labels
}

func (s *Service) Metadata() model.Metadata {
	return s.metadata
}

// InputSize is the number of values ClassifyTensor expects.
func (s *Service) InputSize() int {
	return s.metadata.InputSize()
}

// ClassifyImage normalizes a decoded image and classifies it.
func (s *Service) ClassifyImage(ctx context.Context, img image.Image) (*result.Report, error) {
	start := time.Now()
	tensor := s.normalizer.Normalize(img)
	if s.metrics != nil {
		s.metrics.ObservePreprocess(time.Since(start))
	}
	s.log.WithFields(log.Fields{
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
		"shape":  tensor.Shape,
	}).Debug("Preprocessed image")
	return s.classify(ctx, tensor)
}

// ClassifyTensor classifies an already preprocessed input in the model's layout.
func (s *Service) ClassifyTensor(ctx context.Context, data []float32) (*result.Report, error) {
	if len(data) != s.InputSize() {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidInput, s.InputSize(), len(data))
	}
	return s.classify(ctx, model.Tensor{Shape: s.metadata.InputShape, Data: data})
}

func (s *Service) classify(ctx context.Context, tensor model.Tensor) (*result.Report, error) {
	start := time.Now()
	probs, err := s.classifier.Infer(ctx, tensor)
	elapsed := time.Since(start)
	if err != nil {
		s.recordError("inference")
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveInference(elapsed)
	}

	prediction, err := result.Interpret(probs, s.labels)
	if err != nil {
		s.recordError("interpret")
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObservePrediction(string(prediction.Label), prediction.Confidence)
	}

	s.log.WithFields(log.Fields{
		"class":        prediction.Label,
		"confidence":   prediction.Confidence,
		"inference_ms": elapsed.Milliseconds(),
	}).Info("Prediction")

	report := result.Render(prediction, s.labels)
	return &report, nil
}

func (s *Service) recordError(stage string) {
	if s.metrics != nil {
		s.metrics.RecordPredictionError(stage)
	}
}
