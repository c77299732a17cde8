// Package classifytest provides a stand-in classifier for tests that cannot
// load onnxruntime.
package classifytest

import (
	"context"
	"sync"

	"github.com/jatin-wig/Brain-Tumor-Detection/internal/model"
)

// Fake returns fixed scores and records what it was called with.
type Fake struct {
	Meta  model.Metadata
	Probs model.ProbabilityVector
	Err   error

	mu         sync.Mutex
	calls      int
	lastTensor model.Tensor
}

// New returns a Fake for the stock MRI metadata that answers with probs.
func New(probs ...float32) *Fake {
	return &Fake{Meta: model.DefaultMetadata(), Probs: probs}
}

func (f *Fake) Infer(ctx context.Context, t model.Tensor) (model.ProbabilityVector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastTensor = t
	if f.Err != nil {
		return nil, f.Err
	}
	out := make(model.ProbabilityVector, len(f.Probs))
	copy(out, f.Probs)
	return out, nil
}

func (f *Fake) Labels() model.LabelSet {
	ls, err := f.Meta.LabelSet()
	if err != nil {
		panic(err)
	}
	return ls
}

func (f *Fake) Config() model.Metadata {
	return f.Meta
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) LastTensor() model.Tensor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastTensor
}
