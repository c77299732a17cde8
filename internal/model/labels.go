package model

import (
	"fmt"
	"strings"
)

// Label is one classification outcome.
type Label string

// LabelEntry pairs a model output index with its label.
type LabelEntry struct {
	Index int
	Label Label
}

// LabelSet is the ordered mapping from output index to label. It is built once
// from metadata and checked against the model's output width, so the
// probability vector and the label list can never drift apart silently.
type LabelSet struct {
	entries  []LabelEntry
	negative int
}

// NewLabelSet validates names and builds the index pairing. negative names the
// "no finding" label and must occur exactly once.
func NewLabelSet(names []string, negative string) (LabelSet, error) {
	if len(names) == 0 {
		return LabelSet{}, fmt.Errorf("%w: no classes", ErrInvalidLabels)
	}
	seen := make(map[string]int, len(names))
	ls := LabelSet{entries: make([]LabelEntry, len(names)), negative: -1}
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return LabelSet{}, fmt.Errorf("%w: class %d is blank", ErrInvalidLabels, i)
		}
		if j, dup := seen[name]; dup {
			return LabelSet{}, fmt.Errorf("%w: class %q at %d and %d", ErrInvalidLabels, name, j, i)
		}
		seen[name] = i
		ls.entries[i] = LabelEntry{Index: i, Label: Label(name)}
		if name == negative {
			ls.negative = i
		}
	}
	if ls.negative < 0 {
		return LabelSet{}, fmt.Errorf("%w: negative class %q not in %v", ErrInvalidLabels, negative, names)
	}
	return ls, nil
}

// MustLabelSet is NewLabelSet for fixed, known-good tables.
func MustLabelSet(names []string, negative string) LabelSet {
	ls, err := NewLabelSet(names, negative)
	if err != nil {
		panic(err)
	}
	return ls
}

// CheckWidth fails unless the set has exactly width entries.
func (ls LabelSet) CheckWidth(width int) error {
	if len(ls.entries) != width {
		return fmt.Errorf("%w: %d classes but model outputs %d values", ErrInvalidLabels, len(ls.entries), width)
	}
	return nil
}

func (ls LabelSet) Len() int { return len(ls.entries) }

// At returns the label for output index i.
func (ls LabelSet) At(i int) Label { return ls.entries[i].Label }

func (ls LabelSet) Entries() []LabelEntry {
	out := make([]LabelEntry, len(ls.entries))
	copy(out, ls.entries)
	return out
}

func (ls LabelSet) Names() []string {
	out := make([]string, len(ls.entries))
	for i, e := range ls.entries {
		out[i] = string(e.Label)
	}
	return out
}

// Negative returns the "no finding" label.
func (ls LabelSet) Negative() Label {
	if ls.negative < 0 {
		return ""
	}
	return ls.entries[ls.negative].Label
}

func (ls LabelSet) IsNegative(l Label) bool {
	return ls.negative >= 0 && ls.entries[ls.negative].Label == l
}
