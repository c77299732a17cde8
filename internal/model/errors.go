package model

import "errors"

var (
	ErrModelNotFound   = errors.New("model artifact not found")
	ErrInvalidMetadata = errors.New("invalid model metadata")
	ErrInvalidLabels   = errors.New("invalid label set")
	ErrShapeMismatch   = errors.New("tensor shape mismatch")
	ErrInference       = errors.New("inference failed")
)
