package preprocess

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrDecode            = errors.New("image decode failed")
	ErrUnknownTransform  = errors.New("unknown pixel transform")
	ErrUnknownFilter     = errors.New("unknown resample filter")
)
