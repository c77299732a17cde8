package preprocess

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"
)

// SupportedExtensions are the upload extensions the service accepts.
var SupportedExtensions = []string{"jpg", "jpeg", "png"}

// CheckExtension reports ErrUnsupportedFormat unless filename ends in one of
// SupportedExtensions (case-insensitive).
func CheckExtension(filename string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, ok := range SupportedExtensions {
		if ext == ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, filename, strings.Join(SupportedExtensions, ", "))
}

// Decode checks the filename extension and decodes the image.
func Decode(r io.Reader, filename string) (image.Image, string, error) {
	if err := CheckExtension(filename); err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}
