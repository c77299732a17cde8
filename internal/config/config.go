// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ModelPath is the exported ONNX classifier.
	ModelPath string `koanf:"model_path"`

	// MetadataPath is the JSON sidecar describing the model's shapes and classes.
	MetadataPath string `koanf:"metadata_path"`

	// OnnxRuntimeLib optionally points at libonnxruntime.so / .dylib / .dll.
	OnnxRuntimeLib string `koanf:"onnxruntime_lib"`

	// IntraOpThreads limits onnxruntime's threads per inference; 0 keeps its default.
	IntraOpThreads int `koanf:"intra_op_threads"`

	// MaxUploadBytes caps multipart uploads.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// RateLimit is the number of predict requests allowed per client IP per
	// window. Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit"`

	RateWindowSeconds int `koanf:"rate_window_seconds"`

	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds"`
}

// New returns a Config filled with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":8080",
		ModelPath:              "models/model.onnx",
		MetadataPath:           "models/model_metadata.json",
		MaxUploadBytes:         10 << 20,
		RateLimit:              60,
		RateWindowSeconds:      60,
		ShutdownTimeoutSeconds: 30,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ModelPath == "":
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	case c.MetadataPath == "":
		return fmt.Errorf("%w: metadata_path must not be empty", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.RateLimit < 0:
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalidConfig)
	case c.RateLimit > 0 && c.RateWindowSeconds <= 0:
		return fmt.Errorf("%w: rate_window_seconds must be positive when rate_limit is set", ErrInvalidConfig)
	case c.IntraOpThreads < 0:
		return fmt.Errorf("%w: intra_op_threads must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateWindowSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
