package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jatin-wig/Brain-Tumor-Detection/internal/classify"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/metrics"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/model"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/preprocess"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/result"
	"github.com/julienschmidt/httprouter"
)

const defaultMaxUploadBytes = 10 << 20

type Handler struct {
	svc            *classify.Service
	metrics        *metrics.Manager
	maxUploadBytes int64
}

func NewHandler(svc *classify.Service, m *metrics.Manager, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	if m == nil {
		m = metrics.NewManager()
	}
	return &Handler{
		svc:            svc,
		metrics:        m,
		maxUploadBytes: maxUploadBytes,
	}
}

type healthResponse struct {
	Status    string   `json:"status"`
	Classes   []string `json:"classes"`
	ImageSize int      `json:"image_size"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Classes:   h.svc.Labels().Names(),
		ImageSize: h.svc.Metadata().ImageSize,
	})
}

type labelsResponse struct {
	Labels     []result.Description `json:"labels"`
	Disclaimer string               `json:"disclaimer"`
}

func (h *Handler) Labels(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, labelsResponse{
		Labels:     result.DescribeAll(h.svc.Labels()),
		Disclaimer: result.Disclaimer,
	})
}

// Predict classifies a raw, already preprocessed tensor.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes()))
	if err != nil {
		writeError(w, statusForBodyError(err), "bad_request", "Failed to read request body")
		return
	}

	var req model.PredictionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid JSON")
		return
	}

	if len(req.Image) != h.svc.InputSize() {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Sprintf("Expected %d values, got %d", h.svc.InputSize(), len(req.Image)))
		return
	}

	report, err := h.svc.ClassifyTensor(r.Context(), req.Image)
	if err != nil {
		entryFor(r).WithError(err).Error("Prediction error")
		writeError(w, http.StatusInternalServerError, "internal_error", "Prediction failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// PredictFromImage classifies a multipart upload in the "image" field.
func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.metrics.RecordDecodeFailure("form")
		writeError(w, statusForBodyError(err), "bad_request", "Failed to parse form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.metrics.RecordDecodeFailure("missing_file")
		writeError(w, http.StatusBadRequest, "bad_request", "No image file provided. Use 'image' as the form field name")
		return
	}
	defer file.Close()

	logger := entryFor(r)
	logger.WithField("filename", header.Filename).WithField("size", header.Size).Info("Received file")

	img, format, err := preprocess.Decode(file, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, preprocess.ErrUnsupportedFormat):
			h.metrics.RecordDecodeFailure("unsupported_format")
			writeError(w, http.StatusBadRequest, "unsupported_format", "Unsupported file type. Supported: jpg, jpeg, png")
		default:
			h.metrics.RecordDecodeFailure("decode")
			writeError(w, http.StatusBadRequest, "invalid_image", "Invalid image format. Supported: JPEG, PNG")
		}
		return
	}

	logger.WithField("format", format).
		WithField("width", img.Bounds().Dx()).
		WithField("height", img.Bounds().Dy()).
		Debug("Decoded image")

	report, err := h.svc.ClassifyImage(r.Context(), img)
	if err != nil {
		logger.WithError(err).Error("Prediction error")
		writeError(w, http.StatusInternalServerError, "internal_error", "Prediction failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Raw tensors are roughly 20 bytes per value as JSON.
func (h *Handler) maxBodyBytes() int64 {
	return max(h.maxUploadBytes, int64(h.svc.InputSize())*20)
}

func statusForBodyError(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
