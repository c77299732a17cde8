package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jatin-wig/Brain-Tumor-Detection/internal/classify"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/classify/classifytest"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/logging"
	"github.com/jatin-wig/Brain-Tumor-Detection/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	fake    *classifytest.Fake
	metrics *metrics.Manager
	handler http.Handler
}

func newTestServer(t *testing.T, opts RouterOptions, probs ...float32) *testServer {
	t.Helper()
	fake := classifytest.New(probs...)
	m := metrics.NewManager()
	logger, err := logging.New(io.Discard, "debug", "text")
	require.NoError(t, err)

	svc, err := classify.New(fake, classify.WithMetrics(m), classify.WithLogger(logger))
	require.NoError(t, err)

	opts.Logger = logger
	return &testServer{
		fake:    fake,
		metrics: m,
		handler: NewHandler(svc, m, 1<<20).Routes(opts),
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, []any{"glioma", "meningioma", "notumor", "pituitary"}, body["classes"])
	assert.Equal(t, float64(128), body["image_size"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestLabels(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	w := s.do(httptest.NewRequest(http.MethodGet, "/labels", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp labelsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Labels, 4)
	assert.Equal(t, "#EA4335", resp.Labels[0].Color)
	assert.False(t, resp.Labels[2].Tumor)
	assert.NotEmpty(t, resp.Disclaimer)
}

func TestPredictFromImage(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, 0.05, 0.05, 0.85, 0.05)
	req := uploadRequest(t, "image", "scan.png", pngBytes(t, 200, 150))
	req.Header.Set(RequestIDHeader, "req-42")

	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	body := decodeBody(t, w)
	assert.Equal(t, "notumor", body["class"])
	assert.InDelta(t, 0.85, body["confidence"], 1e-6)
	assert.Equal(t, "85.00%", body["confidence_percent"])
	assert.Equal(t, "medium", body["band"])
	assert.Equal(t, "#FBBC05", body["band_color"])

	desc := body["description"].(map[string]any)
	assert.Equal(t, "No Tumor Detected!", desc["headline"])

	assert.Equal(t, []int64{1, 128, 128, 3}, s.fake.LastTensor().Shape)
}

func TestPredictFromImageErrors(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, 0.25, 0.25, 0.25, 0.25)

	cases := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"wrong field", uploadRequest(t, "file", "scan.png", pngBytes(t, 4, 4)), http.StatusBadRequest, "bad_request"},
		{"unsupported extension", uploadRequest(t, "image", "scan.gif", pngBytes(t, 4, 4)), http.StatusBadRequest, "unsupported_format"},
		{"corrupt image", uploadRequest(t, "image", "scan.jpg", []byte("not a jpeg")), http.StatusBadRequest, "invalid_image"},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/predict/image", strings.NewReader("x")), http.StatusBadRequest, "bad_request"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := s.do(c.req)
			assert.Equal(t, c.status, w.Code)
			assert.Equal(t, c.code, decodeBody(t, w)["code"])
		})
	}
	assert.Equal(t, 0, s.fake.Calls())
}

func TestPredictFromImageInferenceFailure(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	s.fake.Err = errors.New("session run failed")

	w := s.do(uploadRequest(t, "image", "scan.png", pngBytes(t, 16, 16)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", decodeBody(t, w)["code"])
}

func TestPredictRaw(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, 0.1, 0.1, 0.1, 0.7)

	payload, err := json.Marshal(map[string][]float32{"image": make([]float32, 128*128*3)})
	require.NoError(t, err)
	w := s.do(httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(payload)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "pituitary", decodeBody(t, w)["class"])

	w = s.do(httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"image":[1,2,3]}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "Expected 49152 values, got 3")

	w = s.do(httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{"image":`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON", decodeBody(t, w)["message"])
}

func TestPredictRawTooLarge(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	big := bytes.Repeat([]byte("1"), 2<<20)
	w := s.do(httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMethodAndRouteHandling(t *testing.T) {
	s := newTestServer(t, RouterOptions{})

	w := s.do(httptest.NewRequest(http.MethodOptions, "/predict/image", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "POST, GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

	w = s.do(httptest.NewRequest(http.MethodGet, "/predict/image", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, RouterOptions{RateLimit: 1, RateWindow: time.Minute}, 0.25, 0.25, 0.25, 0.25)

	w := s.do(uploadRequest(t, "image", "scan.png", pngBytes(t, 8, 8)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(uploadRequest(t, "image", "scan.png", pngBytes(t, 8, 8)))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "rate_limited", decodeBody(t, w)["code"])

	// Health is never limited.
	w = s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, RouterOptions{}, 0.25, 0.25, 0.25, 0.25)
	s.do(uploadRequest(t, "image", "scan.png", pngBytes(t, 8, 8)))
	s.do(uploadRequest(t, "image", "scan.bmp", pngBytes(t, 8, 8)))

	w := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	text := w.Body.String()
	assert.Contains(t, text, `braintumor_http_requests_total{endpoint="predict_image",method="POST",status_code="200"} 1`)
	assert.Contains(t, text, `braintumor_classifier_decode_failures_total{reason="unsupported_format"} 1`)
	assert.Contains(t, text, `braintumor_classifier_predictions_total{label="glioma"} 1`)
}

func TestResponseWriterUnwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	assert.Same(t, rec, wrapped.Unwrap())

	// Flush goes through Unwrap to the recorder.
	require.NoError(t, http.NewResponseController(wrapped).Flush())
	assert.True(t, rec.Flushed)
}

func TestEndpoints(t *testing.T) {
	assert.Len(t, Endpoints(), 5)
}
