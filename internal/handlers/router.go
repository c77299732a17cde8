package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
)

// RouterOptions controls cross-cutting behavior of the API.
type RouterOptions struct {
	Logger log.FieldLogger

	// RateLimit is requests per RateWindow per client IP on the predict
	// routes. Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Routes wires every endpoint behind CORS and request logging.
func (h *Handler) Routes(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	limit := func(next http.Handler) http.Handler { return next }
	if opts.RateLimit > 0 && opts.RateWindow > 0 {
		limit = httprate.Limit(opts.RateLimit, opts.RateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, retry later")
			}),
		)
	}

	router := httprouter.New()
	handle := func(method, path, endpoint string, fn httprouter.Handle, limited bool) {
		var hh http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, httprouter.ParamsFromContext(r.Context()))
		})
		if limited {
			hh = limit(hh)
		}
		router.Handler(method, path, withMetrics(h.metrics, endpoint, hh))
	}

	handle(http.MethodGet, "/health", "health", h.Health, false)
	handle(http.MethodGet, "/labels", "labels", h.Labels, false)
	handle(http.MethodPost, "/predict", "predict", h.Predict, true)
	handle(http.MethodPost, "/predict/image", "predict_image", h.PredictFromImage, true)
	router.Handler(http.MethodGet, "/metrics", h.metrics.Handler())

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
	})

	return enableCORS(withRequestLog(logger, router))
}

// Endpoints lists the routes for the startup banner.
func Endpoints() []string {
	return []string{
		"GET  /health         - Health check",
		"GET  /labels         - Label descriptions",
		"POST /predict        - Raw array prediction",
		"POST /predict/image  - Predict from image upload",
		"GET  /metrics        - Prometheus metrics",
	}
}
