package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a metrics manager", t, func() {
		m := NewManager()

		Convey("When predictions are observed", func() {
			m.ObservePrediction("glioma", 0.95)
			m.ObservePrediction("glioma", 0.5)
			m.ObservePrediction("notumor", 0.8)

			Convey("Then the per-label counters reflect them", func() {
				So(testutil.ToFloat64(m.predictions.WithLabelValues("glioma")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.predictions.WithLabelValues("notumor")), ShouldEqual, 1)
				So(testutil.CollectAndCount(m.predictionConfidence), ShouldEqual, 1)
			})
		})

		Convey("When failures are recorded", func() {
			m.RecordDecodeFailure("unsupported_format")
			m.RecordDecodeFailure("unsupported_format")
			m.RecordPredictionError("inference")

			Convey("Then they are counted by reason", func() {
				So(testutil.ToFloat64(m.decodeFailures.WithLabelValues("unsupported_format")), ShouldEqual, 2)
				So(testutil.ToFloat64(m.predictionErrors.WithLabelValues("inference")), ShouldEqual, 1)
			})
		})

		Convey("When HTTP requests are recorded", func() {
			m.RecordHTTPRequest("predict_image", "POST", "200", 20*time.Millisecond)

			Convey("Then the request counter increments", func() {
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("predict_image", "POST", "200")), ShouldEqual, 1)
			})
		})

		Convey("When the handler is scraped", func() {
			m.ObserveInference(15 * time.Millisecond)
			m.ObservePreprocess(2 * time.Millisecond)
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			w := httptest.NewRecorder()
			m.Handler().ServeHTTP(w, req)

			Convey("Then it returns the exposition text", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "braintumor_classifier_inference_duration_seconds")
				So(w.Body.String(), ShouldContainSubstring, "braintumor_classifier_preprocess_duration_seconds")
			})
		})
	})

	Convey("Given a manager with custom options", t, func() {
		m := NewManager(WithNamespace("mri"), WithSubsystem("cnn"), WithHistogramBuckets([]float64{1}), WithRuntimeMetrics(true))
		m.ObserveInference(time.Second)

		Convey("Then metric names use the namespace", func() {
			families, err := m.Registry().Gather()
			So(err, ShouldBeNil)
			names := map[string]bool{}
			for _, f := range families {
				names[f.GetName()] = true
			}
			So(names["mri_cnn_inference_duration_seconds"], ShouldBeTrue)
			So(names["go_goroutines"], ShouldBeTrue)
		})
	})
}
