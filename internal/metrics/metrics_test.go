package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveEvaluation(t *testing.T) {
	okBefore := testutil.ToFloat64(EvaluationsTotal.WithLabelValues("Hybrid", "ok"))
	errBefore := testutil.ToFloat64(EvaluationsTotal.WithLabelValues("Hybrid", "error"))

	var obs Evaluations
	obs.ObserveEvaluation("Hybrid", 2*time.Millisecond, nil)
	obs.ObserveEvaluation("Hybrid", time.Millisecond, errors.New("capacity"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(EvaluationsTotal.WithLabelValues("Hybrid", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(EvaluationsTotal.WithLabelValues("Hybrid", "error")))
}

func TestObserveStore(t *testing.T) {
	before := testutil.ToFloat64(RunsStored.WithLabelValues("error"))
	ObserveStore(errors.New("db down"))
	assert.Equal(t, before+1, testutil.ToFloat64(RunsStored.WithLabelValues("error")))
}

func TestMiddlewareRecordsStatus(t *testing.T) {
	h := Middleware("/api/test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/test", "418"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/test", "418")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	Evaluations{}.ObserveEvaluation("Diesel-Mechanical", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "propsim_evaluations_total"))
}
