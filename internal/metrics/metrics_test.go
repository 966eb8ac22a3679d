package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveEstimate(t *testing.T) {
	m := New()

	m.ObserveEstimate("reference", 5.4)
	m.ObserveEstimate("reference", 3)
	m.ObserveEstimate("default", 30)

	if got := testutil.ToFloat64(m.Estimates.WithLabelValues("reference")); got != 2 {
		t.Errorf("reference estimates: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Estimates.WithLabelValues("default")); got != 1 {
		t.Errorf("default estimates: got %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.AreaSquareM); got != 1 {
		t.Errorf("histogram series: got %d, want 1", got)
	}
}

func TestObserveError(t *testing.T) {
	m := New()
	m.ObserveError(KindConfiguration)
	m.ObserveError(KindConfiguration)
	m.ObserveError(KindDegenerate)

	if got := testutil.ToFloat64(m.Errors.WithLabelValues(KindConfiguration)); got != 2 {
		t.Errorf("configuration errors: got %v", got)
	}
	if got := testutil.ToFloat64(m.Errors.WithLabelValues(KindDegenerate)); got != 1 {
		t.Errorf("degenerate errors: got %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveEstimate("default", 20)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"area_estimates_total", `method="default"`, "area_estimate_square_meters_bucket"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
