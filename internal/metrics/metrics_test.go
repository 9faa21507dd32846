package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseOperation(t *testing.T) {
	m := New()
	m.ExpenseOperation("add", "ok")
	m.ExpenseOperation("add", "ok")
	m.ExpenseOperation("settle", "invalid_state")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExpenseOpsTotal.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExpenseOpsTotal.WithLabelValues("settle", "invalid_state")))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /edit/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := m.Middleware(mux)

	for _, path := range []string{"/edit/1", "/edit/2"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "GET /edit/{id}", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.Login("failed")
	m.ReportGenerated()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `expense_ledger_logins_total{result="failed"} 1`)
	assert.Contains(t, string(body), "expense_ledger_pdf_reports_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
