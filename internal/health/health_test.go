package health

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/glados/internal/metrics"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestReadiness(t *testing.T) {
	s := New(0, nil)
	h := s.Handler()

	code, body := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"ok"`)

	code, body = get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "not_ready")

	s.SetReady(true)
	assert.True(t, s.Ready())
	code, _ = get(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, code)
}

func TestMetricsEndpoint(t *testing.T) {
	code, _ := get(t, New(0, nil).Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, code)

	m := metrics.New()
	m.RecordDegenerate()
	code, body := get(t, New(0, m.Handler()).Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "glados_degenerate_signals_total 1")
}
