package prometheus

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prysmaticlabs/beacon-ingest/runtime"
	"github.com/prysmaticlabs/beacon-ingest/testing/assert"
	"github.com/prysmaticlabs/beacon-ingest/testing/require"
)

type mockService struct {
	status error
}

func (*mockService) Start()          {}
func (*mockService) Stop() error     { return nil }
func (m *mockService) Status() error { return m.status }

func TestHealthz(t *testing.T) {
	registry := runtime.NewServiceRegistry()
	m := &mockService{}
	require.NoError(t, registry.RegisterService(m))
	s := NewService("127.0.0.1:0", registry)

	rr := httptest.NewRecorder()
	s.healthzHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*prometheus.mockService: OK\n", rr.Body.String())

	m.status = errors.New("database closed")
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept", "application/json")
	s.healthzHandler(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, true, strings.Contains(rr.Body.String(), `"error":"database closed"`))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}
