package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestServerProbes(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		path       string
		wantStatus int
	}{
		{"healthz", stubPinger{}, "/healthz", http.StatusOK},
		{"ready", stubPinger{}, "/readyz", http.StatusOK},
		{"not ready", stubPinger{err: errors.New("connection refused")}, "/readyz", http.StatusServiceUnavailable},
		{"no pinger", nil, "/readyz", http.StatusOK},
		{"metrics", nil, "/metrics", http.StatusOK},
		{"no api", nil, "/api/alerts", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(tt.pinger, 0, nil, nil)

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestServerMountsAPI(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	srv := NewServer(nil, 0, api, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/graph", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
