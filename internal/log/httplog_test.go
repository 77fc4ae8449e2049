package log

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core).Sugar()

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantCode  int
		wantLevel zapcore.Level
	}{
		{
			name:      "implicit ok",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("hello")) },
			wantCode:  http.StatusOK,
			wantLevel: zapcore.DebugLevel,
		},
		{
			name:      "not found",
			handler:   func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
			wantCode:  http.StatusNotFound,
			wantLevel: zapcore.DebugLevel,
		},
		{
			name:      "server error",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantCode:  http.StatusInternalServerError,
			wantLevel: zapcore.WarnLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.TakeAll()
			h := HTTPMiddleware(logger)(tt.handler)
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/status", nil))

			entries := logs.TakeAll()
			if len(entries) != 1 {
				t.Fatalf("got %d log entries, want 1", len(entries))
			}
			e := entries[0]
			if e.Level != tt.wantLevel {
				t.Errorf("level = %v, want %v", e.Level, tt.wantLevel)
			}
			if got := e.ContextMap()["status"]; got != int64(tt.wantCode) {
				t.Errorf("status field = %v (%T), want %d", got, got, tt.wantCode)
			}
			if got := e.ContextMap()["path"]; got != "/api/status" {
				t.Errorf("path field = %v", got)
			}
		})
	}
}
