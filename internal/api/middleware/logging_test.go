package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestRequestLoggingIncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	handler := CorrelationID(logger)(RequestLogging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")

	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry struct {
		RequestID string `json:"request_id"`
		Method    string `json:"method"`
		Status    int    `json:"status"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parse access log line: %v (raw: %s)", err, buf.String())
	}
	if entry.Message != "request" {
		t.Fatalf("expected access log entry, got message %q", entry.Message)
	}
	if entry.RequestID != "req-abc-123" {
		t.Errorf("expected request_id req-abc-123, got %q", entry.RequestID)
	}
	if entry.Status != http.StatusOK {
		t.Errorf("expected status 200, got %d", entry.Status)
	}
}

func TestCorrelationIDGeneratesWhenMissing(t *testing.T) {
	logger := zerolog.Nop()

	handler := CorrelationID(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("expected a generated request id in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))

	if res.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header to be set")
	}
}
