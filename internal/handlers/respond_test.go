package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	applog "coffeeshop/internal/log"
)

type loggedRecord struct {
	message   string
	requestID string
}

type recordingHandler struct {
	mu      sync.Mutex
	records []loggedRecord
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(ctx context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, loggedRecord{message: record.Message, requestID: applog.RequestID(ctx)})
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) find(message string) (loggedRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, record := range h.records {
		if record.message == message {
			return record, true
		}
	}
	return loggedRecord{}, false
}

func recordLogs(t *testing.T) *recordingHandler {
	t.Helper()
	handler := &recordingHandler{}
	original := applog.Logger()
	applog.ReplaceLogger(slog.New(handler))
	t.Cleanup(func() {
		applog.ReplaceLogger(original)
	})
	return handler
}

func TestWriteJSONLogsEncodeFailureWithRequestID(t *testing.T) {
	logs := recordLogs(t)

	req := httptest.NewRequest(http.MethodGet, "/drinks", nil)
	req = req.WithContext(applog.WithRequestID(req.Context(), "req-42"))
	rr := httptest.NewRecorder()

	writeJSON(rr, req, http.StatusOK, map[string]float64{"parts": math.Inf(1)})

	record, ok := logs.find("failed to encode json response")
	if !ok {
		t.Fatal("expected encode failure to be logged")
	}
	if record.requestID != "req-42" {
		t.Fatalf("expected request id req-42 on encode failure, got %q", record.requestID)
	}
}
