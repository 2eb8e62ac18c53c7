package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if seen == "" {
		t.Fatal("no request id in handler context")
	}
	if got := rec.Header().Get(requestIDHeader); got != seen {
		t.Fatalf("header id = %q, context id = %q", got, seen)
	}
}

func TestResponseRecorderCapturesStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	recorder := newResponseRecorder(rec)

	recorder.WriteHeader(http.StatusNotFound)
	if _, err := recorder.Write([]byte(`{"error":"missing"}`)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if recorder.status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.status)
	}
	if recorder.bytes != len(`{"error":"missing"}`) {
		t.Fatalf("bytes = %d", recorder.bytes)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("underlying status = %d", rec.Code)
	}
}

func TestResponseRecorderDefaultsToOK(t *testing.T) {
	recorder := newResponseRecorder(httptest.NewRecorder())
	if _, err := recorder.Write([]byte("ok")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if recorder.status != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.status)
	}
}
