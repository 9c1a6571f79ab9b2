package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/statuswatch/statuswatch/internal/api/middleware"
	"github.com/statuswatch/statuswatch/internal/api/models"
	"github.com/statuswatch/statuswatch/internal/api/response"
)

// requestWithID returns a request whose context carries a request ID.
func requestWithID(t *testing.T, method, path string) *http.Request {
	t.Helper()
	var processed *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		processed = r
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, http.NoBody))
	return processed
}

func TestJSON_IncludesRequestID(t *testing.T) {
	req := requestWithID(t, http.MethodGet, "/v1/status")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Request-Id"); got != middleware.GetRequestID(req.Context()) {
		t.Errorf("expected X-Request-Id %q, got %q", middleware.GetRequestID(req.Context()), got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}
}

func TestJSON_WithoutRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody), http.StatusOK, nil)

	if rec.Header().Get("X-Request-Id") != "" {
		t.Error("expected no X-Request-Id header")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got %q", rec.Body.String())
	}
}

func TestSnapshot_ConditionalGet(t *testing.T) {
	generated := time.Date(2025, 10, 15, 12, 0, 0, 500, time.UTC)

	tests := []struct {
		name  string
		since string
		want  int
	}{
		{"no header", "", http.StatusOK},
		{"same second", generated.Format(http.TimeFormat), http.StatusNotModified},
		{"client newer", generated.Add(time.Minute).Format(http.TimeFormat), http.StatusNotModified},
		{"client older", generated.Add(-time.Minute).Format(http.TimeFormat), http.StatusOK},
		{"garbage", "yesterday", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithID(t, http.MethodGet, "/v1/status")
			if tt.since != "" {
				req.Header.Set("If-Modified-Since", tt.since)
			}
			rec := httptest.NewRecorder()

			response.Snapshot(rec, req, generated, map[string]int{"count": 1})

			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
			if lm := rec.Header().Get("Last-Modified"); lm != "Wed, 15 Oct 2025 12:00:00 GMT" {
				t.Errorf("unexpected Last-Modified %q", lm)
			}
			if tt.want == http.StatusNotModified && rec.Body.Len() != 0 {
				t.Errorf("expected empty body on 304, got %q", rec.Body.String())
			}
		})
	}
}

func TestProblems(t *testing.T) {
	tests := []struct {
		name    string
		write   func(http.ResponseWriter, *http.Request)
		status  int
		typeURI string
	}{
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			response.BadRequest(w, r, "invalid limit", []models.FieldError{{Field: "limit", Message: "out of range"}})
		}, http.StatusBadRequest, models.ProblemTypeValidation},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			response.NotFound(w, r, "unknown provider")
		}, http.StatusNotFound, models.ProblemTypeNotFound},
		{"internal", func(w http.ResponseWriter, r *http.Request) {
			response.InternalError(w, r, "boom")
		}, http.StatusInternalServerError, models.ProblemTypeInternal},
		{"unavailable", func(w http.ResponseWriter, r *http.Request) {
			response.ServiceUnavailable(w, r, "no snapshot yet")
		}, http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithID(t, http.MethodGet, "/v1/status/nope")
			rec := httptest.NewRecorder()

			tt.write(rec, req)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("expected problem+json, got %q", ct)
			}

			var problem models.Problem
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("decoding problem: %v", err)
			}
			if problem.Type != tt.typeURI {
				t.Errorf("expected type %q, got %q", tt.typeURI, problem.Type)
			}
			if problem.Instance != "/v1/status/nope" {
				t.Errorf("expected instance /v1/status/nope, got %q", problem.Instance)
			}
			if problem.TraceID != middleware.GetRequestID(req.Context()) {
				t.Errorf("expected traceId to match request ID")
			}
		})
	}
}
