package models

import (
	"encoding/json"
	"net/http"
)

// Problem is the application/problem+json body (RFC 7807) of every error
// response. TraceID repeats the request ID so a client report can be matched
// against the server log.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError points at one rejected query parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const problemBase = "https://statuswatch.dev/problems/"

// Problem type URIs.
const (
	ProblemTypeValidation       = problemBase + "validation-error"
	ProblemTypeNotFound         = problemBase + "not-found"
	ProblemTypeMethodNotAllowed = problemBase + "method-not-allowed"
	ProblemTypeTooManyRequests  = problemBase + "too-many-requests"
	ProblemTypeTLSRequired      = problemBase + "tls-required"
	ProblemTypeInternal         = problemBase + "internal-error"
	ProblemTypeUnavailable      = problemBase + "service-unavailable"
)

// problemKinds maps each status the API emits to its type URI and title.
var problemKinds = map[int]struct {
	uri   string
	title string
}{
	http.StatusBadRequest:          {ProblemTypeValidation, "Validation error"},
	http.StatusNotFound:            {ProblemTypeNotFound, "Not found"},
	http.StatusMethodNotAllowed:    {ProblemTypeMethodNotAllowed, "Method not allowed"},
	http.StatusTooManyRequests:     {ProblemTypeTooManyRequests, "Too many requests"},
	http.StatusInternalServerError: {ProblemTypeInternal, "Internal server error"},
	http.StatusServiceUnavailable:  {ProblemTypeUnavailable, "Service unavailable"},
}

// NewProblem builds a Problem with an explicit type and title.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{Type: problemType, Title: title, Status: status, TraceID: traceID}
}

func newKnown(status int, traceID, detail string) *Problem {
	kind := problemKinds[status]
	p := NewProblem(kind.uri, kind.title, status, traceID)
	p.Detail = detail
	return p
}

func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

func (p *Problem) WithInstance(instance string) *Problem {
	p.Instance = instance
	return p
}

func (p *Problem) WithErrors(errors []FieldError) *Problem {
	p.Errors = errors
	return p
}

// Write sends p with its status code. The request ID header is echoed here
// too so middleware that short-circuits still returns it.
func (p *Problem) Write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		h.Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest reports rejected query parameters (400).
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	return newKnown(http.StatusBadRequest, traceID, detail).WithErrors(errors)
}

func NewNotFound(traceID, detail string) *Problem {
	return newKnown(http.StatusNotFound, traceID, detail)
}

// NewMethodNotAllowed is sent for a known path with an unsupported method.
// The caller sets the Allow header.
func NewMethodNotAllowed(traceID, detail string) *Problem {
	return newKnown(http.StatusMethodNotAllowed, traceID, detail)
}

func NewTooManyRequests(traceID, detail string) *Problem {
	return newKnown(http.StatusTooManyRequests, traceID, detail)
}

func NewInternalError(traceID, detail string) *Problem {
	return newKnown(http.StatusInternalServerError, traceID, detail)
}

// NewServiceUnavailable is used until the first snapshot exists.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return newKnown(http.StatusServiceUnavailable, traceID, detail)
}
