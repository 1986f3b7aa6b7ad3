package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/storytrack/backend/domain"
)

// Envelope is the standard wrapper for successful responses.
type Envelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// Problem is the structured error body returned for every failed request.
type Problem struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// String returns the JSON representation (best-effort) for logging purposes.
func (p Problem) String() string {
	out, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// NewProblem maps a domain error onto its HTTP representation.
// Anything without a domain classification is an internal fault and
// surfaces opaquely; the detail stays server-side.
func NewProblem(err error) Problem {
	status, title := statusFor(err)
	problem := Problem{
		Type:   string(codeFor(err)),
		Title:  title,
		Status: status,
	}
	if status != http.StatusInternalServerError {
		problem.Detail = err.Error()
	}

	var dErr *domain.Error
	if errors.As(err, &dErr) {
		problem.Fields = dErr.Fields
	}
	return problem
}

func codeFor(err error) domain.ErrorCode {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return domain.ErrCodeInternal
}

func statusFor(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, "forbidden"
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, "validation failed"
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, "not found"
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
