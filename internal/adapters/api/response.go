package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// statusFor maps engine results to HTTP status codes.
func statusFor(err error) int {
	var (
		denied     *domain.PermissionDenied
		nameErr    *domain.NameError
		missing    *domain.MissingFieldsError
		unexpected *domain.UnexpectedFieldsError
		fieldErr   *domain.FieldValueError
		collision  *domain.CollisionError
		refErr     *domain.ReferentialError
		reqErr     *requestError
	)
	switch {
	case errors.As(err, &denied):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &reqErr), errors.As(err, &nameErr), errors.As(err, &missing),
		errors.As(err, &unexpected), errors.As(err, &fieldErr),
		errors.Is(err, domain.ErrUnknownType), errors.Is(err, domain.ErrInvalidRule),
		errors.Is(err, domain.ErrNoDefaultGroup):
		return http.StatusBadRequest
	case errors.As(err, &collision), errors.As(err, &refErr), errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// errorBody is the JSON shape of every error response. Reason is set for
// permission denials so clients can tell them apart.
type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func errorBodyFor(err error, status int) errorBody {
	if status == http.StatusInternalServerError {
		return errorBody{Error: "internal server error"}
	}
	body := errorBody{Error: err.Error()}
	var denied *domain.PermissionDenied
	if errors.As(err, &denied) {
		body.Reason = string(denied.Reason)
	}
	return body
}
