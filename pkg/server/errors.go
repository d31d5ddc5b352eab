package server

import (
	"errors"
	"net/http"

	"mercator-hq/ladder/pkg/engine"
	"mercator-hq/ladder/pkg/rules"
)

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error"
	ErrorTypeAuthentication     = "authentication_error"
	ErrorTypeRateLimit          = "rate_limit_error"
	ErrorTypeNotFound           = "not_found"
	ErrorTypeUnprocessable      = "unprocessable_input"
	ErrorTypeServerError        = "server_error"
	ErrorTypeServiceUnavailable = "service_unavailable"
)

// Error codes.
const (
	CodeInvalidJSON    = "invalid_json"
	CodeBodyTooLarge   = "body_too_large"
	CodeMissingField   = "missing_field"
	CodeLadderNotFound = "ladder_not_found"
	CodeMismatchedType = "mismatched_type"
	CodeEngineClosed   = "engine_closed"
	CodeCancelled      = "cancelled"
	CodeMissingAPIKey  = "missing_api_key"
	CodeInvalidAPIKey  = "invalid_api_key"
	CodeRateLimited    = "rate_limited"
)

type badRequestError struct {
	message string
}

func (e *badRequestError) Error() string { return e.message }

func errBadRequest(message string) error {
	return &badRequestError{message: message}
}

// writeEvaluationError maps engine and rule errors to HTTP answers.
func (s *Server) writeEvaluationError(w http.ResponseWriter, err error) {
	var badReq *badRequestError
	switch {
	case errors.As(err, &badReq):
		writeError(w, http.StatusBadRequest, ErrorTypeInvalidRequest, CodeMissingField, err.Error())
	case errors.Is(err, engine.ErrLadderNotFound):
		writeError(w, http.StatusNotFound, ErrorTypeNotFound, CodeLadderNotFound, err.Error())
	case errors.Is(err, rules.ErrMismatchedType):
		writeError(w, http.StatusUnprocessableEntity, ErrorTypeUnprocessable, CodeMismatchedType, err.Error())
	case errors.Is(err, engine.ErrEngineClosed):
		writeError(w, http.StatusServiceUnavailable, ErrorTypeServiceUnavailable, CodeEngineClosed, err.Error())
	case errors.Is(err, engine.ErrContextCancelled):
		writeError(w, http.StatusServiceUnavailable, ErrorTypeServiceUnavailable, CodeCancelled, err.Error())
	default:
		s.logger.Error("unexpected evaluation error", "error", err)
		writeError(w, http.StatusInternalServerError, ErrorTypeServerError, "", "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, errType, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    errType,
		Code:    code,
	}})
}
