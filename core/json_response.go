package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cultureforchange/members-api/pkg/validator"
)

// ErrorBody is the JSON shape of every non-2xx response.
// Details is populated only where a handler explicitly opts in
// (e.g. the profile update path echoes the raw upstream payload).
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Fail writes an error response with the given status and message.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// FailWithDetails writes an error response carrying an additional details payload.
func FailWithDetails(w http.ResponseWriter, status int, message string, details any) {
	JSON(w, status, ErrorBody{Error: message, Details: details})
}

// Error maps an error to the proper status code and writes the error body.
// Validation errors become 400 with the first violated rule's message and
// the full checklist in details; HTTPError values keep their status; anything
// else is reported as a generic 500 so upstream payloads never leak by accident.
func Error(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		JSON(w, http.StatusBadRequest, ErrorBody{
			Error:   ve[0].Message,
			Details: ve.Messages(),
		})
		return
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		Fail(w, httpErr.Code, httpErr.Key)
		return
	}

	Fail(w, http.StatusInternalServerError, "internal_server_error")
}
