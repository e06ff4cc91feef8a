// Package httpx provides JSON response helpers for the POS API envelope.
//
// Every endpoint answers with {"status":"success", ...} or
// {"status":"fail","message":...}; HTTP status codes still carry the
// error class for API clients that care.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the base response shape shared by all endpoints.
type Envelope map[string]any

// Success sends a success envelope merged with the given fields.
func Success(w http.ResponseWriter, fields Envelope) {
	body := Envelope{"status": "success"}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, http.StatusOK, body)
}

// Fail sends a fail envelope with an optional human-readable message.
func Fail(w http.ResponseWriter, status int, message string) {
	body := Envelope{"status": "fail"}
	if message != "" {
		body["message"] = message
	}
	JSON(w, status, body)
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
