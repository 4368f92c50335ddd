// Package httputil provides the JSON envelope, request parsing and
// middleware shared by the HTTP handlers.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response shape the dashboard client expects:
// data holds the payload on success and a reason string on failure.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 success envelope around data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// WriteFailure writes a failure envelope carrying reason
func WriteFailure(w http.ResponseWriter, status int, reason string) {
	_ = WriteJSON(w, status, Envelope{Success: false, Data: reason})
}

// WriteBadRequest writes a bad request failure (400)
func WriteBadRequest(w http.ResponseWriter, reason string) {
	WriteFailure(w, http.StatusBadRequest, reason)
}

// WriteUnauthorized writes an unauthorized failure (401)
func WriteUnauthorized(w http.ResponseWriter, reason string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="aiwu-analytics"`)
	WriteFailure(w, http.StatusUnauthorized, reason)
}

// WriteForbidden writes a forbidden failure (403)
func WriteForbidden(w http.ResponseWriter, reason string) {
	WriteFailure(w, http.StatusForbidden, reason)
}

// WriteInternalError writes a generic 500 failure. The underlying error is
// not exposed to the client.
func WriteInternalError(w http.ResponseWriter) {
	WriteFailure(w, http.StatusInternalServerError, "internal server error")
}

// WriteServiceUnavailable writes a service unavailable failure (503)
func WriteServiceUnavailable(w http.ResponseWriter, reason string) {
	WriteFailure(w, http.StatusServiceUnavailable, reason)
}
