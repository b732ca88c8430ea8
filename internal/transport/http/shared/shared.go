// Package shared centralizes JSON response writing so every handler emits the
// same envelopes.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "linkage/pkg/domain-errors"
)

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a coded domain error into the JSON error envelope.
// Uncoded errors come out as a generic internal failure; details never leak
// to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error": string(code),
	})
}
