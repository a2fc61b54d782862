// Package httpx provides JSON response utilities for the stock ledger API.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the success-or-errors response shape of every API operation.
// Data and Errors may both be set for partially successful batch reads.
type Envelope struct {
	Data   any `json:"data,omitempty"`
	Errors any `json:"errors,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Data sends a 200 envelope wrapping the payload.
func Data(w http.ResponseWriter, payload any) {
	JSON(w, http.StatusOK, Envelope{Data: payload})
}

// Errors sends an envelope carrying only reportable error details.
func Errors(w http.ResponseWriter, status int, details any) {
	JSON(w, status, Envelope{Errors: details})
}

// DecodeJSON decodes the request body into the target struct, rejecting
// unknown fields.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
