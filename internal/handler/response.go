package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// dataEnvelope wraps successful responses
type dataEnvelope struct {
	Data interface{} `json:"data"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteData writes a successful response wrapped in a data envelope
func WriteData(w http.ResponseWriter, status int, v interface{}) {
	WriteJSON(w, status, dataEnvelope{Data: v})
}

// WriteNoContent writes a 204 response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError maps err to a problem response and writes it
func WriteError(w http.ResponseWriter, err error) {
	MapServiceError(err).WriteJSON(w)
}

// DecodeJSON decodes a request body into dst, rejecting unknown fields
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("request body is empty")
		default:
			return fmt.Errorf("invalid request body: %w", err)
		}
	}

	// A second value means trailing garbage after the JSON document
	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}
