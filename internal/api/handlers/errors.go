package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// MaxQueryLength bounds the identifier accepted in a q parameter. DIDs are
// capped at 2KB and every other identifier form is shorter.
const MaxQueryLength = 2048

// ErrorResponse represents an XRPC error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errorType,
		Message: message,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// WriteJSON pre-encodes v and writes it with a 200 status. Encoding failures
// become a 500 since headers have not been sent yet.
func WriteJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("ERROR: Failed to encode response: %v", err)
		WriteError(w, http.StatusInternalServerError, "InternalServerError", "Failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Printf("ERROR: Failed to write response: %v", err)
	}
}
