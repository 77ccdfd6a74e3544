package lookup

import (
	"errors"
	"log"
	"net/http"

	"Internect/internal/api/handlers"
	"Internect/internal/core/lookup"
)

// statusFor maps a pipeline error kind to its HTTP status
func statusFor(kind lookup.ErrorKind) int {
	switch kind {
	case lookup.KindInvalidInput, lookup.KindUnsupportedMethod:
		return http.StatusBadRequest
	case lookup.KindHandleNotFound, lookup.KindDIDNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError maps pipeline errors to XRPC error responses
func handleServiceError(w http.ResponseWriter, err error) {
	var pe *lookup.PipelineError
	if errors.As(err, &pe) {
		status := statusFor(pe.Kind)
		if status == http.StatusInternalServerError {
			log.Printf("ERROR: Lookup pipeline error: %v", err)
			handlers.WriteError(w, status, "InternalServerError", "An internal error occurred")
			return
		}
		handlers.WriteError(w, status, string(pe.Kind), pe.Message())
		return
	}

	// Internal server error - don't leak details
	log.Printf("ERROR: Lookup service error: %v", err)
	handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
}

// userMessage is the text shown on the search page for a failed lookup
func userMessage(err error) string {
	var pe *lookup.PipelineError
	if errors.As(err, &pe) {
		return pe.Message()
	}
	return "Something went wrong. Please try again."
}
