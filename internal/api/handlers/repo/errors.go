package repo

import (
	"errors"
	"log"
	"net/http"

	"Internect/internal/api/handlers"
	"Internect/internal/core/lookup"
	"Internect/internal/core/repos"
)

// handleServiceError maps repository browsing errors to HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	var pe *lookup.PipelineError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case lookup.KindInvalidInput, lookup.KindUnsupportedMethod:
			handlers.WriteError(w, http.StatusBadRequest, string(pe.Kind), pe.Message())
		case lookup.KindHandleNotFound, lookup.KindDIDNotFound:
			handlers.WriteError(w, http.StatusNotFound, string(pe.Kind), pe.Message())
		default:
			log.Printf("ERROR: Repo lookup error: %v", err)
			handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
		}
		return
	}

	var upstream *repos.UpstreamError
	switch {
	case errors.Is(err, repos.ErrNoPDS):
		handlers.WriteError(w, http.StatusNotFound, "PDSNotFound", "This identity does not declare a PDS")

	case errors.Is(err, repos.ErrInvalidCollection):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "collection must be a valid NSID")

	case errors.Is(err, repos.ErrInvalidLimit):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())

	case errors.As(err, &upstream):
		// already logged by the service
		handlers.WriteError(w, http.StatusBadGateway, "UpstreamFailure", "The PDS could not be reached")

	default:
		log.Printf("ERROR: Repo service error: %v", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
