package lookup

import (
	"log"
	"net/http"
	"net/url"

	"Internect/internal/api/handlers"
	"Internect/internal/core/lookup"
)

// ResolveHandler serves identity lookups
type ResolveHandler struct {
	service lookup.Service
}

// NewResolveHandler creates a new lookup handler
func NewResolveHandler(service lookup.Service) *ResolveHandler {
	return &ResolveHandler{service: service}
}

// HandleResolve resolves an identifier and returns the full identity
// GET /xrpc/info.internect.lookup.resolve?q={handle|did|at-uri|profile-url}
func (h *ResolveHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query().Get("q")
	if len(q) > handlers.MaxQueryLength {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "q parameter exceeds maximum length")
		return
	}

	ident, err := h.service.Resolve(r.Context(), q)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, ident)
}

// HandleRedirect resolves an identifier and redirects the browser to its
// page, or back to the search page with the error message.
// GET /lookup?q=...
func (h *ResolveHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if len(q) > handlers.MaxQueryLength {
		redirectWithError(w, r, "Invalid input. Not sure what you're on about.")
		return
	}

	ident, err := h.service.Resolve(r.Context(), q)
	if err != nil {
		if !lookup.IsKind(err, lookup.KindInvalidInput) {
			log.Printf("[LOOKUP] redirect lookup for %q failed: %v", q, err)
		}
		redirectWithError(w, r, userMessage(err))
		return
	}

	http.Redirect(w, r, "/at/"+ident.DID, http.StatusSeeOther)
}

func redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(message), http.StatusSeeOther)
}
