package repo

import (
	"net/http"
	"strconv"

	"Internect/internal/api/handlers"
	"Internect/internal/core/repos"
)

// BrowseHandler serves repository listings for a resolved identity
type BrowseHandler struct {
	service repos.Service
}

// NewBrowseHandler creates a new repository browsing handler
func NewBrowseHandler(service repos.Service) *BrowseHandler {
	return &BrowseHandler{service: service}
}

// HandleGetCollections lists the collections in an identity's repository
// GET /xrpc/info.internect.lookup.getCollections?q=...
func (h *BrowseHandler) HandleGetCollections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query().Get("q")
	if len(q) > handlers.MaxQueryLength {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "q parameter exceeds maximum length")
		return
	}

	result, err := h.service.Collections(r.Context(), q)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, result)
}

// HandleListRecords lists one page of records from a collection
// GET /xrpc/info.internect.lookup.listRecords?q=...&collection=...&limit=50&cursor=...
func (h *BrowseHandler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	q := query.Get("q")
	if len(q) > handlers.MaxQueryLength {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "q parameter exceeds maximum length")
		return
	}

	collection := query.Get("collection")
	if collection == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "collection parameter is required")
		return
	}

	limit := 0
	if v := query.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "limit must be an integer")
			return
		}
		limit = parsed
	}

	result, err := h.service.ListRecords(r.Context(), q, collection, limit, query.Get("cursor"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, result)
}
