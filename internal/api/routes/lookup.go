package routes

import (
	"Internect/internal/api/handlers/lookup"
	"Internect/internal/api/handlers/repo"
	corelookup "Internect/internal/core/lookup"
	"Internect/internal/core/repos"

	"github.com/go-chi/chi/v5"
)

// RegisterLookupRoutes registers identity lookup endpoints
func RegisterLookupRoutes(r chi.Router, lookupService corelookup.Service) {
	handler := lookup.NewResolveHandler(lookupService)

	// GET /xrpc/info.internect.lookup.resolve
	r.Get("/xrpc/info.internect.lookup.resolve", handler.HandleResolve)

	// GET /lookup - browser form target, answers with a 303
	r.Get("/lookup", handler.HandleRedirect)
}

// RegisterRepoRoutes registers repository browsing endpoints
func RegisterRepoRoutes(r chi.Router, repoService repos.Service) {
	handler := repo.NewBrowseHandler(repoService)

	// GET /xrpc/info.internect.lookup.getCollections
	r.Get("/xrpc/info.internect.lookup.getCollections", handler.HandleGetCollections)

	// GET /xrpc/info.internect.lookup.listRecords
	r.Get("/xrpc/info.internect.lookup.listRecords", handler.HandleListRecords)
}
