package folders

import (
	"net/http"

	"github.com/dalemusser/folderforge/internal/app/system/apicors"
	"github.com/dalemusser/folderforge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns the router for the folder API.
//
// When mounted at /api/templates:
//   - GET  /                                  - templates with stored folders
//   - GET  /{templateID}/tree                 - nested tree
//   - GET  /{templateID}/folders              - flat collection
//   - POST /{templateID}/folders              - add
//   - GET, PATCH, DELETE /{templateID}/folders/{id}
//   - POST /{templateID}/folders/{id}/move, /reorder, /indent, /outdent
//   - GET  /{templateID}/folders/{id}/next-name, /{templateID}/next-name
//   - POST /{templateID}/roots, /normalize, /renumber, /apply-pattern, /import
//   - POST /{templateID}/undo, /redo; GET /{templateID}/history
//   - GET  /{templateID}/pattern
//
// Authentication is via API key (Bearer token in Authorization header).
func Routes(h *Handler, apiKey string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(apicors.Middleware())
	r.Use(auth.APIKeyAuth(apiKey, logger))

	r.Get("/", h.ListTemplates)
	r.Route("/{templateID}", func(tr chi.Router) {
		tr.Get("/tree", h.Tree)
		tr.Get("/pattern", h.Pattern)
		tr.Get("/history", h.History)
		tr.Get("/next-name", h.NextName)

		tr.Get("/folders", h.Folders)
		tr.Post("/folders", h.Add)
		tr.Route("/folders/{id}", func(fr chi.Router) {
			fr.Get("/", h.Folder)
			fr.Patch("/", h.Update)
			fr.Delete("/", h.Delete)
			fr.Get("/next-name", h.NextName)
			fr.Post("/move", h.Move)
			fr.Post("/reorder", h.Reorder)
			fr.Post("/indent", h.Indent)
			fr.Post("/outdent", h.Outdent)
		})

		tr.Post("/roots", h.AddRoot)
		tr.Post("/normalize", h.Normalize)
		tr.Post("/renumber", h.Renumber)
		tr.Post("/apply-pattern", h.ApplyPattern)
		tr.Post("/import", h.Import)
		tr.Post("/undo", h.Undo)
		tr.Post("/redo", h.Redo)
	})
	return r
}
