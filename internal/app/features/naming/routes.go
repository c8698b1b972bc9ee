package naming

import (
	"net/http"

	"github.com/dalemusser/folderforge/internal/app/system/apicors"
	"github.com/dalemusser/folderforge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns the naming API router.
//
// When mounted at /api/naming:
//   - GET  /presets  - built-in and custom presets (?category= filters)
//   - POST /parse    - split names into prefix, base, suffix
//   - POST /detect   - sibling convention and all shared conventions
//   - POST /generate - next name after a list of siblings
//   - POST /apply    - decorate names with a pattern
func Routes(h *Handler, apiKey string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(apicors.Middleware())
	r.Use(auth.APIKeyAuth(apiKey, logger))

	r.Get("/presets", h.Presets)
	r.Post("/parse", h.Parse)
	r.Post("/detect", h.Detect)
	r.Post("/generate", h.Generate)
	r.Post("/apply", h.Apply)
	return r
}
