// Package naming exposes the folder-naming engine over HTTP. Every endpoint
// is a pure computation; nothing is stored.
package naming

import (
	"net/http"
	"strings"

	"github.com/dalemusser/folderforge/internal/app/system/jsonutil"
	"github.com/dalemusser/folderforge/internal/app/system/naming"
	"github.com/dalemusser/folderforge/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the naming API.
type Handler struct {
	custom []naming.Preset
	logger *zap.Logger
}

// NewHandler creates a Handler offering custom presets ahead of the
// built-in ones.
func NewHandler(custom []naming.Preset, logger *zap.Logger) *Handler {
	return &Handler{custom: custom, logger: logger}
}

// Presets handles GET /presets.
func (h *Handler) Presets(w http.ResponseWriter, r *http.Request) {
	out := make([]naming.Preset, 0, len(h.custom)+len(naming.BuiltinPresets))
	out = append(out, h.custom...)
	out = append(out, naming.BuiltinPresets...)
	if c := r.URL.Query().Get("category"); c != "" {
		filtered := out[:0]
		for _, p := range out {
			if p.Category == c {
				filtered = append(filtered, p)
			}
		}
		out = filtered
	}
	jsonutil.OK(w, out)
}

type parseRequest struct {
	Name  string   `json:"name"`
	Names []string `json:"names"`
}

// Parse handles POST /parse. It accepts one name or a list.
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var in parseRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if len(in.Names) > 0 {
		out := make([]naming.ParsedName, len(in.Names))
		for i, n := range in.Names {
			out[i] = naming.ParseFolderName(n)
		}
		jsonutil.OK(w, out)
		return
	}
	if in.Name == "" {
		jsonutil.ValidationError(w, map[string]string{"name": "required"})
		return
	}
	jsonutil.OK(w, naming.ParseFolderName(in.Name))
}

type detectRequest struct {
	Names []string `json:"names"`
}

type detectResponse struct {
	Sibling  naming.SiblingPattern    `json:"sibling"`
	Patterns []naming.DetectedPattern `json:"patterns"`
}

// Detect handles POST /detect: the dominant sibling convention and every
// convention shared by at least two names.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	var in detectRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	patterns := naming.DetectNamingPatterns(in.Names)
	if patterns == nil {
		patterns = []naming.DetectedPattern{}
	}
	jsonutil.OK(w, detectResponse{
		Sibling:  naming.DetectNamePattern(in.Names),
		Patterns: patterns,
	})
}

type generateRequest struct {
	BaseName        string   `json:"base_name"`
	Siblings        []string `json:"siblings"`
	ParentHierarchy string   `json:"parent_hierarchy"`
}

// Generate handles POST /generate: the name a new folder would get after
// the given siblings, listed in order.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var in generateRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	base := strings.TrimSpace(in.BaseName)
	if base == "" {
		jsonutil.ValidationError(w, map[string]string{"base_name": "required"})
		return
	}
	siblings := make([]models.FolderNode, len(in.Siblings))
	for i, name := range in.Siblings {
		siblings[i] = models.FolderNode{Name: name, SortOrder: i}
	}
	jsonutil.OK(w, map[string]string{
		"name": naming.GenerateNextFolderName(base, siblings, in.ParentHierarchy),
	})
}

type applyRequest struct {
	BaseNames []string              `json:"base_names"`
	PresetID  string                `json:"preset_id"`
	Pattern   *naming.NamingPattern `json:"pattern"`
	Strip     bool                  `json:"strip"`
}

// Apply handles POST /apply: decorate a flat list of names with a preset or
// an explicit pattern, numbering by list position.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	var in applyRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}

	var pattern naming.NamingPattern
	switch {
	case in.Pattern != nil:
		pattern = *in.Pattern
		if pattern.Increment == 0 {
			pattern.Increment = 1
		}
	case in.PresetID != "":
		p, ok := naming.FindPreset(in.PresetID, h.custom)
		if !ok {
			jsonutil.NotFound(w, "unknown preset "+in.PresetID)
			return
		}
		pattern = p.Pattern
	default:
		jsonutil.ValidationError(w, map[string]string{"pattern": "preset_id or pattern is required"})
		return
	}

	out := make([]string, len(in.BaseNames))
	for i, name := range in.BaseNames {
		if in.Strip {
			name = naming.StripPrefixSuffix(name, naming.StripAll)
		}
		out[i] = naming.ApplyNamingPattern(name, pattern, i)
	}
	jsonutil.OK(w, map[string]any{"names": out})
}
