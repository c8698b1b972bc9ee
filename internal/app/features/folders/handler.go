// Package folders provides the JSON API for editing a template's folder tree.
//
// Every route is scoped to /api/templates/{templateID}. The first request
// for a template opens an editing session through the registry; later
// requests share it until it goes idle.
package folders

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/folderforge/internal/app/store/foldernode"
	"github.com/dalemusser/folderforge/internal/app/system/dirimport"
	"github.com/dalemusser/folderforge/internal/app/system/editor"
	"github.com/dalemusser/folderforge/internal/app/system/foldertree"
	"github.com/dalemusser/folderforge/internal/app/system/history"
	"github.com/dalemusser/folderforge/internal/app/system/inputval"
	"github.com/dalemusser/folderforge/internal/app/system/jsonutil"
	"github.com/dalemusser/folderforge/internal/app/system/naming"
	"github.com/dalemusser/folderforge/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Sessions opens the editing session for a template.
type Sessions interface {
	Open(ctx context.Context, templateID string) (*editor.Session, error)
}

// TemplateLister lists templates that have stored folders. Optional.
type TemplateLister interface {
	ListTemplates(ctx context.Context) ([]foldernode.TemplateSummary, error)
}

// Handler serves the folder API.
type Handler struct {
	sessions Sessions
	lister   TemplateLister
	scanner  *dirimport.Scanner
	presets  []naming.Preset
	logger   *zap.Logger
}

// NewHandler creates a Handler. lister and scanner may be nil, which turns
// off template listing and server-side directory import respectively.
func NewHandler(sessions Sessions, lister TemplateLister, scanner *dirimport.Scanner, presets []naming.Preset, logger *zap.Logger) *Handler {
	if presets == nil {
		presets = naming.BuiltinPresets
	}
	return &Handler{
		sessions: sessions,
		lister:   lister,
		scanner:  scanner,
		presets:  presets,
		logger:   logger,
	}
}

func templateID(r *http.Request) string {
	return chi.URLParam(r, "templateID")
}

// session opens the request's session, writing the error response itself
// when that fails.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	id := strings.TrimSpace(templateID(r))
	if id == "" {
		jsonutil.BadRequest(w, "template id is required")
		return nil, false
	}
	s, err := h.sessions.Open(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "open", err)
		return nil, false
	}
	return s, true
}

/* ---------------------------------- reads --------------------------------- */

// ListTemplates handles GET /api/templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		jsonutil.Error(w, http.StatusNotImplemented, "template listing is not available for this storage backend")
		return
	}
	out, err := h.lister.ListTemplates(r.Context())
	if err != nil {
		h.logger.Error("failed to list templates", zap.Error(err))
		jsonutil.InternalError(w, "failed to list templates")
		return
	}
	if out == nil {
		out = []foldernode.TemplateSummary{}
	}
	jsonutil.OK(w, out)
}

type treeResponse struct {
	TemplateID string                 `json:"template_id"`
	Version    uint64                 `json:"version"`
	Tree       []*foldertree.TreeNode `json:"tree"`
}

// Tree handles GET /tree.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	tree := s.Tree()
	if tree == nil {
		tree = []*foldertree.TreeNode{}
	}
	jsonutil.OK(w, treeResponse{TemplateID: s.TemplateID(), Version: s.Version(), Tree: tree})
}

// Folders handles GET /folders, the flat collection.
func (h *Handler) Folders(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	nodes := s.Nodes()
	if nodes == nil {
		nodes = []models.FolderNode{}
	}
	jsonutil.OK(w, nodes)
}

// Folder handles GET /folders/{id}.
func (h *Handler) Folder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	n, found := s.Get(chi.URLParam(r, "id"))
	if !found {
		jsonutil.NotFound(w, "folder not found")
		return
	}
	jsonutil.OK(w, n)
}

type historyResponse struct {
	CanUndo bool             `json:"can_undo"`
	CanRedo bool             `json:"can_redo"`
	Undo    []history.Action `json:"undo"`
	Redo    []history.Action `json:"redo"`
}

// History handles GET /history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	undo, redo := s.History()
	if undo == nil {
		undo = []history.Action{}
	}
	if redo == nil {
		redo = []history.Action{}
	}
	jsonutil.OK(w, historyResponse{CanUndo: len(undo) > 0, CanRedo: len(redo) > 0, Undo: undo, Redo: redo})
}

// Pattern handles GET /pattern, the dominant prefix convention of the tree.
func (h *Handler) Pattern(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	jsonutil.OK(w, naming.AnalyzeTreePattern(s.Nodes()))
}

// NextName handles GET /folders/{id}/next-name?base= and, for new roots,
// GET /next-name?base=.
func (h *Handler) NextName(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var parent *string
	if id := chi.URLParam(r, "id"); id != "" {
		parent = &id
	}
	name, err := s.NextName(parent, r.URL.Query().Get("base"))
	if err != nil {
		h.writeError(w, r, "next_name", err)
		return
	}
	jsonutil.OK(w, map[string]string{"name": name})
}

/* ------------------------------ folder edits ------------------------------ */

type addRequest struct {
	ParentID     *string           `json:"parent_id"`
	Name         string            `json:"name" validate:"foldername,max=255" label:"Name"`
	BaseName     string            `json:"base_name" validate:"foldername,max=255" label:"Base name"`
	FolderType   models.FolderType `json:"folder_type" validate:"foldertype" label:"Folder type"`
	SortOrder    *int              `json:"sort_order"`
	IncludeFiles []string          `json:"include_files"`
	Metadata     map[string]any    `json:"metadata"`
}

// Add handles POST /folders.
//
// With base_name set the final name follows the siblings' numbering
// convention; otherwise name is used as given (an empty name is generated).
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var in addRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	var (
		n   models.FolderNode
		err error
	)
	if strings.TrimSpace(in.BaseName) != "" && strings.TrimSpace(in.Name) == "" {
		n, err = s.AddAuto(r.Context(), in.ParentID, in.BaseName, in.FolderType)
	} else {
		n, err = s.Add(r.Context(), editor.AddInput{
			ParentID:     in.ParentID,
			Name:         in.Name,
			FolderType:   in.FolderType,
			SortOrder:    in.SortOrder,
			IncludeFiles: in.IncludeFiles,
			Metadata:     in.Metadata,
		})
	}
	if err != nil {
		h.writeError(w, r, "add", err)
		return
	}
	jsonutil.Created(w, n)
}

type updateRequest struct {
	Name         *string            `json:"name"`
	FolderType   *models.FolderType `json:"folder_type"`
	SortOrder    *int               `json:"sort_order"`
	IncludeFiles []string           `json:"include_files"`
	Metadata     map[string]any     `json:"metadata"`
}

// Update handles PATCH /folders/{id}. Sort order changes are rejected;
// use /reorder.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var in updateRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	patch := models.FolderPatch{
		Name:         in.Name,
		FolderType:   in.FolderType,
		SortOrder:    in.SortOrder,
		IncludeFiles: in.IncludeFiles,
		Metadata:     in.Metadata,
	}
	n, err := s.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, "update", err)
		return
	}
	jsonutil.OK(w, n)
}

// Delete handles DELETE /folders/{id}, removing the whole subtree.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	ids, err := s.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "delete", err)
		return
	}
	jsonutil.OK(w, map[string]any{"deleted": ids})
}

type moveRequest struct {
	// ParentID null (or absent) moves the folder to the root level.
	ParentID *string `json:"parent_id"`
}

type moveResponse struct {
	Moved  bool              `json:"moved"`
	Folder models.FolderNode `json:"folder"`
}

// Move handles POST /folders/{id}/move.
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var in moveRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	id := chi.URLParam(r, "id")
	moved, err := s.Move(r.Context(), id, in.ParentID)
	if err != nil {
		h.writeError(w, r, "move", err)
		return
	}
	n, _ := s.Get(id)
	jsonutil.OK(w, moveResponse{Moved: moved, Folder: n})
}

type reorderRequest struct {
	TargetID string `json:"target_id" validate:"required" label:"Target"`
	Position string `json:"position" validate:"required,position" label:"Position"`
}

// Reorder handles POST /folders/{id}/reorder: drop the folder above, below,
// or inside target_id.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var in reorderRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}
	pos, _ := editor.ParsePosition(in.Position)
	id := chi.URLParam(r, "id")
	moved, err := s.MoveAndReorder(r.Context(), id, in.TargetID, pos)
	if err != nil {
		h.writeError(w, r, "reorder", err)
		return
	}
	n, _ := s.Get(id)
	jsonutil.OK(w, moveResponse{Moved: moved, Folder: n})
}

// Indent handles POST /folders/{id}/indent.
func (h *Handler) Indent(w http.ResponseWriter, r *http.Request) {
	h.shift(w, r, "indent", (*editor.Session).Indent)
}

// Outdent handles POST /folders/{id}/outdent.
func (h *Handler) Outdent(w http.ResponseWriter, r *http.Request) {
	h.shift(w, r, "outdent", (*editor.Session).Outdent)
}

// shift runs an indent or outdent. A folder that cannot shift answers 200
// with moved=false.
func (h *Handler) shift(w http.ResponseWriter, r *http.Request, op string, fn func(*editor.Session, context.Context, string) (bool, error)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	moved, err := fn(s, r.Context(), id)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	n, _ := s.Get(id)
	jsonutil.OK(w, moveResponse{Moved: moved, Folder: n})
}

/* ---------------------------- tree-wide edits ----------------------------- */

type rootRequest struct {
	Name string `json:"name"`
	Wrap bool   `json:"wrap"`
}

// AddRoot handles POST /roots. With wrap set every existing root moves
// under the new folder.
func (h *Handler) AddRoot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var in rootRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	n, err := s.AddRootWrappingExisting(r.Context(), in.Name, in.Wrap)
	if err != nil {
		h.writeError(w, r, "add_root", err)
		return
	}
	jsonutil.Created(w, n)
}

type normalizeRequest struct {
	ParentID *string `json:"parent_id"`
}

// Normalize handles POST /normalize, compacting one sibling group's sort
// orders to 0..n-1.
func (h *Handler) Normalize(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var in normalizeRequest
	if err := jsonutil.DecodeOptional(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if err := s.Normalize(r.Context(), in.ParentID); err != nil {
		h.writeError(w, r, "normalize", err)
		return
	}
	jsonutil.OK(w, s.Children(in.ParentID))
}

type renumberRequest struct {
	naming.RenumberOptions
	DryRun bool `json:"dry_run"`
}

// renumberCheck carries the validated renumber fields; RenumberOptions
// itself has no validate tags.
type renumberCheck struct {
	Mode      string `json:"mode" validate:"required,renumbermode" label:"Mode"`
	PadLength int    `json:"pad_length" validate:"min=0,max=6" label:"Pad length"`
	Separator string `json:"separator" validate:"separator" label:"Separator"`
}

type renameResponse struct {
	Applied bool            `json:"applied"`
	Renames []naming.Rename `json:"renames"`
}

// Renumber handles POST /renumber.
func (h *Handler) Renumber(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	in := renumberRequest{RenumberOptions: naming.DefaultRenumberOptions}
	if err := jsonutil.DecodeOptional(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if res := inputval.Validate(renumberCheck{Mode: string(in.Mode), PadLength: in.PadLength, Separator: in.Separator}); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	if in.DryRun {
		writeRenames(w, false, naming.RenumberFoldersByPosition(s.Nodes(), in.RenumberOptions))
		return
	}
	renames, err := s.Renumber(r.Context(), in.RenumberOptions)
	if err != nil {
		h.writeError(w, r, "renumber", err)
		return
	}
	writeRenames(w, true, renames)
}

type applyPatternRequest struct {
	PresetID string                `json:"preset_id"`
	Pattern  *naming.NamingPattern `json:"pattern"`
	Strip    bool                  `json:"strip"`
	DryRun   bool                  `json:"dry_run"`
}

// ApplyPattern handles POST /apply-pattern: rename every folder with a
// preset or an explicit pattern.
func (h *Handler) ApplyPattern(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var in applyPatternRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	pattern, err := resolvePattern(in.PresetID, in.Pattern, h.presets)
	if err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}

	if in.DryRun {
		writeRenames(w, false, editor.PreviewPattern(s.Nodes(), pattern, in.Strip))
		return
	}
	renames, err := s.ApplyPattern(r.Context(), pattern, in.Strip)
	if err != nil {
		h.writeError(w, r, "apply_pattern", err)
		return
	}
	writeRenames(w, true, renames)
}

func writeRenames(w http.ResponseWriter, applied bool, renames []naming.Rename) {
	if renames == nil {
		renames = []naming.Rename{}
	}
	jsonutil.OK(w, renameResponse{Applied: applied, Renames: renames})
}

var errNoPattern = errors.New("preset_id or pattern is required")

// resolvePattern picks an explicit pattern over a preset id.
func resolvePattern(presetID string, explicit *naming.NamingPattern, presets []naming.Preset) (naming.NamingPattern, error) {
	if explicit != nil {
		p := *explicit
		def := naming.DefaultPattern()
		if p.Increment == 0 {
			p.Increment = def.Increment
		}
		if p.PadLength == 0 {
			p.PadLength = def.PadLength
		}
		return p, nil
	}
	if presetID == "" {
		return naming.NamingPattern{}, errNoPattern
	}
	p, ok := naming.FindPreset(presetID, presets)
	if !ok {
		return naming.NamingPattern{}, errors.New("unknown preset " + presetID)
	}
	return p.Pattern, nil
}

type importRequest struct {
	ParentID *string                `json:"parent_id"`
	Folders  []models.ScannedFolder `json:"folders"`
	Paths    []string               `json:"paths"`
	// Source is a directory below the configured import root.
	Source      string `json:"source"`
	IncludeRoot bool   `json:"include_root"`
	DryRun      bool   `json:"dry_run"`
}

type importResponse struct {
	Applied  bool                     `json:"applied"`
	Count    int                      `json:"count"`
	Folders  []models.ScannedFolder   `json:"folders,omitempty"`
	Created  []models.FolderNode      `json:"created,omitempty"`
	Scan     *dirimport.Result        `json:"scan,omitempty"`
	Patterns []naming.DetectedPattern `json:"patterns,omitempty"`
}

// Import handles POST /import. The structure comes from exactly one of
// folders, paths, or source.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var in importRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}

	var resp importResponse
	folders := in.Folders
	switch {
	case in.Source != "":
		if h.scanner == nil {
			jsonutil.BadRequest(w, "directory import is not configured")
			return
		}
		res, err := h.scanner.Scan(r.Context(), in.Source)
		if err != nil {
			if errors.Is(err, dirimport.ErrOutsideRoot) {
				h.writeError(w, r, "import", err)
				return
			}
			h.logger.Warn("import scan failed", zap.String("source", in.Source), zap.Error(err))
			jsonutil.BadRequest(w, "cannot read source directory")
			return
		}
		resp.Scan = res
		folders = res.Structure.Children
		if in.IncludeRoot {
			folders = []models.ScannedFolder{res.Structure}
		}
	case len(in.Paths) > 0:
		folders = dirimport.FromPaths(in.Paths)
	}
	if len(folders) == 0 {
		jsonutil.BadRequest(w, "nothing to import")
		return
	}
	for _, f := range folders {
		resp.Count += f.Count()
	}

	if in.DryRun {
		resp.Folders = folders
		names := make([]string, 0, len(folders))
		for _, f := range folders {
			names = append(names, f.Name)
		}
		resp.Patterns = naming.DetectNamingPatterns(names)
		jsonutil.OK(w, resp)
		return
	}

	created, err := s.Import(r.Context(), in.ParentID, folders)
	if err != nil {
		h.writeError(w, r, "import", err)
		return
	}
	h.logger.Info("folders imported",
		zap.String("template_id", s.TemplateID()),
		zap.Int("count", len(created)),
	)
	resp.Applied = true
	resp.Created = created
	jsonutil.Created(w, resp)
}

/* ------------------------------- undo / redo ------------------------------ */

type undoResponse struct {
	Applied bool            `json:"applied"`
	Action  *history.Action `json:"action,omitempty"`
	CanUndo bool            `json:"can_undo"`
	CanRedo bool            `json:"can_redo"`
}

// Undo handles POST /undo.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "undo", (*editor.Session).Undo)
}

// Redo handles POST /redo.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "redo", (*editor.Session).Redo)
}

func (h *Handler) step(w http.ResponseWriter, r *http.Request, op string, fn func(*editor.Session, context.Context) (history.Action, bool, error)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	a, applied, err := fn(s, r.Context())
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	resp := undoResponse{Applied: applied, CanUndo: s.CanUndo(), CanRedo: s.CanRedo()}
	if applied {
		resp.Action = &a
	}
	jsonutil.OK(w, resp)
}
