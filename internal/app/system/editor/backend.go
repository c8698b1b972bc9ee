// internal/app/system/editor/backend.go
package editor

import (
	"context"
	"io"
	"reflect"

	"github.com/dalemusser/folderforge/internal/domain/models"
)

// Backend persists the folder collection of a template.
type Backend interface {
	FetchFolders(ctx context.Context, templateID string) ([]models.FolderNode, error)
	InsertFolder(ctx context.Context, n models.FolderNode) (*models.FolderNode, error)
	UpdateFolder(ctx context.Context, id string, patch models.FolderPatch) error
	DeleteFolder(ctx context.Context, id string) error
}

// BatchUpdater is implemented by backends that can apply several updates
// atomically. The session uses it for multi-row edits when available.
type BatchUpdater interface {
	UpdateFolders(ctx context.Context, updates []models.FolderUpdate) error
}

// BatchDeleter is implemented by backends that can delete many rows at once.
type BatchDeleter interface {
	DeleteFolders(ctx context.Context, ids []string) error
}

// ChangeFeed delivers remote insert/update/delete events for a template.
// fn may be called from any goroutine. Closing the returned Closer ends the
// subscription.
type ChangeFeed interface {
	Subscribe(ctx context.Context, templateID string, fn func(models.FolderChange)) (io.Closer, error)
}

// patchBetween returns the patch that turns before into after.
func patchBetween(before, after models.FolderNode) models.FolderPatch {
	var p models.FolderPatch
	if before.Name != after.Name {
		name := after.Name
		p.Name = &name
	}
	if before.FolderType != after.FolderType {
		ft := after.FolderType
		p.FolderType = &ft
	}
	if before.SortOrder != after.SortOrder {
		so := after.SortOrder
		p.SortOrder = &so
	}
	if !models.SameParent(before.ParentID, after.ParentID) {
		p.ParentSet = true
		if after.ParentID != nil {
			p.ParentID = models.StringPtr(*after.ParentID)
		}
	}
	if !equalStrings(before.IncludeFiles, after.IncludeFiles) {
		p.IncludeFiles = append([]string{}, after.IncludeFiles...)
	}
	if !equalMeta(before.Metadata, after.Metadata) {
		p.Metadata = make(map[string]any, len(after.Metadata))
		for k, v := range after.Metadata {
			p.Metadata[k] = v
		}
	}
	return p
}

// applyPatch returns n with p applied.
func applyPatch(n models.FolderNode, p models.FolderPatch) models.FolderNode {
	out := n.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.FolderType != nil {
		out.FolderType = *p.FolderType
	}
	if p.SortOrder != nil {
		out.SortOrder = *p.SortOrder
	}
	if p.ParentSet {
		out.ParentID = nil
		if p.ParentID != nil {
			out.ParentID = models.StringPtr(*p.ParentID)
		}
	}
	if p.IncludeFiles != nil {
		out.IncludeFiles = append([]string{}, p.IncludeFiles...)
	}
	if p.Metadata != nil {
		out.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// equalMeta compares metadata deeply; nil and empty maps are equal.
func equalMeta(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
