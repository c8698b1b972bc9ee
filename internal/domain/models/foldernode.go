package models

import (
	"time"
)

// FolderType is a cosmetic category tag on a folder node.
type FolderType string

const (
	FolderTypeDefault FolderType = "default"
	FolderTypeCode    FolderType = "code"
	FolderTypeDocs    FolderType = "docs"
	FolderTypeMedia   FolderType = "media"
	FolderTypeAssets  FolderType = "assets"
	FolderTypeArchive FolderType = "archive"
	FolderTypeData    FolderType = "data"
)

// FolderTypes lists every recognized folder type.
var FolderTypes = []FolderType{
	FolderTypeDefault,
	FolderTypeCode,
	FolderTypeDocs,
	FolderTypeMedia,
	FolderTypeAssets,
	FolderTypeArchive,
	FolderTypeData,
}

// NormalizeFolderType maps unknown or empty values to FolderTypeDefault.
func NormalizeFolderType(t FolderType) FolderType {
	for _, known := range FolderTypes {
		if t == known {
			return t
		}
	}
	return FolderTypeDefault
}

// FolderNode is one entry in a template's folder tree.
type FolderNode struct {
	ID           string         `bson:"_id" json:"id"`
	TemplateID   string         `bson:"template_id" json:"template_id"`
	ParentID     *string        `bson:"parent_id" json:"parent_id"` // nil = root
	Name         string         `bson:"name" json:"name"`
	NameCI       string         `bson:"name_ci" json:"-"` // case-folded, for index/search
	FolderType   FolderType     `bson:"folder_type" json:"folder_type"`
	SortOrder    int            `bson:"sort_order" json:"sort_order"`
	IncludeFiles []string       `bson:"include_files,omitempty" json:"include_files,omitempty"`
	Metadata     map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at" json:"updated_at"`
}

// IsRoot returns true if the node has no parent.
func (n *FolderNode) IsRoot() bool {
	return n.ParentID == nil
}

// ParentKey returns the parent id, or "" for a root node.
func (n *FolderNode) ParentKey() string {
	if n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

// Clone returns a deep copy of the node.
func (n FolderNode) Clone() FolderNode {
	out := n
	if n.ParentID != nil {
		p := *n.ParentID
		out.ParentID = &p
	}
	if n.IncludeFiles != nil {
		out.IncludeFiles = append([]string(nil), n.IncludeFiles...)
	}
	if n.Metadata != nil {
		out.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// SameParent reports whether a and b point at the same parent (both nil counts).
func SameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// FolderPatch is a partial update to a folder node.
// Nil fields are left unchanged. ParentSet distinguishes "move to root"
// (ParentSet with a nil ParentID) from "parent unchanged".
type FolderPatch struct {
	Name         *string
	FolderType   *FolderType
	SortOrder    *int
	ParentSet    bool
	ParentID     *string
	IncludeFiles []string
	Metadata     map[string]any
}

// IsEmpty reports whether the patch changes nothing.
func (p FolderPatch) IsEmpty() bool {
	return p.Name == nil && p.FolderType == nil && p.SortOrder == nil &&
		!p.ParentSet && p.IncludeFiles == nil && p.Metadata == nil
}

// FolderUpdate pairs a node id with a patch for batch writes.
type FolderUpdate struct {
	ID    string
	Patch FolderPatch
}

// ChangeType is the kind of a remote folder change.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// FolderChange is a notification delivered by a change feed.
// For deletes only Record.ID (and TemplateID when known) is meaningful.
type FolderChange struct {
	EventType ChangeType `json:"event_type"`
	Record    FolderNode `json:"record"`
}

// ScannedFolder is a directory found by an import scan, with its subdirectories.
type ScannedFolder struct {
	Name     string          `json:"name" yaml:"name"`
	Path     string          `json:"path,omitempty" yaml:"path,omitempty"`
	Files    []string        `json:"files,omitempty" yaml:"files,omitempty"`
	Children []ScannedFolder `json:"children,omitempty" yaml:"children,omitempty"`
}

// Count returns the number of folders in the scan, including f itself.
func (f ScannedFolder) Count() int {
	n := 1
	for _, c := range f.Children {
		n += c.Count()
	}
	return n
}
