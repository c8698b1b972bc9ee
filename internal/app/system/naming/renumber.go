package naming

import (
	"sort"

	"github.com/dalemusser/folderforge/internal/domain/models"
)

// RenumberMode selects how RenumberFoldersByPosition builds prefixes.
type RenumberMode string

const (
	RenumberNumeric   RenumberMode = "numeric"
	RenumberHierarchy RenumberMode = "hierarchy"
)

// RenumberSeparators are the separators a renumbered prefix may use. Any
// other value falls back to "_", since ParseFolderName would not see the
// prefix again.
var RenumberSeparators = []string{"_", "-", " "}

// RenumberOptions configures RenumberFoldersByPosition.
type RenumberOptions struct {
	Mode      RenumberMode `json:"mode"`
	PadLength int          `json:"pad_length"`
	Separator string       `json:"separator"`
}

// DefaultRenumberOptions is numeric, two digits, underscore.
var DefaultRenumberOptions = RenumberOptions{Mode: RenumberNumeric, PadLength: 2, Separator: "_"}

// Rename is one computed name change.
type Rename struct {
	ID      string `json:"id"`
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

// RenumberFoldersByPosition recomputes every prefix from the node's position
// in the tree, keeping each parsed base name and suffix. It walks top-down
// from the roots so hierarchy prefixes chain onto the parent's new index.
// Only names that actually change are returned.
func RenumberFoldersByPosition(nodes []models.FolderNode, opts RenumberOptions) []Rename {
	if opts.Mode == "" {
		opts.Mode = RenumberNumeric
	}
	if !isRenumberSeparator(opts.Separator) {
		opts.Separator = defaultSeparator
	}

	children := make(map[string][]models.FolderNode)
	for _, n := range nodes {
		key := n.ParentKey()
		children[key] = append(children[key], n)
	}
	for _, group := range children {
		sort.SliceStable(group, func(i, j int) bool { return group[i].SortOrder < group[j].SortOrder })
	}

	var out []Rename
	visited := make(map[string]bool)

	var walk func(parentKey, parentHierarchy string)
	walk = func(parentKey, parentHierarchy string) {
		for i, n := range children[parentKey] {
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true

			idx := pad(i+1, opts.PadLength)
			hier := idx
			if opts.Mode == RenumberHierarchy && parentHierarchy != "" {
				hier = parentHierarchy + "." + idx
			}

			parsed := ParseFolderName(n.Name)
			newName := hier + opts.Separator + parsed.BaseName + parsed.Suffix
			if newName != n.Name {
				out = append(out, Rename{ID: n.ID, OldName: n.Name, NewName: newName})
			}

			next := ""
			if opts.Mode == RenumberHierarchy {
				next = hier
			}
			walk(n.ID, next)
		}
	}
	walk("", "")

	return out
}

func isRenumberSeparator(sep string) bool {
	for _, s := range RenumberSeparators {
		if sep == s {
			return true
		}
	}
	return false
}
