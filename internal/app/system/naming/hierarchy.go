package naming

import (
	"sort"
	"strings"

	"github.com/dalemusser/folderforge/internal/domain/models"
)

// siblingsOf returns the nodes under parent ordered by sort_order.
// Equal sort orders keep their input order.
func siblingsOf(nodes []models.FolderNode, parent *string) []models.FolderNode {
	var out []models.FolderNode
	for _, n := range nodes {
		if models.SameParent(n.ParentID, parent) {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func indexByID(nodes []models.FolderNode) map[string]models.FolderNode {
	byID := make(map[string]models.FolderNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	return byID
}

// BuildHierarchyIndex returns the dotted chain of 1-based sibling positions
// from the outermost ancestor down to nodeID, each zero-padded to padLength
// ("01.03"). It returns "" when nodeID is not among nodes.
func BuildHierarchyIndex(nodeID string, nodes []models.FolderNode, padLength int) string {
	byID := indexByID(nodes)

	var parts []string
	seen := make(map[string]bool)
	cur, ok := byID[nodeID]
	for ok && !seen[cur.ID] {
		seen[cur.ID] = true
		pos := 0
		for i, s := range siblingsOf(nodes, cur.ParentID) {
			if s.ID == cur.ID {
				pos = i + 1
				break
			}
		}
		parts = append(parts, pad(pos, padLength))
		if cur.ParentID == nil {
			break
		}
		cur, ok = byID[*cur.ParentID]
	}

	// collected innermost-first
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// GetSiblingIndex returns the 0-based position of nodeID among the nodes that
// share its parent, ordered by sort_order. Unknown ids yield 0.
func GetSiblingIndex(nodeID string, nodes []models.FolderNode) int {
	var node *models.FolderNode
	for i := range nodes {
		if nodes[i].ID == nodeID {
			node = &nodes[i]
			break
		}
	}
	if node == nil {
		return 0
	}
	for i, s := range siblingsOf(nodes, node.ParentID) {
		if s.ID == nodeID {
			return i
		}
	}
	return 0
}
