package naming

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/folderforge/internal/domain/models"
	"gopkg.in/yaml.v3"
)

// HierarchyMode is a hint for how a pattern treats nesting.
type HierarchyMode string

const (
	HierarchyFlat   HierarchyMode = "flat"
	HierarchyNested HierarchyMode = "nested"
	HierarchyDotted HierarchyMode = "dotted"
)

// NamingPattern is a user-chosen prefix/suffix template.
//
// Prefix and Suffix may contain the tokens {n} {nn} {nnn} {nnnn}
// {hierarchy} {YYYY} {YY} {MM} {DD} {HH} {mm}.
type NamingPattern struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Prefix        string        `json:"prefix" yaml:"prefix"`
	Suffix        string        `json:"suffix" yaml:"suffix"`
	StartNumber   int           `json:"start_number" yaml:"start_number"`
	Increment     int           `json:"increment" yaml:"increment"`
	PadLength     int           `json:"pad_length" yaml:"pad_length"`
	HierarchyMode HierarchyMode `json:"hierarchy_mode,omitempty" yaml:"hierarchy_mode,omitempty"`
}

// Preset is a named, categorized pattern offered to users.
type Preset struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description" yaml:"description"`
	Category    string        `json:"category" yaml:"category"` // sequential, date, category, custom
	Pattern     NamingPattern `json:"pattern" yaml:"pattern"`
}

// DefaultPattern returns an empty custom pattern.
func DefaultPattern() NamingPattern {
	return NamingPattern{
		ID:          "custom",
		Name:        "Custom Pattern",
		StartNumber: 1,
		Increment:   1,
		PadLength:   2,
	}
}

func preset(id, name, desc, category, patternName, prefix, suffix string, padLength int, mode HierarchyMode) Preset {
	return Preset{
		ID:          id,
		Name:        name,
		Description: desc,
		Category:    category,
		Pattern: NamingPattern{
			ID:            id,
			Name:          patternName,
			Prefix:        prefix,
			Suffix:        suffix,
			StartNumber:   1,
			Increment:     1,
			PadLength:     padLength,
			HierarchyMode: mode,
		},
	}
}

// BuiltinPresets are always available.
var BuiltinPresets = []Preset{
	preset("seq-01", "01_, 02_, 03_", "Two-digit prefix (flat)", "sequential", "Sequential 2-digit", "{nn}_", "", 2, HierarchyFlat),
	preset("seq-001", "001_, 002_, 003_", "Three-digit prefix (flat)", "sequential", "Sequential 3-digit", "{nnn}_", "", 3, HierarchyFlat),
	preset("seq-dotted", "1.1_, 1.2_, 2.1_", "Dotted hierarchy (1.1.1)", "sequential", "Dotted Hierarchy", "{hierarchy}_", "", 1, HierarchyDotted),
	preset("seq-nested", "01_, 01.01_, 01.02_", "Padded dotted (01.01.01)", "sequential", "Padded Hierarchy", "{hierarchy}_", "", 2, HierarchyNested),
	preset("seq-v1", "_v1, _v2, _v3", "Version number suffix", "sequential", "Version suffix", "", "_v{n}", 1, HierarchyFlat),
	preset("seq-r1", "_r01, _r02, _r03", "Revision number suffix", "sequential", "Revision suffix", "", "_r{nn}", 2, HierarchyFlat),
	preset("date-ym", "YYYY-MM_", "Year-month prefix", "date", "Year-Month", "{YYYY}-{MM}_", "", 2, ""),
	preset("date-full", "YYYY-MM-DD_", "Full date prefix", "date", "Full Date", "{YYYY}-{MM}-{DD}_", "", 2, ""),
	preset("date-compact", "YYYYMMDD_", "Compact date prefix", "date", "Compact Date", "{YYYY}{MM}{DD}_", "", 2, ""),
	preset("cat-wip", "WIP_", "Work in progress prefix", "category", "WIP", "WIP_", "", 2, ""),
	preset("cat-final", "FINAL_", "Final version prefix", "category", "Final", "FINAL_", "", 2, ""),
	preset("cat-draft", "DRAFT_", "Draft status prefix", "category", "Draft", "DRAFT_", "", 2, ""),
	preset("cat-archive", "ARCHIVE_", "Archive status prefix", "category", "Archive", "ARCHIVE_", "", 2, ""),
	preset("cat-old", "_OLD", "Old version suffix", "category", "Old", "", "_OLD", 2, ""),
	preset("cat-backup", "_BACKUP", "Backup suffix", "category", "Backup", "", "_BACKUP", 2, ""),
}

// presetFile is the on-disk layout read by LoadPresets.
type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresets reads custom presets from a YAML file of the form
//
//	presets:
//	  - id: client-a
//	    name: Client A
//	    category: custom
//	    pattern: {prefix: "CA-{nnn}_", start_number: 1, increment: 1, pad_length: 3}
//
// Missing numeric fields take the DefaultPattern values.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}
	def := DefaultPattern()
	for i := range f.Presets {
		p := &f.Presets[i]
		if p.ID == "" {
			return nil, fmt.Errorf("parse presets %s: entry %d has no id", path, i)
		}
		if p.Category == "" {
			p.Category = "custom"
		}
		if p.Pattern.ID == "" {
			p.Pattern.ID = p.ID
		}
		if p.Pattern.Name == "" {
			p.Pattern.Name = p.Name
		}
		if p.Pattern.Increment == 0 {
			p.Pattern.Increment = def.Increment
		}
		if p.Pattern.PadLength == 0 {
			p.Pattern.PadLength = def.PadLength
		}
		if p.Pattern.StartNumber == 0 {
			p.Pattern.StartNumber = def.StartNumber
		}
	}
	return f.Presets, nil
}

// FindPreset looks a preset up by id in presets, then in BuiltinPresets.
func FindPreset(id string, presets []Preset) (Preset, bool) {
	for _, list := range [][]Preset{presets, BuiltinPresets} {
		for _, p := range list {
			if p.ID == id {
				return p, true
			}
		}
	}
	return Preset{}, false
}

func tokenReplacer(number int, hierarchy string, now time.Time) *strings.Replacer {
	year := strconv.Itoa(now.Year())
	return strings.NewReplacer(
		"{n}", strconv.Itoa(number),
		"{nn}", pad(number, 2),
		"{nnn}", pad(number, 3),
		"{nnnn}", pad(number, 4),
		"{hierarchy}", hierarchy,
		"{YYYY}", year,
		"{YY}", year[len(year)-2:],
		"{MM}", pad(int(now.Month()), 2),
		"{DD}", pad(now.Day(), 2),
		"{HH}", pad(now.Hour(), 2),
		"{mm}", pad(now.Minute(), 2),
	)
}

// ApplyNamingPattern decorates baseName for the index-th item of a flat list.
// {hierarchy} falls back to the padded number.
func ApplyNamingPattern(baseName string, pattern NamingPattern, index int) string {
	number := pattern.StartNumber + index*pattern.Increment
	r := tokenReplacer(number, pad(number, pattern.PadLength), nowFunc())
	return r.Replace(pattern.Prefix) + baseName + r.Replace(pattern.Suffix)
}

// ApplyNamingPatternWithHierarchy decorates baseName using the position of
// nodeID in the tree formed by allNodes.
func ApplyNamingPatternWithHierarchy(baseName string, pattern NamingPattern, nodeID string, allNodes []models.FolderNode) string {
	hierarchy := BuildHierarchyIndex(nodeID, allNodes, pattern.PadLength)
	number := pattern.StartNumber + GetSiblingIndex(nodeID, allNodes)*pattern.Increment
	r := tokenReplacer(number, hierarchy, nowFunc())
	return r.Replace(pattern.Prefix) + baseName + r.Replace(pattern.Suffix)
}

// PreviewHierarchyPattern applies pattern to every node, using the current
// name of each as its base name.
func PreviewHierarchyPattern(nodes []models.FolderNode, pattern NamingPattern) []Rename {
	out := make([]Rename, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Rename{
			ID:      n.ID,
			OldName: n.Name,
			NewName: ApplyNamingPatternWithHierarchy(n.Name, pattern, n.ID, nodes),
		})
	}
	return out
}
