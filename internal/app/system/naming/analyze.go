package naming

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dalemusser/folderforge/internal/domain/models"
)

// PrefixMixed is reported by AnalyzeTreePattern when several conventions
// appear in one tree.
const PrefixMixed PrefixType = "mixed"

// TreePattern summarizes the naming conventions used across a whole tree.
type TreePattern struct {
	HasPattern    bool       `json:"has_pattern"`
	PatternType   PrefixType `json:"pattern_type"`
	Description   string     `json:"description"`
	AffectedCount int        `json:"affected_count"`
	TotalCount    int        `json:"total_count"`
}

var treePatternDescriptions = map[PrefixType]string{
	PrefixNumeric:   "Numeric prefix (01_, 02_...)",
	PrefixHierarchy: "Hierarchy prefix (1.1_, 1.2_...)",
	PrefixDate:      "Date prefix (YYYY-MM-DD_)",
	PrefixCategory:  "Category prefix (WIP_, FINAL_...)",
}

// AnalyzeTreePattern counts prefix conventions over every node.
func AnalyzeTreePattern(nodes []models.FolderNode) TreePattern {
	if len(nodes) == 0 {
		return TreePattern{PatternType: PrefixNone, Description: "No folders"}
	}

	counts := make(map[PrefixType]int)
	for _, n := range nodes {
		counts[ParseFolderName(n.Name).PrefixType]++
	}
	total := len(nodes)
	withPattern := total - counts[PrefixNone]
	if withPattern == 0 {
		return TreePattern{
			PatternType: PrefixNone,
			Description: "No naming pattern detected",
			TotalCount:  total,
		}
	}

	var active []PrefixType
	for _, t := range detectionOrder {
		if counts[t] > 0 {
			active = append(active, t)
		}
	}
	if len(active) > 1 {
		return TreePattern{
			HasPattern:    true,
			PatternType:   PrefixMixed,
			Description:   "Mixed patterns detected",
			AffectedCount: withPattern,
			TotalCount:    total,
		}
	}
	return TreePattern{
		HasPattern:    true,
		PatternType:   active[0],
		Description:   treePatternDescriptions[active[0]],
		AffectedCount: withPattern,
		TotalCount:    total,
	}
}

// DetectedPattern is one convention found by DetectNamingPatterns.
type DetectedPattern struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Separator   string  `json:"separator,omitempty"`
	PadLength   int     `json:"pad_length,omitempty"`
	Prefix      string  `json:"prefix,omitempty"`
	Count       int     `json:"count"`
	Confidence  float64 `json:"confidence"`
}

var datePrefixPatterns = []struct {
	re   *regexp.Regexp
	typ  string
	desc string
}{
	{regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[_\-\s]`), "full_date", "Full date prefix (YYYY-MM-DD)"},
	{regexp.MustCompile(`^(\d{4})-(\d{2})[_\-\s]`), "year_month", "Year-month prefix (YYYY-MM)"},
	{regexp.MustCompile(`^(\d{8})[_\-\s]`), "compact_date", "Compact date prefix (YYYYMMDD)"},
	{regexp.MustCompile(`^(\d{4})[_\-\s]`), "year", "Year prefix (YYYY)"},
}

var (
	versionAnyRe  = regexp.MustCompile(`(?i)[_\-]v(\d+)$`)
	revisionAnyRe = regexp.MustCompile(`(?i)[_\-]r(\d+)$`)
)

// DetectNamingPatterns lists every convention used by at least two of names,
// most confident first. Used when importing a directory listing. Only the
// most specific date layout is reported.
func DetectNamingPatterns(names []string) []DetectedPattern {
	if len(names) < 2 {
		return nil
	}
	total := float64(len(names))
	var out []DetectedPattern

	countMatches := func(re *regexp.Regexp) int {
		c := 0
		for _, n := range names {
			if re.MatchString(n) {
				c++
			}
		}
		return c
	}

	if c := countMatches(numericRe); c >= 2 {
		// the first numbered name sets the reported separator and width
		for _, n := range names {
			m := numericRe.FindStringSubmatch(n)
			if m == nil {
				continue
			}
			out = append(out, DetectedPattern{
				Type:        "numeric_prefix",
				Description: "Sequential numbering prefix (" + m[1] + m[2] + ")",
				Separator:   m[2],
				PadLength:   len(m[1]),
				Count:       c,
				Confidence:  float64(c) / total,
			})
			break
		}
	}

	for _, dp := range datePrefixPatterns {
		if c := countMatches(dp.re); c >= 2 {
			out = append(out, DetectedPattern{
				Type:        dp.typ,
				Description: dp.desc,
				Count:       c,
				Confidence:  float64(c) / total,
			})
			break
		}
	}

	for _, tag := range CategoryPrefixes {
		re := regexp.MustCompile(`(?i)^` + tag + `[_\-\s]`)
		if c := countMatches(re); c >= 2 {
			out = append(out, DetectedPattern{
				Type:        "category_prefix",
				Description: "Category prefix (" + strings.ToUpper(tag) + "_)",
				Prefix:      tag,
				Count:       c,
				Confidence:  float64(c) / total,
			})
		}
	}

	if c := countMatches(versionAnyRe); c >= 2 {
		out = append(out, DetectedPattern{
			Type:        "version_suffix",
			Description: "Version number suffix (_v1, _v2)",
			Count:       c,
			Confidence:  float64(c) / total,
		})
	}
	if c := countMatches(revisionAnyRe); c >= 2 {
		out = append(out, DetectedPattern{
			Type:        "revision_suffix",
			Description: "Revision number suffix (_r01, _r02)",
			Count:       c,
			Confidence:  float64(c) / total,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}
