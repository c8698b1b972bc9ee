package naming

import (
	"github.com/dalemusser/folderforge/internal/domain/models"
)

// patternThreshold is the share of siblings the dominant prefix type must
// cover before it counts as a convention. The comparison is inclusive.
const patternThreshold = 0.5

const (
	defaultSeparator = "_"
	defaultPadLength = 2
)

// SiblingPattern describes the naming convention shared by a sibling group.
// HasPattern=false is the normal "no convention" answer, not a failure.
type SiblingPattern struct {
	HasPattern  bool       `json:"has_pattern"`
	PatternType PrefixType `json:"pattern_type"`
	Separator   string     `json:"separator"`
	PadLength   int        `json:"pad_length"`
	NextNumber  int        `json:"next_number"`
	Confidence  float64    `json:"confidence"`
	DateFormat  string     `json:"date_format,omitempty"`
}

func noPattern() SiblingPattern {
	return SiblingPattern{
		HasPattern:  false,
		PatternType: PrefixNone,
		Separator:   defaultSeparator,
		PadLength:   defaultPadLength,
		NextNumber:  1,
		Confidence:  0,
	}
}

// detectionOrder breaks ties between prefix types with equal counts.
var detectionOrder = []PrefixType{PrefixNumeric, PrefixHierarchy, PrefixDate, PrefixCategory}

// DetectSiblingPattern finds the dominant prefix convention among siblings.
func DetectSiblingPattern(siblings []models.FolderNode) SiblingPattern {
	names := make([]string, len(siblings))
	for i, s := range siblings {
		names[i] = s.Name
	}
	return DetectNamePattern(names)
}

// DetectNamePattern is DetectSiblingPattern over bare names.
func DetectNamePattern(names []string) SiblingPattern {
	if len(names) == 0 {
		return noPattern()
	}

	parsed := make([]ParsedName, len(names))
	counts := make(map[PrefixType]int)
	for i, name := range names {
		parsed[i] = ParseFolderName(name)
		counts[parsed[i].PrefixType]++
	}

	best, maxCount := PrefixNone, 0
	for _, t := range detectionOrder {
		if counts[t] > maxCount {
			best, maxCount = t, counts[t]
		}
	}

	total := len(names)
	confidence := float64(maxCount) / float64(total)
	if maxCount == 0 || confidence < patternThreshold {
		return noPattern()
	}

	var (
		seps    []string
		pads    []int
		layouts []string
		maxNum  = 0
		haveNum = false
	)
	for _, p := range parsed {
		if p.PrefixType != best {
			continue
		}
		sep := p.Separator
		if sep == "" {
			sep = defaultSeparator
		}
		seps = append(seps, sep)
		pl := p.PadLength
		if pl == 0 {
			pl = defaultPadLength
		}
		pads = append(pads, pl)
		if p.DateFormat != "" {
			layouts = append(layouts, p.DateFormat)
		}
		if p.PrefixNumber != nil && (!haveNum || *p.PrefixNumber > maxNum) {
			maxNum, haveNum = *p.PrefixNumber, true
		}
	}

	out := SiblingPattern{
		HasPattern:  true,
		PatternType: best,
		Separator:   mostCommon(seps, defaultSeparator),
		PadLength:   mostCommon(pads, defaultPadLength),
		NextNumber:  1,
		Confidence:  confidence,
	}
	if best == PrefixNumeric && haveNum {
		out.NextNumber = maxNum + 1
	}
	if best == PrefixDate {
		out.DateFormat = mostCommon(layouts, DateFull)
	}
	return out
}

// mostCommon returns the most frequent value, preferring the one seen first
// on ties, or def when values is empty.
func mostCommon[T comparable](values []T, def T) T {
	counts := make(map[T]int, len(values))
	best, bestCount := def, 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// GenerateNextFolderName names a new sibling so it follows the convention of
// the existing siblings. parentHierarchy is the dotted index of the parent,
// or "" at the top level or when unknown.
func GenerateNextFolderName(baseName string, siblings []models.FolderNode, parentHierarchy string) string {
	return nameFromPattern(DetectSiblingPattern(siblings), baseName, len(siblings), parentHierarchy)
}

// nameFromPattern renders the name of sibling number count+1 under pattern.
func nameFromPattern(pattern SiblingPattern, baseName string, count int, parentHierarchy string) string {
	if !pattern.HasPattern {
		return baseName
	}

	switch pattern.PatternType {
	case PrefixNumeric:
		return pad(pattern.NextNumber, pattern.PadLength) + pattern.Separator + baseName
	case PrefixHierarchy:
		idx := pad(count+1, pattern.PadLength)
		if parentHierarchy != "" {
			idx = parentHierarchy + "." + idx
		}
		return idx + pattern.Separator + baseName
	case PrefixDate:
		return formatDate(nowFunc(), pattern.DateFormat) + pattern.Separator + baseName
	default:
		// category tags are never propagated automatically
		return baseName
	}
}
