// Package naming infers and applies positional naming conventions for folder
// names: numeric and dotted-hierarchy prefixes, date prefixes, category tags,
// and version/revision suffixes.
//
// Every function in this package is pure and total. Nothing here returns an
// error; a name that matches no convention is simply returned as its own base
// name.
package naming

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// PrefixType identifies the convention encoded at the start of a name.
type PrefixType string

const (
	PrefixNone      PrefixType = "none"
	PrefixNumeric   PrefixType = "numeric"
	PrefixHierarchy PrefixType = "hierarchy"
	PrefixDate      PrefixType = "date"
	PrefixCategory  PrefixType = "category"
)

// SuffixType identifies the convention encoded at the end of a name.
type SuffixType string

const (
	SuffixNone     SuffixType = "none"
	SuffixVersion  SuffixType = "version"
	SuffixRevision SuffixType = "revision"
	SuffixCategory SuffixType = "category"
)

// Date prefix layouts, in the order they are tried.
const (
	DateFull      = "YYYY-MM-DD"
	DateYearMonth = "YYYY-MM"
	DateCompact   = "YYYYMMDD"
)

// CategoryPrefixes are the tags recognized at the start of a name.
var CategoryPrefixes = []string{"WIP", "FINAL", "DRAFT", "ARCHIVE", "OLD", "NEW", "TEMP", "TEST", "DEV", "PROD"}

// CategorySuffixes are the tags recognized at the end of a name.
var CategorySuffixes = []string{"OLD", "BACKUP", "ARCHIVE", "COPY", "NEW"}

var (
	hierarchyRe = regexp.MustCompile(`^((?:\d+\.)+\d+)([_\-\s])`)
	numericRe   = regexp.MustCompile(`^(\d+)([_\-\s])`)
	dateFullRe  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})([_\-\s])`)
	dateYMRe    = regexp.MustCompile(`^(\d{4}-\d{2})([_\-\s])`)
	dateCompRe  = regexp.MustCompile(`^(\d{8})([_\-\s])`)
	categoryRe  = regexp.MustCompile(`(?i)^(` + strings.Join(CategoryPrefixes, "|") + `)([_\-\s])`)

	versionRe    = regexp.MustCompile(`(?i)([_\-]v)(\d+)$`)
	revisionRe   = regexp.MustCompile(`(?i)([_\-]r)(\d+)$`)
	catSuffixRes = compileSuffixes(CategorySuffixes)
)

func compileSuffixes(tags []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(tags))
	for _, tag := range tags {
		out = append(out, regexp.MustCompile(`(?i)([_\-])(`+tag+`)$`))
	}
	return out
}

// nowFunc is the clock used for date tokens and date prefixes.
var nowFunc = time.Now

// ParsedName is the result of splitting a folder name into its parts.
// Prefix + BaseName + Suffix always equals the original name.
type ParsedName struct {
	Prefix          string     `json:"prefix"`
	BaseName        string     `json:"base_name"`
	Suffix          string     `json:"suffix"`
	PrefixType      PrefixType `json:"prefix_type"`
	SuffixType      SuffixType `json:"suffix_type"`
	PrefixNumber    *int       `json:"prefix_number,omitempty"`
	PrefixHierarchy string     `json:"prefix_hierarchy,omitempty"`
	SuffixNumber    *int       `json:"suffix_number,omitempty"`
	PadLength       int        `json:"pad_length,omitempty"` // 0 when no numeric component set it
	Separator       string     `json:"separator,omitempty"`
	DateFormat      string     `json:"date_format,omitempty"`
}

// ParseFolderName splits name into prefix, base name and suffix.
//
// Prefixes are tried in priority order: dotted hierarchy, plain number, date,
// category tag. The plain-number rule claims any leading digit run followed
// by a separator, so "20240115_Raw" is numeric 20240115 and "2024-03_Notes"
// is numeric 2024 with base "03_Notes". Suffixes are tried on what remains:
// version, revision, category tag. At most one of each is extracted.
func ParseFolderName(name string) ParsedName {
	p := ParsedName{
		BaseName:   name,
		PrefixType: PrefixNone,
		SuffixType: SuffixNone,
	}

	if m := hierarchyRe.FindStringSubmatch(name); m != nil {
		p.Prefix = m[1] + m[2]
		p.PrefixType = PrefixHierarchy
		p.PrefixHierarchy = m[1]
		p.Separator = m[2]
		p.PadLength = len(strings.SplitN(m[1], ".", 2)[0])
	} else if m := numericRe.FindStringSubmatch(name); m != nil {
		p.Prefix = m[1] + m[2]
		p.PrefixType = PrefixNumeric
		p.PrefixNumber = atoiPtr(m[1])
		p.PadLength = len(m[1])
		p.Separator = m[2]
	} else if m, layout := matchDate(name); m != nil {
		p.Prefix = m[1] + m[2]
		p.PrefixType = PrefixDate
		p.Separator = m[2]
		p.DateFormat = layout
	} else if m := categoryRe.FindStringSubmatch(name); m != nil {
		p.Prefix = m[1] + m[2]
		p.PrefixType = PrefixCategory
		p.Separator = m[2]
	}
	p.BaseName = name[len(p.Prefix):]

	if m := versionRe.FindStringSubmatch(p.BaseName); m != nil {
		p.Suffix = m[1] + m[2]
		p.SuffixType = SuffixVersion
		p.SuffixNumber = atoiPtr(m[2])
	} else if m := revisionRe.FindStringSubmatch(p.BaseName); m != nil {
		p.Suffix = m[1] + m[2]
		p.SuffixType = SuffixRevision
		p.SuffixNumber = atoiPtr(m[2])
		p.PadLength = len(m[2])
	} else {
		for _, re := range catSuffixRes {
			if m := re.FindStringSubmatch(p.BaseName); m != nil {
				p.Suffix = m[1] + m[2]
				p.SuffixType = SuffixCategory
				break
			}
		}
	}
	p.BaseName = p.BaseName[:len(p.BaseName)-len(p.Suffix)]

	return p
}

// matchDate recognizes a leading calendar date. The digits must form a real
// date.
func matchDate(name string) ([]string, string) {
	if m := dateFullRe.FindStringSubmatch(name); m != nil && validDate(m[1], "2006-01-02") {
		return m, DateFull
	}
	if m := dateYMRe.FindStringSubmatch(name); m != nil && validDate(m[1], "2006-01") {
		return m, DateYearMonth
	}
	if m := dateCompRe.FindStringSubmatch(name); m != nil && validDate(m[1], "20060102") {
		return m, DateCompact
	}
	return nil, ""
}

func validDate(s, layout string) bool {
	_, err := time.Parse(layout, s)
	return err == nil
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		// digit runs too long for int; keep parsing total
		return nil
	}
	return &n
}

// StripOptions selects which parts StripPrefixSuffix removes.
type StripOptions struct {
	StripPrefix bool
	StripSuffix bool
}

// StripAll removes both prefix and suffix.
var StripAll = StripOptions{StripPrefix: true, StripSuffix: true}

// StripPrefixSuffix rebuilds name with the selected components removed.
func StripPrefixSuffix(name string, opts StripOptions) string {
	p := ParseFolderName(name)
	out := p.BaseName
	if !opts.StripPrefix {
		out = p.Prefix + out
	}
	if !opts.StripSuffix {
		out += p.Suffix
	}
	return out
}

// ReplacePrefixSuffix swaps whatever prefix and suffix name carries for the
// given ones.
func ReplacePrefixSuffix(name, newPrefix, newSuffix string) string {
	return newPrefix + ParseFolderName(name).BaseName + newSuffix
}

// pad left-pads n with zeros to width.
func pad(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// formatDate renders t in one of the date prefix layouts.
func formatDate(t time.Time, layout string) string {
	switch layout {
	case DateYearMonth:
		return t.Format("2006-01")
	case DateCompact:
		return t.Format("20060102")
	default:
		return t.Format("2006-01-02")
	}
}
