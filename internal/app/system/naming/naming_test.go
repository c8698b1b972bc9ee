package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dalemusser/folderforge/internal/domain/models"
)

func fixedClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = prev })
}

func node(id string, parent string, name string, sort int) models.FolderNode {
	n := models.FolderNode{ID: id, Name: name, SortOrder: sort}
	if parent != "" {
		n.ParentID = models.StringPtr(parent)
	}
	return n
}

func named(names ...string) []models.FolderNode {
	out := make([]models.FolderNode, len(names))
	for i, name := range names {
		out[i] = node(name, "", name, i)
	}
	return out
}

func TestParseFolderName(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		base       string
		suffix     string
		prefixType PrefixType
		suffixType SuffixType
		padLength  int
		separator  string
	}{
		{"01_Design_v2", "01_", "Design", "_v2", PrefixNumeric, SuffixVersion, 2, "_"},
		{"1.2.3_Intro", "1.2.3_", "Intro", "", PrefixHierarchy, SuffixNone, 1, "_"},
		{"01.03-Assets", "01.03-", "Assets", "", PrefixHierarchy, SuffixNone, 2, "-"},
		{"2024-03-15_Shoot", "2024-", "03-15_Shoot", "", PrefixNumeric, SuffixNone, 4, "-"},
		{"2024-03 Notes", "2024-", "03 Notes", "", PrefixNumeric, SuffixNone, 4, "-"},
		{"20240315_Raw", "20240315_", "Raw", "", PrefixNumeric, SuffixNone, 8, "_"},
		{"wip-Sketches", "wip-", "Sketches", "", PrefixCategory, SuffixNone, 0, "-"},
		{"Report_r003", "", "Report", "_r003", PrefixNone, SuffixRevision, 3, ""},
		{"Scene_backup", "", "Scene", "_backup", PrefixNone, SuffixCategory, 0, ""},
		{"Plain Folder", "", "Plain Folder", "", PrefixNone, SuffixNone, 0, ""},
		{"42 Answer", "42 ", "Answer", "", PrefixNumeric, SuffixNone, 2, " "},
		{"", "", "", "", PrefixNone, SuffixNone, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseFolderName(tt.name)
			if p.Prefix != tt.prefix {
				t.Errorf("Prefix = %q, want %q", p.Prefix, tt.prefix)
			}
			if p.BaseName != tt.base {
				t.Errorf("BaseName = %q, want %q", p.BaseName, tt.base)
			}
			if p.Suffix != tt.suffix {
				t.Errorf("Suffix = %q, want %q", p.Suffix, tt.suffix)
			}
			if p.PrefixType != tt.prefixType {
				t.Errorf("PrefixType = %v, want %v", p.PrefixType, tt.prefixType)
			}
			if p.SuffixType != tt.suffixType {
				t.Errorf("SuffixType = %v, want %v", p.SuffixType, tt.suffixType)
			}
			if p.PadLength != tt.padLength {
				t.Errorf("PadLength = %d, want %d", p.PadLength, tt.padLength)
			}
			if p.Separator != tt.separator {
				t.Errorf("Separator = %q, want %q", p.Separator, tt.separator)
			}
			if got := p.Prefix + p.BaseName + p.Suffix; got != tt.name {
				t.Errorf("reassembled = %q, want %q", got, tt.name)
			}
		})
	}
}

func TestParseFolderName_Numbers(t *testing.T) {
	p := ParseFolderName("07_Design_V12")
	if p.PrefixNumber == nil || *p.PrefixNumber != 7 {
		t.Errorf("PrefixNumber = %v, want 7", p.PrefixNumber)
	}
	if p.SuffixNumber == nil || *p.SuffixNumber != 12 {
		t.Errorf("SuffixNumber = %v, want 12", p.SuffixNumber)
	}

	h := ParseFolderName("02.10_Child")
	if h.PrefixHierarchy != "02.10" {
		t.Errorf("PrefixHierarchy = %q, want %q", h.PrefixHierarchy, "02.10")
	}
	if h.PrefixNumber != nil {
		t.Errorf("PrefixNumber = %v, want nil for hierarchy prefix", *h.PrefixNumber)
	}
}

func TestParseFolderName_NumberBeforeDate(t *testing.T) {
	p := ParseFolderName("20240115_Raw")
	if p.PrefixType != PrefixNumeric {
		t.Errorf("PrefixType = %v, want %v", p.PrefixType, PrefixNumeric)
	}
	if p.PrefixNumber == nil || *p.PrefixNumber != 20240115 {
		t.Errorf("PrefixNumber = %v, want 20240115", p.PrefixNumber)
	}
	if p.DateFormat != "" {
		t.Errorf("DateFormat = %q, want empty", p.DateFormat)
	}

	got := DetectNamePattern([]string{"20240101_A", "20240102_B"})
	if got.PatternType != PrefixNumeric || got.NextNumber != 20240103 {
		t.Errorf("DetectNamePattern() = %+v, want numeric with next 20240103", got)
	}
}

func TestMatchDate(t *testing.T) {
	tests := []struct {
		name   string
		layout string
	}{
		{"2024-03-15_Shoot", DateFull},
		{"2024-03 Notes", DateYearMonth},
		{"20240315-Raw", DateCompact},
		{"20241399_Batch", ""},
		{"Shoot", ""},
	}
	for _, tt := range tests {
		m, layout := matchDate(tt.name)
		if layout != tt.layout {
			t.Errorf("matchDate(%q) layout = %q, want %q", tt.name, layout, tt.layout)
		}
		if (m != nil) != (tt.layout != "") {
			t.Errorf("matchDate(%q) match = %v", tt.name, m)
		}
	}
}

func TestParseFolderName_RoundTrip(t *testing.T) {
	prefixes := []string{"", "01_", "003-", "1.2_", "01.02.03 ", "20230102-", "WIP_", "final-", "Temp "}
	bases := []string{"Design", "Assets Folder", "x", "Raw.Footage"}
	suffixes := []string{"", "_v2", "-V10", "_r01", "-R7", "_OLD", "-copy", "_Backup"}

	for _, pre := range prefixes {
		for _, base := range bases {
			for _, suf := range suffixes {
				name := pre + base + suf
				if got := ParseFolderName(name).BaseName; got != base {
					t.Errorf("ParseFolderName(%q).BaseName = %q, want %q", name, got, base)
				}
			}
		}
	}
}

func TestBuildHierarchyIndex(t *testing.T) {
	// A > B > C, each the second child at its level
	nodes := []models.FolderNode{
		node("a0", "", "first root", 0),
		node("a", "", "A", 1),
		node("b0", "a", "first child", 0),
		node("b", "a", "B", 1),
		node("c0", "b", "first grandchild", 0),
		node("c", "b", "C", 1),
	}

	tests := []struct {
		id   string
		pad  int
		want string
	}{
		{"c", 2, "02.02.02"},
		{"c", 1, "2.2.2"},
		{"b0", 2, "02.01"},
		{"a0", 3, "001"},
		{"missing", 2, ""},
	}
	for _, tt := range tests {
		if got := BuildHierarchyIndex(tt.id, nodes, tt.pad); got != tt.want {
			t.Errorf("BuildHierarchyIndex(%q, %d) = %q, want %q", tt.id, tt.pad, got, tt.want)
		}
	}
}

func TestBuildHierarchyIndex_OrdersBySortOrder(t *testing.T) {
	nodes := []models.FolderNode{
		node("late", "", "Late", 9),
		node("early", "", "Early", 2),
	}
	if got := BuildHierarchyIndex("late", nodes, 2); got != "02" {
		t.Errorf("BuildHierarchyIndex = %q, want %q", got, "02")
	}
}

func TestGetSiblingIndex(t *testing.T) {
	nodes := []models.FolderNode{
		node("p", "", "P", 0),
		node("x", "p", "X", 5),
		node("y", "p", "Y", 1),
		node("z", "p", "Z", 3),
	}
	tests := map[string]int{"y": 0, "z": 1, "x": 2, "p": 0, "nope": 0}
	for id, want := range tests {
		if got := GetSiblingIndex(id, nodes); got != want {
			t.Errorf("GetSiblingIndex(%q) = %d, want %d", id, got, want)
		}
	}
}

func TestDetectSiblingPattern(t *testing.T) {
	tests := []struct {
		name       string
		siblings   []string
		hasPattern bool
		typ        PrefixType
		next       int
		separator  string
		padLength  int
		confidence float64
	}{
		{"empty", nil, false, PrefixNone, 1, "_", 2, 0},
		{"two of three numeric", []string{"01_A", "02_B", "X"}, true, PrefixNumeric, 3, "_", 2, 2.0 / 3.0},
		{"one of three numeric", []string{"01_A", "X", "Y"}, false, PrefixNone, 1, "_", 2, 0},
		{"exactly half", []string{"05_A", "X"}, true, PrefixNumeric, 6, "_", 2, 0.5},
		{"numeric beats hierarchy on tie", []string{"01_A", "1.1_B"}, true, PrefixNumeric, 2, "_", 2, 0.5},
		{"most common separator", []string{"01-A", "02-B", "03_C"}, true, PrefixNumeric, 4, "-", 2, 1},
		{"most common pad", []string{"001_A", "002_B", "3_C"}, true, PrefixNumeric, 4, "_", 3, 1},
		{"hierarchy", []string{"1.1_A", "1.2_B"}, true, PrefixHierarchy, 1, "_", 1, 1},
		{"category", []string{"WIP_A", "DRAFT_B", "C"}, true, PrefixCategory, 1, "_", 2, 2.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectSiblingPattern(named(tt.siblings...))
			if got.HasPattern != tt.hasPattern {
				t.Errorf("HasPattern = %v, want %v", got.HasPattern, tt.hasPattern)
			}
			if got.PatternType != tt.typ {
				t.Errorf("PatternType = %v, want %v", got.PatternType, tt.typ)
			}
			if got.NextNumber != tt.next {
				t.Errorf("NextNumber = %d, want %d", got.NextNumber, tt.next)
			}
			if got.Separator != tt.separator {
				t.Errorf("Separator = %q, want %q", got.Separator, tt.separator)
			}
			if got.PadLength != tt.padLength {
				t.Errorf("PadLength = %d, want %d", got.PadLength, tt.padLength)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.confidence)
			}
		})
	}
}

func TestNameFromPattern_Date(t *testing.T) {
	fixedClock(t, time.Date(2025, 6, 9, 14, 5, 0, 0, time.UTC))

	tests := []struct {
		layout string
		sep    string
		want   string
	}{
		{DateFull, "_", "2025-06-09_Images"},
		{DateYearMonth, " ", "2025-06 Images"},
		{DateCompact, "-", "20250609-Images"},
	}
	for _, tt := range tests {
		p := SiblingPattern{HasPattern: true, PatternType: PrefixDate, Separator: tt.sep, DateFormat: tt.layout}
		if got := nameFromPattern(p, "Images", 2, ""); got != tt.want {
			t.Errorf("nameFromPattern(%s) = %q, want %q", tt.layout, got, tt.want)
		}
	}
}

func TestGenerateNextFolderName(t *testing.T) {
	fixedClock(t, time.Date(2025, 6, 9, 14, 5, 0, 0, time.UTC))

	tests := []struct {
		name            string
		siblings        []string
		parentHierarchy string
		want            string
	}{
		{"no pattern", []string{"Assets", "Src"}, "", "Images"},
		{"numeric", []string{"01_Assets", "02_Src"}, "", "03_Images"},
		{"numeric gaps", []string{"01_Assets", "07_Src"}, "", "08_Images"},
		{"hierarchy with parent", []string{"1.1_A", "1.2_B"}, "1", "1.3_Images"},
		{"hierarchy padded", []string{"01.01_A", "01.02_B"}, "01", "01.03_Images"},
		{"hierarchy at top level", []string{"1.1_A", "1.2_B"}, "", "3_Images"},
		{"date-shaped numbers", []string{"20240101_A", "20240102_B"}, "", "20240103_Images"},
		{"category not propagated", []string{"WIP_A", "WIP_B"}, "", "Images"},
		{"empty siblings", nil, "", "Images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateNextFolderName("Images", named(tt.siblings...), tt.parentHierarchy); got != tt.want {
				t.Errorf("GenerateNextFolderName = %q, want %q", got, tt.want)
			}
		})
	}
}

func renumberFixture() []models.FolderNode {
	return []models.FolderNode{
		node("r1", "", "Alpha", 0),
		node("r2", "", "03_Beta_v2", 1),
		node("c1", "r1", "x", 0),
		node("c2", "r1", "05_y_OLD", 1),
		node("g1", "c2", "deep", 0),
	}
}

func applyRenames(nodes []models.FolderNode, renames []Rename) []models.FolderNode {
	byID := make(map[string]string)
	for _, r := range renames {
		byID[r.ID] = r.NewName
	}
	out := make([]models.FolderNode, len(nodes))
	for i, n := range nodes {
		if name, ok := byID[n.ID]; ok {
			n.Name = name
		}
		out[i] = n
	}
	return out
}

func TestRenumberFoldersByPosition(t *testing.T) {
	tests := []struct {
		name string
		opts RenumberOptions
		want map[string]string
	}{
		{
			name: "numeric",
			opts: DefaultRenumberOptions,
			want: map[string]string{
				"r1": "01_Alpha",
				"r2": "02_Beta_v2",
				"c1": "01_x",
				"c2": "02_y_OLD",
				"g1": "01_deep",
			},
		},
		{
			name: "hierarchy",
			opts: RenumberOptions{Mode: RenumberHierarchy, PadLength: 2, Separator: "_"},
			want: map[string]string{
				"r1": "01_Alpha",
				"r2": "02_Beta_v2",
				"c1": "01.01_x",
				"c2": "01.02_y_OLD",
				"g1": "01.02.01_deep",
			},
		},
		{
			name: "hierarchy single digit dash",
			opts: RenumberOptions{Mode: RenumberHierarchy, PadLength: 1, Separator: "-"},
			want: map[string]string{
				"r1": "1-Alpha",
				"r2": "2-Beta_v2",
				"c1": "1.1-x",
				"c2": "1.2-y_OLD",
				"g1": "1.2.1-deep",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := renumberFixture()
			renames := RenumberFoldersByPosition(nodes, tt.opts)
			if len(renames) != len(tt.want) {
				t.Fatalf("len(renames) = %d, want %d", len(renames), len(tt.want))
			}
			for _, r := range renames {
				if r.NewName != tt.want[r.ID] {
					t.Errorf("rename %s = %q, want %q", r.ID, r.NewName, tt.want[r.ID])
				}
			}

			again := RenumberFoldersByPosition(applyRenames(nodes, renames), tt.opts)
			if len(again) != 0 {
				t.Errorf("second pass produced %d renames, want 0: %+v", len(again), again)
			}
		})
	}
}

func TestRenumberFoldersByPosition_OmitsUnchanged(t *testing.T) {
	nodes := []models.FolderNode{
		node("a", "", "01_Keep", 0),
		node("b", "", "Fix", 1),
	}
	renames := RenumberFoldersByPosition(nodes, DefaultRenumberOptions)
	if len(renames) != 1 || renames[0].ID != "b" || renames[0].OldName != "Fix" || renames[0].NewName != "02_Fix" {
		t.Errorf("renames = %+v, want only b -> 02_Fix", renames)
	}
}

func TestRenumberFoldersByPosition_Idempotent(t *testing.T) {
	for _, sep := range []string{"_", "-", " ", ".", "", "::"} {
		t.Run(fmt.Sprintf("%q", sep), func(t *testing.T) {
			nodes := []models.FolderNode{
				node("a", "", "Alpha", 0),
				node("b", "", "Beta", 1),
				node("b1", "b", "Inner", 0),
			}
			opts := RenumberOptions{Mode: RenumberHierarchy, PadLength: 2, Separator: sep}

			first := RenumberFoldersByPosition(nodes, opts)
			if len(first) != 3 {
				t.Fatalf("first pass renames = %+v, want 3", first)
			}
			byID := make(map[string]string)
			for _, r := range first {
				byID[r.ID] = r.NewName
			}
			for i := range nodes {
				nodes[i].Name = byID[nodes[i].ID]
			}

			if again := RenumberFoldersByPosition(nodes, opts); len(again) != 0 {
				t.Errorf("second pass renames = %+v, want none", again)
			}
		})
	}
}

func TestRenumberFoldersByPosition_UnknownSeparator(t *testing.T) {
	nodes := []models.FolderNode{node("a", "", "01.Alpha", 0)}
	renames := RenumberFoldersByPosition(nodes, RenumberOptions{Mode: RenumberNumeric, PadLength: 2, Separator: "."})
	if len(renames) != 1 || renames[0].NewName != "01_01.Alpha" {
		t.Errorf("renames = %+v, want 01_01.Alpha", renames)
	}
}

func TestStripPrefixSuffix(t *testing.T) {
	tests := []struct {
		opts StripOptions
		want string
	}{
		{StripAll, "Design"},
		{StripOptions{StripPrefix: true}, "Design_v2"},
		{StripOptions{StripSuffix: true}, "01_Design"},
		{StripOptions{}, "01_Design_v2"},
	}
	for _, tt := range tests {
		if got := StripPrefixSuffix("01_Design_v2", tt.opts); got != tt.want {
			t.Errorf("StripPrefixSuffix(%+v) = %q, want %q", tt.opts, got, tt.want)
		}
	}
}

func TestReplacePrefixSuffix(t *testing.T) {
	if got := ReplacePrefixSuffix("01_Design_v2", "WIP_", "_OLD"); got != "WIP_Design_OLD" {
		t.Errorf("ReplacePrefixSuffix = %q, want %q", got, "WIP_Design_OLD")
	}
}

func TestApplyNamingPatternWithHierarchy(t *testing.T) {
	fixedClock(t, time.Date(2025, 6, 9, 14, 5, 0, 0, time.UTC))

	nodes := []models.FolderNode{
		node("a0", "", "first", 0),
		node("a", "", "A", 1),
		node("b0", "a", "first child", 0),
		node("b", "a", "B", 1),
	}

	tests := []struct {
		name    string
		pattern NamingPattern
		id      string
		want    string
	}{
		{"hierarchy", NamingPattern{Prefix: "{hierarchy}_", StartNumber: 1, Increment: 1, PadLength: 2}, "b", "02.02_Base"},
		{"nn", NamingPattern{Prefix: "{nn}_", StartNumber: 1, Increment: 1, PadLength: 2}, "b", "02_Base"},
		{"increment", NamingPattern{Prefix: "{nnn}-", StartNumber: 10, Increment: 10, PadLength: 3}, "a", "020-Base"},
		{"suffix", NamingPattern{Suffix: "_v{n}", StartNumber: 1, Increment: 1, PadLength: 1}, "b0", "Base_v1"},
		{"date tokens", NamingPattern{Prefix: "{YYYY}{MM}{DD}-{HH}{mm}_", Suffix: "_{YY}", StartNumber: 1, Increment: 1}, "a", "20250609-1405_Base_25"},
		{"four digits", NamingPattern{Prefix: "{nnnn} ", StartNumber: 1, Increment: 1}, "a0", "0001 Base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplyNamingPatternWithHierarchy("Base", tt.pattern, tt.id, nodes); got != tt.want {
				t.Errorf("ApplyNamingPatternWithHierarchy = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyNamingPattern_FlatHierarchyFallback(t *testing.T) {
	p := NamingPattern{Prefix: "{hierarchy}_", StartNumber: 1, Increment: 1, PadLength: 3}
	if got := ApplyNamingPattern("Base", p, 4); got != "005_Base" {
		t.Errorf("ApplyNamingPattern = %q, want %q", got, "005_Base")
	}
}

func TestBuiltinPresets(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range BuiltinPresets {
		if seen[p.ID] {
			t.Errorf("duplicate preset id %q", p.ID)
		}
		seen[p.ID] = true
		if p.Pattern.Increment != 1 || p.Pattern.StartNumber != 1 {
			t.Errorf("preset %q: start/increment = %d/%d, want 1/1", p.ID, p.Pattern.StartNumber, p.Pattern.Increment)
		}
	}
	if _, ok := FindPreset("seq-nested", nil); !ok {
		t.Error("FindPreset(seq-nested) not found")
	}
}

func TestLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	body := `presets:
  - id: client-a
    name: Client A
    pattern:
      prefix: "CA-{nnn}_"
      pad_length: 3
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write presets: %v", err)
	}

	presets, err := LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	if len(presets) != 1 {
		t.Fatalf("len(presets) = %d, want 1", len(presets))
	}
	p := presets[0]
	if p.Category != "custom" {
		t.Errorf("Category = %q, want %q", p.Category, "custom")
	}
	if p.Pattern.StartNumber != 1 || p.Pattern.Increment != 1 || p.Pattern.PadLength != 3 {
		t.Errorf("Pattern = %+v, want start 1, increment 1, pad 3", p.Pattern)
	}
	if got := ApplyNamingPattern("Brief", p.Pattern, 1); got != "CA-002_Brief" {
		t.Errorf("ApplyNamingPattern = %q, want %q", got, "CA-002_Brief")
	}

	found, ok := FindPreset("client-a", presets)
	if !ok || found.Name != "Client A" {
		t.Errorf("FindPreset(client-a) = %+v, %v", found, ok)
	}
}

func TestLoadPresets_MissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("presets:\n  - name: nameless\n"), 0o600); err != nil {
		t.Fatalf("write presets: %v", err)
	}
	if _, err := LoadPresets(path); err == nil {
		t.Error("LoadPresets should fail for an entry without id")
	}
}

func TestAnalyzeTreePattern(t *testing.T) {
	tests := []struct {
		name     string
		names    []string
		typ      PrefixType
		affected int
	}{
		{"empty", nil, PrefixNone, 0},
		{"none", []string{"A", "B"}, PrefixNone, 0},
		{"numeric", []string{"01_A", "02_B", "C"}, PrefixNumeric, 2},
		{"mixed", []string{"01_A", "WIP_B"}, PrefixMixed, 2},
	}
	for _, tt := range tests {
		got := AnalyzeTreePattern(named(tt.names...))
		if got.PatternType != tt.typ {
			t.Errorf("%s: PatternType = %v, want %v", tt.name, got.PatternType, tt.typ)
		}
		if got.AffectedCount != tt.affected {
			t.Errorf("%s: AffectedCount = %d, want %d", tt.name, got.AffectedCount, tt.affected)
		}
		if got.TotalCount != len(tt.names) {
			t.Errorf("%s: TotalCount = %d, want %d", tt.name, got.TotalCount, len(tt.names))
		}
	}
}

func TestDetectNamingPatterns_SingleDateLayout(t *testing.T) {
	got := DetectNamingPatterns([]string{"2024-01-01_A", "2024-02-01_B", "2024-03_C", "Report_v1", "Report_v2"})

	var dateTypes []string
	versions := 0
	for _, p := range got {
		switch p.Type {
		case "full_date", "year_month", "compact_date", "year":
			dateTypes = append(dateTypes, p.Type)
		case "version_suffix":
			versions = p.Count
		}
	}
	if len(dateTypes) != 1 || dateTypes[0] != "full_date" {
		t.Errorf("date patterns = %v, want [full_date]", dateTypes)
	}
	if versions != 2 {
		t.Errorf("version_suffix count = %d, want 2", versions)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Confidence > got[i-1].Confidence {
			t.Errorf("patterns not sorted by confidence: %+v", got)
		}
	}
}

func TestDetectNamingPatterns_TooFew(t *testing.T) {
	if got := DetectNamingPatterns([]string{"01_A"}); got != nil {
		t.Errorf("DetectNamingPatterns(single) = %+v, want nil", got)
	}
}

func TestDetectNamingPatterns_UnnumberedFirst(t *testing.T) {
	got := DetectNamingPatterns([]string{".hidden", "01_Intro", "02_Body", "03_End"})
	if len(got) == 0 || got[0].Type != "numeric_prefix" {
		t.Fatalf("DetectNamingPatterns() = %+v, want numeric_prefix first", got)
	}
	if got[0].Count != 3 || got[0].Separator != "_" || got[0].PadLength != 2 {
		t.Errorf("numeric_prefix = %+v, want count 3, separator _, pad 2", got[0])
	}
}
