// Package dirimport scans a directory tree on disk so it can be imported as
// folder nodes.
package dirimport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dalemusser/folderforge/internal/app/system/naming"
	"github.com/dalemusser/folderforge/internal/domain/models"
	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

// DefaultIgnore lists names skipped unless the caller overrides Ignore.
var DefaultIgnore = []string{
	".git", ".svn", ".hg", "node_modules", "__pycache__",
	".idea", ".vscode", ".DS_Store", "Thumbs.db",
}

// ErrOutsideRoot is returned for paths that resolve outside the scan root.
var ErrOutsideRoot = errors.New("path is outside the import root")

// Options configures a Scanner.
type Options struct {
	// Ignore holds glob patterns matched against each entry's base name and
	// its slash-separated path relative to the scanned directory.
	Ignore []string
	// MaxDepth limits recursion below the scanned directory; 0 means no limit.
	MaxDepth     int
	IncludeFiles bool
	SkipHidden   bool
}

// Stats summarizes a scan.
type Stats struct {
	TotalFolders int    `json:"total_folders"`
	MaxDepth     int    `json:"max_depth"`
	RootPath     string `json:"root_path"`
}

// Result is what Scan returns.
type Result struct {
	Structure models.ScannedFolder `json:"structure"`
	Stats     Stats                `json:"stats"`
	// Patterns holds the naming patterns found among folder names at each
	// depth (1 = direct children of the scanned directory).
	Patterns map[int][]naming.DetectedPattern `json:"patterns,omitempty"`
}

// Scanner reads directories below a fixed root.
type Scanner struct {
	root   string
	opts   Options
	ignore []glob.Glob
	log    *zap.Logger
}

// New creates a scanner confined to root.
func New(root string, opts Options, log *zap.Logger) (*Scanner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve import root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("import root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("import root %s is not a directory", abs)
	}

	patterns := opts.Ignore
	if patterns == nil {
		patterns = DefaultIgnore
	}
	s := &Scanner{root: abs, opts: opts, log: log}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, err)
		}
		s.ignore = append(s.ignore, g)
	}
	return s, nil
}

// Root returns the absolute scan root.
func (s *Scanner) Root() string { return s.root }

// Resolve maps rel (relative to the root) to an absolute path inside it.
func (s *Scanner) Resolve(rel string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(rel))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return p, nil
}

type scanNode struct {
	folder   models.ScannedFolder
	children []*scanNode
}

// Scan reads the directory rel (relative to the root) and everything below it.
func (s *Scanner) Scan(ctx context.Context, rel string) (*Result, error) {
	dir, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", rel)
	}

	top := &scanNode{folder: models.ScannedFolder{Name: filepath.Base(dir), Path: "."}}
	nodes := map[string]*scanNode{".": top}
	stats := Stats{RootPath: dir}
	names := make(map[int][]string)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == dir {
			return walkErr
		}
		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		slashRel := filepath.ToSlash(relPath)
		if walkErr != nil {
			s.log.Debug("skip unreadable entry", zap.String("path", slashRel), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if s.skip(d.Name(), slashRel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		parent := nodes[filepath.ToSlash(filepath.Dir(relPath))]
		if parent == nil {
			return nil
		}
		depth := strings.Count(slashRel, "/") + 1

		if !d.IsDir() {
			if s.opts.IncludeFiles {
				parent.folder.Files = append(parent.folder.Files, d.Name())
			}
			return nil
		}
		if s.opts.MaxDepth > 0 && depth > s.opts.MaxDepth {
			return fs.SkipDir
		}

		n := &scanNode{folder: models.ScannedFolder{Name: d.Name(), Path: slashRel}}
		parent.children = append(parent.children, n)
		nodes[slashRel] = n
		stats.TotalFolders++
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		names[depth] = append(names[depth], d.Name())
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Structure: top.build(), Stats: stats, Patterns: make(map[int][]naming.DetectedPattern)}
	for depth, group := range names {
		if found := naming.DetectNamingPatterns(group); len(found) > 0 {
			res.Patterns[depth] = found
		}
	}
	return res, nil
}

func (s *Scanner) skip(name, rel string) bool {
	if s.opts.SkipHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, g := range s.ignore {
		if g.Match(name) || g.Match(rel) {
			return true
		}
	}
	return false
}

func (n *scanNode) build() models.ScannedFolder {
	out := n.folder
	sort.Strings(out.Files)
	for _, c := range n.children {
		out.Children = append(out.Children, c.build())
	}
	return out
}

// FromPaths builds a folder tree from slash-separated relative directory
// paths, such as a browser upload listing. Parents are created implicitly.
func FromPaths(paths []string) []models.ScannedFolder {
	root := &scanNode{}
	index := map[string]*scanNode{"": root}
	for _, p := range paths {
		p = strings.Trim(filepath.ToSlash(strings.TrimSpace(p)), "/")
		if p == "" {
			continue
		}
		parts := strings.Split(p, "/")
		cur := root
		for i, part := range parts {
			if part == "" || part == "." || part == ".." {
				break
			}
			key := strings.Join(parts[:i+1], "/")
			next, ok := index[key]
			if !ok {
				next = &scanNode{folder: models.ScannedFolder{Name: part, Path: key}}
				index[key] = next
				cur.children = append(cur.children, next)
			}
			cur = next
		}
	}
	return root.build().Children
}
