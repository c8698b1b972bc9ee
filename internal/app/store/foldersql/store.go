// Package foldersql stores template folder trees in a SQL database.
// SQLite (modernc.org/sqlite) and PostgreSQL (pgx) are supported.
package foldersql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/folderforge/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialects accepted by Open.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// ErrNotFound is returned when an update targets a missing node.
var ErrNotFound = errors.New("folder node not found")

// Store implements the editor backend on database/sql.
type Store struct {
	db      *sql.DB
	dialect string
}

// Open connects to dsn and creates the schema if needed. For SQLite dsn is
// a file path; its directory is created.
func Open(ctx context.Context, dialect, dsn string) (*Store, error) {
	driver := ""
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
		if dsn == "" {
			dsn = "folderforge.db"
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create dirs: %w", err)
			}
		}
	case DialectPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// one writer; avoids SQLITE_BUSY under parallel writes
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS folder_nodes (
			id            TEXT PRIMARY KEY,
			template_id   TEXT NOT NULL,
			parent_id     TEXT NULL,
			name          TEXT NOT NULL,
			name_ci       TEXT NOT NULL,
			folder_type   TEXT NOT NULL,
			sort_order    INTEGER NOT NULL,
			include_files TEXT NOT NULL DEFAULT '[]',
			metadata      TEXT NOT NULL DEFAULT '{}',
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_folder_nodes_tree ON folder_nodes (template_id, parent_id, sort_order)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const selectCols = `id, template_id, parent_id, name, name_ci, folder_type, sort_order, include_files, metadata, created_at, updated_at`

// FetchFolders returns every node of a template.
func (s *Store) FetchFolders(ctx context.Context, templateID string) ([]models.FolderNode, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+selectCols+` FROM folder_nodes WHERE template_id = ? ORDER BY parent_id, sort_order, id`), templateID)
	if err != nil {
		return nil, fmt.Errorf("select folders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.FolderNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetFolder returns one node.
func (s *Store) GetFolder(ctx context.Context, id string) (*models.FolderNode, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+selectCols+` FROM folder_nodes WHERE id = ?`), id)
	n, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// InsertFolder stores a new node.
func (s *Store) InsertFolder(ctx context.Context, n models.FolderNode) (*models.FolderNode, error) {
	now := time.Now().UTC()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	n.NameCI = text.Fold(n.Name)
	n.FolderType = models.NormalizeFolderType(n.FolderType)

	files, meta, err := encodeExtras(n.IncludeFiles, n.Metadata)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO folder_nodes (`+selectCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		n.ID, n.TemplateID, nullString(n.ParentID), n.Name, n.NameCI, string(n.FolderType), n.SortOrder,
		files, meta, formatTime(n.CreatedAt), formatTime(n.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert folder: %w", err)
	}
	return &n, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UpdateFolder applies a partial update to one node.
func (s *Store) UpdateFolder(ctx context.Context, id string, patch models.FolderPatch) error {
	return s.update(ctx, s.db, id, patch)
}

// UpdateFolders applies several updates in one transaction.
func (s *Store) UpdateFolders(ctx context.Context, updates []models.FolderUpdate) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, u := range updates {
		if err = s.update(ctx, tx, u.ID, u.Patch); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) update(ctx context.Context, ex execer, id string, p models.FolderPatch) error {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(time.Now().UTC())}
	if p.Name != nil {
		sets = append(sets, "name = ?", "name_ci = ?")
		args = append(args, *p.Name, text.Fold(*p.Name))
	}
	if p.FolderType != nil {
		sets = append(sets, "folder_type = ?")
		args = append(args, string(models.NormalizeFolderType(*p.FolderType)))
	}
	if p.SortOrder != nil {
		sets = append(sets, "sort_order = ?")
		args = append(args, *p.SortOrder)
	}
	if p.ParentSet {
		sets = append(sets, "parent_id = ?")
		args = append(args, nullString(p.ParentID))
	}
	if p.IncludeFiles != nil || p.Metadata != nil {
		files, meta, err := encodeExtras(p.IncludeFiles, p.Metadata)
		if err != nil {
			return err
		}
		if p.IncludeFiles != nil {
			sets = append(sets, "include_files = ?")
			args = append(args, files)
		}
		if p.Metadata != nil {
			sets = append(sets, "metadata = ?")
			args = append(args, meta)
		}
	}
	args = append(args, id)

	res, err := ex.ExecContext(ctx, s.rebind(
		`UPDATE folder_nodes SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFolder removes one node.
func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM folder_nodes WHERE id = ?`), id)
	return err
}

// DeleteFolders removes several nodes in one statement.
func (s *Store) DeleteFolders(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM folder_nodes WHERE id IN (`+marks+`)`), args...)
	return err
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(q string) string {
	if s.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (models.FolderNode, error) {
	var (
		n                models.FolderNode
		parent           sql.NullString
		folderType       string
		files, meta      string
		created, updated string
	)
	if err := row.Scan(&n.ID, &n.TemplateID, &parent, &n.Name, &n.NameCI, &folderType, &n.SortOrder,
		&files, &meta, &created, &updated); err != nil {
		return n, fmt.Errorf("scan folder: %w", err)
	}
	if parent.Valid {
		n.ParentID = models.StringPtr(parent.String)
	}
	n.FolderType = models.FolderType(folderType)
	if err := json.Unmarshal([]byte(files), &n.IncludeFiles); err != nil {
		return n, fmt.Errorf("decode include_files: %w", err)
	}
	if err := json.Unmarshal([]byte(meta), &n.Metadata); err != nil {
		return n, fmt.Errorf("decode metadata: %w", err)
	}
	if len(n.IncludeFiles) == 0 {
		n.IncludeFiles = nil
	}
	if len(n.Metadata) == 0 {
		n.Metadata = nil
	}
	n.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	n.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return n, nil
}

func encodeExtras(files []string, meta map[string]any) (string, string, error) {
	if files == nil {
		files = []string{}
	}
	if meta == nil {
		meta = map[string]any{}
	}
	fb, err := json.Marshal(files)
	if err != nil {
		return "", "", fmt.Errorf("encode include_files: %w", err)
	}
	mb, err := json.Marshal(meta)
	if err != nil {
		return "", "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(fb), string(mb), nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
