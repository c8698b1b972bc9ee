package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/folderforge/internal/app/store/foldersql"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// TestLifecycle_SQLite runs Startup, BuildHandler and Shutdown against a
// temp SQLite database with no change feed.
func TestLifecycle_SQLite(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	appCfg := AppConfig{
		APIKey:             "secret",
		StorageBackend:     StorageSQLite,
		SQLDSN:             filepath.Join(t.TempDir(), "folders.db"),
		ChangeFeed:         FeedNone,
		PendingTTL:         5 * time.Second,
		UndoHistory:        10,
		SessionIdleTimeout: time.Minute,
		ImportRoot:         t.TempDir(),
	}
	if err := ValidateConfig(nil, appCfg, logger); err != nil {
		t.Fatalf("ValidateConfig() error = %v", err)
	}

	sqlStore, err := foldersql.Open(ctx, appCfg.StorageBackend, appCfg.SQLDSN)
	if err != nil {
		t.Fatalf("foldersql.Open() error = %v", err)
	}
	deps := DBDeps{SQL: sqlStore}
	coreCfg := &config.CoreConfig{}

	if err := EnsureSchema(ctx, coreCfg, appCfg, deps, logger); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := Startup(ctx, coreCfg, appCfg, deps, logger); err != nil {
		t.Fatalf("Startup() error = %v", err)
	}
	t.Cleanup(func() { svc = nil })

	h, err := BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		t.Fatalf("BuildHandler() error = %v", err)
	}

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer secret")
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodPost, "/api/templates/tpl-1/folders", `{"name":"01_Docs"}`); rec.Code != http.StatusCreated {
		t.Fatalf("POST folders = %d: %s", rec.Code, rec.Body)
	}
	rec := do(http.MethodGet, "/api/templates/tpl-1/tree", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET tree = %d: %s", rec.Code, rec.Body)
	}
	var tree struct {
		Tree []struct {
			Name string `json:"name"`
		} `json:"tree"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if len(tree.Tree) != 1 || tree.Tree[0].Name != "01_Docs" {
		t.Errorf("tree = %+v, want one 01_Docs root", tree.Tree)
	}

	// listing templates needs the Mongo store
	if rec := do(http.MethodGet, "/api/templates/", ""); rec.Code != http.StatusNotImplemented {
		t.Errorf("GET templates = %d, want 501", rec.Code)
	}
	if rec := do(http.MethodPost, "/api/naming/parse", `{"name":"02.03 - Intro"}`); rec.Code != http.StatusOK {
		t.Errorf("POST naming/parse = %d: %s", rec.Code, rec.Body)
	}
	if rec := do(http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("GET health = %d: %s", rec.Code, rec.Body)
	}
	rec = do(http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), `folderforge_mutations_total{op="add",result="ok"} 1`) {
		t.Errorf("metrics missing add counter:\n%s", rec.Body)
	}
	if rec := do(http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", rec.Code)
	}

	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := Shutdown(sctx, coreCfg, appCfg, deps, logger); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestBuildHandler_BeforeStartup(t *testing.T) {
	svc = nil
	if _, err := BuildHandler(&config.CoreConfig{}, AppConfig{}, DBDeps{}, zap.NewNop()); err == nil {
		t.Error("BuildHandler() without Startup should fail")
	}
}
