package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/folderforge/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func okCheck(name string) Check {
	return Check{Name: name, Ping: func(context.Context) error { return nil }}
}

func failCheck(name string) Check {
	return Check{Name: name, Ping: func(context.Context) error { return errors.New("down") }}
}

func TestHandler_Check(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	h := NewHandler(logger, MongoCheck(db.Client()))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Check() status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("response status = %q, want %q", resp.Status, "ok")
	}
	if resp.Services["mongodb"] != "ok" {
		t.Errorf("mongodb status = %q, want %q", resp.Services["mongodb"], "ok")
	}
}

func TestHandler_Check_Redis(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	h := NewHandler(zap.NewNop(), RedisCheck(client))

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp Response
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Services["redis"] != "ok" {
		t.Errorf("redis status = %q, want %q", resp.Services["redis"], "ok")
	}
}

func TestHandler_Check_Degraded(t *testing.T) {
	h := NewHandler(zap.NewNop(), okCheck("sqlite"), failCheck("redis"), okCheck("mongodb"))

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Check() status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	var resp Response
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Status != "degraded" {
		t.Errorf("response status = %q, want %q", resp.Status, "degraded")
	}
	if resp.Services["sqlite"] != "ok" || resp.Services["mongodb"] != "ok" || resp.Services["redis"] != "unavailable" {
		t.Errorf("services = %v", resp.Services)
	}
}

func TestHandler_Ready(t *testing.T) {
	h := NewHandler(zap.NewNop(), okCheck("mongodb"))

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	h.Ready(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Ready() status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := strings.TrimSpace(rec.Body.String())
	if body != `{"status":"ready"}` {
		t.Errorf("Ready() body = %q, want %q", body, `{"status":"ready"}`)
	}

	rec = httptest.NewRecorder()
	NewHandler(zap.NewNop(), failCheck("mongodb")).Ready(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Ready() status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHandler_Live(t *testing.T) {
	// Live runs no checks
	h := NewHandler(zap.NewNop(), failCheck("mongodb"))

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	rec := httptest.NewRecorder()

	h.Live(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Live() status = %d, want %d", rec.Code, http.StatusOK)
	}

	body := strings.TrimSpace(rec.Body.String())
	if body != `{"status":"alive"}` {
		t.Errorf("Live() body = %q, want %q", body, `{"status":"alive"}`)
	}
}

func TestMountRootEndpoints(t *testing.T) {
	h := NewHandler(zap.NewNop(), okCheck("mongodb"))
	r := chi.NewRouter()
	MountRootEndpoints(r, h)
	r.Mount("/health", Routes(h))

	for _, path := range []string{"/ready", "/readyz", "/livez", "/health", "/health/ready", "/health/live"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("%s status = %d, want %d", path, rec.Code, http.StatusOK)
			}
		})
	}
}
