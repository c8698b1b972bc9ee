package jsonutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		wantStatus int
		wantBody   string
	}{
		{"200 OK with data", http.StatusOK, map[string]string{"message": "hello"}, http.StatusOK, `{"message":"hello"}`},
		{"201 Created with data", http.StatusCreated, map[string]int{"id": 123}, http.StatusCreated, `{"id":123}`},
		{"nil data", http.StatusOK, nil, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			JSON(rec, tt.status, tt.data)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if body := strings.TrimSpace(rec.Body.String()); body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		msg    string
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "bad") }, http.StatusBadRequest, "bad"},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "who") }, http.StatusUnauthorized, "who"},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "gone") }, http.StatusNotFound, "gone"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "oops") }, http.StatusInternalServerError, "oops"},
		{"custom", func(w http.ResponseWriter) { Error(w, http.StatusBadGateway, "storage") }, http.StatusBadGateway, "storage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error != tt.msg {
				t.Errorf("error = %q, want %q", body.Error, tt.msg)
			}
		})
	}

	rec := httptest.NewRecorder()
	Unauthorized(rec, "x")
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("Unauthorized should set WWW-Authenticate")
	}
}

func TestValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationError(rec, map[string]string{"position": "required"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "validation failed" || body.Fields["position"] != "required" {
		t.Errorf("body = %+v", body)
	}
}

func TestDecode(t *testing.T) {
	type input struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
		empty   bool
	}{
		{"valid", `{"name":"Docs"}`, "Docs", false, false},
		{"empty", ``, "", true, true},
		{"malformed", `{"name":`, "", true, false},
		{"trailing", `{"name":"a"} {"name":"b"}`, "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var in input
			err := Decode(req, &in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrEmptyBody) != tt.empty {
				t.Errorf("Decode() error = %v, empty body %v", err, tt.empty)
			}
			if !tt.wantErr && in.Name != tt.want {
				t.Errorf("Name = %q, want %q", in.Name, tt.want)
			}
		})
	}
}

func TestDecode_TooLarge(t *testing.T) {
	big := `{"name":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	var in struct {
		Name string `json:"name"`
	}
	if err := Decode(req, &in); err == nil {
		t.Error("Decode() of an oversized body should fail")
	}
}

func TestDecodeOptional(t *testing.T) {
	in := struct {
		Mode string `json:"mode"`
	}{Mode: "numeric"}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeOptional(req, &in); err != nil {
		t.Fatalf("DecodeOptional() error = %v", err)
	}
	if in.Mode != "numeric" {
		t.Errorf("Mode = %q, want default kept", in.Mode)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad"))
	if err := DecodeOptional(req, &in); err == nil {
		t.Error("DecodeOptional() should still reject malformed JSON")
	}
}
