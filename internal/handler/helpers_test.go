package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lefthander07/UserAPI/internal/model"
)

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"hello": "world"})

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["hello"] != "world" {
		t.Errorf("body = %v", body)
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusNotFound, "User not found")

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}

	var resp model.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != http.StatusNotFound || resp.Error.Message != "User not found" {
		t.Errorf("envelope = %+v", resp)
	}
}

func TestReadJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"login":"alice"}`))
	var body struct {
		Login string `json:"login"`
	}
	if err := readJSON(req, &body); err != nil {
		t.Fatalf("readJSON: %v", err)
	}
	if body.Login != "alice" {
		t.Errorf("login = %q, want alice", body.Login)
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader("{not json"))
	if err := readJSON(req, &body); err == nil {
		t.Error("readJSON(malformed) = nil, want error")
	}
}

func TestParseBirthday(t *testing.T) {
	got, err := parseBirthday(nil)
	if err != nil || got != nil {
		t.Errorf("parseBirthday(nil) = %v, %v; want nil, nil", got, err)
	}

	empty := ""
	got, err = parseBirthday(&empty)
	if err != nil || got != nil {
		t.Errorf("parseBirthday(empty) = %v, %v; want nil, nil", got, err)
	}

	valid := "1990-05-01"
	got, err = parseBirthday(&valid)
	if err != nil {
		t.Fatalf("parseBirthday(valid): %v", err)
	}
	want := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseBirthday = %v, want %v", got, want)
	}

	for _, bad := range []string{"05/01/1990", "1990-13-01", "yesterday"} {
		b := bad
		if _, err := parseBirthday(&b); err == nil {
			t.Errorf("parseBirthday(%q) = nil, want error", bad)
		}
	}
}
