package openapi

import (
	"encoding/json"
	"testing"
)

func TestGenerateCoversRoutes(t *testing.T) {
	doc := Generate("test")

	wantPaths := []string{
		"/healthz",
		"/readyz",
		"/api/v1/auth/login",
		"/api/v1/users/authenticate",
		"/api/v1/users",
		"/api/v1/users/active",
		"/api/v1/users/older-than/{age}",
		"/api/v1/users/{id}",
		"/api/v1/users/{id}/profile",
		"/api/v1/users/{id}/password",
		"/api/v1/users/{id}/login",
		"/api/v1/users/{id}/restore",
		"/api/v1/users/by-login/{login}",
		"/api/v1/users/by-login/{login}/permanent",
	}
	for _, p := range wantPaths {
		if doc.Paths.Find(p) == nil {
			t.Errorf("path %s missing from document", p)
		}
	}

	for _, schema := range []string{"User", "UserSummary", "TokenResponse", "ErrorResponse"} {
		if _, ok := doc.Components.Schemas[schema]; !ok {
			t.Errorf("schema %s missing from components", schema)
		}
	}
	if _, ok := doc.Components.SecuritySchemes["bearerAuth"]; !ok {
		t.Error("bearerAuth security scheme missing")
	}
}

func TestGenerateMarshalsToJSON(t *testing.T) {
	doc := Generate("test")

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var round map[string]interface{}
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if round["openapi"] != "3.1.0" {
		t.Errorf("openapi = %v, want 3.1.0", round["openapi"])
	}
}
