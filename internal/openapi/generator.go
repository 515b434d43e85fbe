// Package openapi generates the OpenAPI 3.1 document describing the user
// API, served at /openapi.json.
package openapi

import (
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the OpenAPI document for the service.
func Generate(version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "UserAPI",
			Description: "User-identity service: accounts, authentication, and role-based access control.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: "/"},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	doc.Security = openapi3.SecurityRequirements{
		{"bearerAuth": {}},
	}

	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: objectSchema(map[string]*openapi3.SchemaRef{
			"error": {
				Value: objectSchema(map[string]*openapi3.SchemaRef{
					"code":    typed("integer"),
					"message": typed("string"),
				}),
			},
		}),
	}
	doc.Components.Schemas["User"] = &openapi3.SchemaRef{
		Value: objectSchema(map[string]*openapi3.SchemaRef{
			"id":          formatted("string", "uuid"),
			"login":       typed("string"),
			"name":        typed("string"),
			"gender":      enumSchema("female", "male", "unknown"),
			"birthday":    formatted("string", "date-time"),
			"admin":       typed("boolean"),
			"created_on":  formatted("string", "date-time"),
			"created_by":  formatted("string", "uuid"),
			"modified_on": formatted("string", "date-time"),
			"modified_by": formatted("string", "uuid"),
			"revoked_on":  formatted("string", "date-time"),
			"revoked_by":  formatted("string", "uuid"),
		}),
	}
	doc.Components.Schemas["UserSummary"] = &openapi3.SchemaRef{
		Value: objectSchema(map[string]*openapi3.SchemaRef{
			"login":     typed("string"),
			"name":      typed("string"),
			"gender":    enumSchema("female", "male", "unknown"),
			"birthday":  formatted("string", "date-time"),
			"is_active": typed("boolean"),
		}),
	}
	doc.Components.Schemas["TokenResponse"] = &openapi3.SchemaRef{
		Value: objectSchema(map[string]*openapi3.SchemaRef{
			"token":      typed("string"),
			"token_type": typed("string"),
			"expires_in": typed("integer"),
		}),
	}

	doc.Paths = openapi3.NewPaths()
	addPaths(doc)
	return doc
}

func addPaths(doc *openapi3.T) {
	userRef := ref("#/components/schemas/User")
	userList := &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: userRef,
	}}

	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: op("Liveness probe", nil, responses(map[int]*openapi3.SchemaRef{200: nil}), false),
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: op("Readiness probe", nil, responses(map[int]*openapi3.SchemaRef{200: nil, 503: nil}), false),
	})
	doc.Paths.Set("/api/v1/auth/login", &openapi3.PathItem{
		Post: op("Authenticate and receive a bearer token",
			objectSchema(map[string]*openapi3.SchemaRef{
				"login":    typed("string"),
				"password": typed("string"),
			}),
			responses(map[int]*openapi3.SchemaRef{200: ref("#/components/schemas/TokenResponse"), 400: nil, 401: nil}),
			false),
	})
	doc.Paths.Set("/api/v1/users/authenticate", &openapi3.PathItem{
		Post: op("Verify credentials and return the account",
			objectSchema(map[string]*openapi3.SchemaRef{
				"login":    typed("string"),
				"password": typed("string"),
			}),
			responses(map[int]*openapi3.SchemaRef{200: userRef, 400: nil, 401: nil}),
			false),
	})
	doc.Paths.Set("/api/v1/users", &openapi3.PathItem{
		Post: op("Create a user (admin)",
			objectSchema(map[string]*openapi3.SchemaRef{
				"login":    typed("string"),
				"password": typed("string"),
				"name":     typed("string"),
				"gender":   enumSchema("female", "male", "unknown"),
				"birthday": formatted("string", "date"),
				"admin":    typed("boolean"),
			}),
			responses(map[int]*openapi3.SchemaRef{201: userRef, 400: nil, 403: nil, 409: nil}),
			true),
	})
	doc.Paths.Set("/api/v1/users/active", &openapi3.PathItem{
		Get: op("List active users ordered by creation time (admin)", nil,
			responses(map[int]*openapi3.SchemaRef{200: userList, 403: nil}), true),
	})
	doc.Paths.Set("/api/v1/users/older-than/{age}", &openapi3.PathItem{
		Parameters: pathParams("age", "integer"),
		Get: op("List users older than the given age (admin)", nil,
			responses(map[int]*openapi3.SchemaRef{200: userList, 400: nil, 403: nil}), true),
	})
	doc.Paths.Set("/api/v1/users/{id}", &openapi3.PathItem{
		Parameters: pathParams("id", "string"),
		Get: op("Read a user by id (admin, or self while active)", nil,
			responses(map[int]*openapi3.SchemaRef{200: userRef, 400: nil, 403: nil, 404: nil}), true),
	})
	doc.Paths.Set("/api/v1/users/{id}/profile", &openapi3.PathItem{
		Parameters: pathParams("id", "string"),
		Put: op("Update profile fields; birthday is always overwritten",
			objectSchema(map[string]*openapi3.SchemaRef{
				"name":     typed("string"),
				"gender":   enumSchema("female", "male", "unknown"),
				"birthday": formatted("string", "date"),
			}),
			responses(map[int]*openapi3.SchemaRef{204: nil, 400: nil, 403: nil, 404: nil}), true),
	})
	doc.Paths.Set("/api/v1/users/{id}/password", &openapi3.PathItem{
		Parameters: pathParams("id", "string"),
		Put: op("Change password",
			objectSchema(map[string]*openapi3.SchemaRef{"new_password": typed("string")}),
			responses(map[int]*openapi3.SchemaRef{204: nil, 400: nil, 403: nil, 404: nil}), true),
	})
	doc.Paths.Set("/api/v1/users/{id}/login", &openapi3.PathItem{
		Parameters: pathParams("id", "string"),
		Put: op("Change login",
			objectSchema(map[string]*openapi3.SchemaRef{"new_login": typed("string")}),
			responses(map[int]*openapi3.SchemaRef{204: nil, 400: nil, 403: nil, 404: nil, 409: nil}), true),
	})
	doc.Paths.Set("/api/v1/users/{id}/restore", &openapi3.PathItem{
		Parameters: pathParams("id", "string"),
		Post: op("Restore a revoked user (admin)", nil,
			responses(map[int]*openapi3.SchemaRef{204: nil, 400: nil, 403: nil, 404: nil}), true),
	})
	doc.Paths.Set("/api/v1/users/by-login/{login}", &openapi3.PathItem{
		Parameters: pathParams("login", "string"),
		Get: op("Look up a user summary by login (admin)", nil,
			responses(map[int]*openapi3.SchemaRef{200: ref("#/components/schemas/UserSummary"), 403: nil, 404: nil}), true),
		Delete: op("Soft-delete a user by login (admin)", nil,
			responses(map[int]*openapi3.SchemaRef{204: nil, 403: nil, 404: nil}), true),
	})
	doc.Paths.Set("/api/v1/users/by-login/{login}/permanent", &openapi3.PathItem{
		Parameters: pathParams("login", "string"),
		Delete: op("Permanently delete a user by login (admin)", nil,
			responses(map[int]*openapi3.SchemaRef{204: nil, 403: nil, 404: nil}), true),
	})
}

// ---------------------------------------------------------------------------
// Schema construction helpers
// ---------------------------------------------------------------------------

func typed(t string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{t}}}
}

func formatted(t, format string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{t}, Format: format}}
}

func enumSchema(values ...string) *openapi3.SchemaRef {
	enum := make([]interface{}, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: enum}}
}

func objectSchema(props map[string]*openapi3.SchemaRef) *openapi3.Schema {
	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: openapi3.Schemas{},
	}
	for name, prop := range props {
		schema.Properties[name] = prop
	}
	return schema
}

func ref(path string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Ref: path}
}

func pathParams(name, typ string) openapi3.Parameters {
	return openapi3.Parameters{
		&openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:     name,
				In:       "path",
				Required: true,
				Schema:   typed(typ),
			},
		},
	}
}

func op(summary string, body *openapi3.Schema, resp *openapi3.Responses, secured bool) *openapi3.Operation {
	operation := &openapi3.Operation{
		Summary:   summary,
		Responses: resp,
	}
	if body != nil {
		operation.RequestBody = &openapi3.RequestBodyRef{
			Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchema(body),
			},
		}
	}
	if !secured {
		operation.Security = &openapi3.SecurityRequirements{}
	}
	return operation
}

func responses(codes map[int]*openapi3.SchemaRef) *openapi3.Responses {
	resp := openapi3.NewResponses()
	for code, schema := range codes {
		r := &openapi3.Response{Description: strPtr(statusText(code))}
		if schema != nil {
			r.Content = openapi3.NewContentWithJSONSchemaRef(schema)
		} else if code >= 400 {
			r.Content = openapi3.NewContentWithJSONSchemaRef(ref("#/components/schemas/ErrorResponse"))
		}
		resp.Set(strconv.Itoa(code), &openapi3.ResponseRef{Value: r})
	}
	return resp
}

func statusText(code int) string {
	switch {
	case code < 300:
		return "Success"
	case code == 400:
		return "Invalid request"
	case code == 401:
		return "Authentication required"
	case code == 403:
		return "Access denied"
	case code == 404:
		return "Not found"
	case code == 409:
		return "Conflict"
	default:
		return "Error"
	}
}

func strPtr(s string) *string {
	return &s
}
