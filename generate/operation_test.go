package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasynth/oasynth/introspect"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		in         string
		normalized string
		vars       []pathVariable
	}{
		{"/users", "/users", nil},
		{"/users/{id}", "/users/{id}", []pathVariable{{name: "id"}}},
		{"/users/{id:int}/pets/{pet:uuid}", "/users/{id}/pets/{pet}",
			[]pathVariable{{name: "id", converter: "int"}, {name: "pet", converter: "uuid"}}},
		{"/posts/{slug:slug}", "/posts/{slug}", []pathVariable{{name: "slug", converter: "slug"}}},
		{"/broken/{open", "/broken/{open", nil},
	}
	for _, tt := range tests {
		normalized, vars := parsePath(tt.in)
		assert.Equal(t, tt.normalized, normalized, tt.in)
		assert.Equal(t, tt.vars, vars, tt.in)
	}
}

func TestConverterSchemas(t *testing.T) {
	assert.True(t, converterSchema("int").Type.Is("integer"))
	assert.Equal(t, "uuid", converterSchema("uuid").Format)
	assert.NotEmpty(t, converterSchema("slug").Pattern)
	// Unknown converters degrade to strings.
	assert.True(t, converterSchema("custom").Type.Is("string"))
}

func TestOperationIDDerivation(t *testing.T) {
	rv := newTestResolver(t, Config{})
	h := &introspect.Handler{}

	tests := []struct {
		tokens []string
		method string
		list   bool
		want   string
	}{
		{[]string{"users"}, "GET", false, "users_retrieve"},
		{[]string{"users"}, "GET", true, "users_list"},
		{[]string{"users"}, "POST", false, "users_create"},
		{[]string{"users"}, "PUT", false, "users_update"},
		{[]string{"users"}, "PATCH", false, "users_partial_update"},
		{[]string{"users"}, "DELETE", false, "users_destroy"},
		{[]string{"users", "avatar"}, "GET", false, "users_avatar_retrieve"},
		{nil, "GET", false, "root_retrieve"},
	}
	for _, tt := range tests {
		h.List = tt.list
		got := rv.operationID(h, tt.tokens, tt.method, nil)
		assert.Equal(t, tt.want, got, "%s %v", tt.method, tt.tokens)
	}
}

func TestOperationIDOverrideAndCamelize(t *testing.T) {
	rv := newTestResolver(t, Config{})
	h := &introspect.Handler{ID: "fetchUser"}
	assert.Equal(t, "fetchUser", rv.operationID(h, []string{"users"}, "GET", nil))

	rv = newTestResolver(t, Config{CamelizeNames: true})
	got := rv.operationID(&introspect.Handler{}, []string{"users"}, "PATCH", nil)
	assert.Equal(t, "usersPartialUpdate", got)
}

func TestPathTokensPrefixStrip(t *testing.T) {
	rv := newTestResolver(t, Config{PathPrefix: "^/api/v[0-9]+"})
	assert.Equal(t, []string{"users", "avatar"}, rv.pathTokens("/api/v1/users/{id}/avatar"))
	// A prefix match later in the path is not stripped.
	assert.Equal(t, []string{"files", "api", "v1"}, rv.pathTokens("/files/api/v1"))
	// A ".{format}"-style extension is cut from its segment.
	rv = newTestResolver(t, Config{})
	assert.Equal(t, []string{"users"}, rv.pathTokens("/users.json"))
}

func TestOperationTags(t *testing.T) {
	rv := newTestResolver(t, Config{})
	assert.Equal(t, []string{"users"}, rv.operationTags(&introspect.Handler{}, []string{"users", "avatar"}))
	assert.Equal(t, []string{"accounts"}, rv.operationTags(&introspect.Handler{Tags: []string{"accounts"}}, []string{"users"}))
	assert.Nil(t, rv.operationTags(&introspect.Handler{}, nil))
}

func TestBuildParametersMerging(t *testing.T) {
	rv := newTestResolver(t, Config{})
	declared := []introspect.Parameter{
		{Name: "id", Location: introspect.InPath,
			Field: introspect.Field{Name: "id", Kind: introspect.KindString, Format: introspect.FormatUUID, Description: "resource id"}},
		{Name: "page", Location: introspect.InQuery,
			Field: introspect.Field{Name: "page", Kind: introspect.KindInteger}},
	}

	params, err := rv.buildParameters([]pathVariable{{name: "id", converter: "int"}}, declared)
	require.NoError(t, err)
	require.Len(t, params, 2)

	// The declared parameter overrides the converter-derived one in place.
	assert.Equal(t, "id", params[0].Name)
	assert.Equal(t, introspect.InPath, params[0].In)
	assert.True(t, params[0].Required)
	assert.Equal(t, "uuid", params[0].Schema.Format)
	assert.Equal(t, "resource id", params[0].Description)

	assert.Equal(t, "page", params[1].Name)
	assert.Equal(t, introspect.InQuery, params[1].In)
	assert.False(t, params[1].Required)
}

func TestSortEndpoints(t *testing.T) {
	endpoints := []introspect.Endpoint{
		{Path: "/users/{id}", Method: "GET"},
		{Path: "/users", Method: "POST"},
		{Path: "/users", Method: "GET"},
		{Path: "/users/active", Method: "GET"},
		{Path: "/users", Method: "DELETE"},
	}
	sortEndpoints(endpoints)

	got := make([][2]string, len(endpoints))
	for i, ep := range endpoints {
		got[i] = [2]string{ep.Path, ep.Method}
	}
	// Variable segments sort before literal siblings; methods follow the
	// GET, POST, PUT, PATCH, DELETE rank within one path.
	assert.Equal(t, [][2]string{
		{"/users", "GET"},
		{"/users", "POST"},
		{"/users", "DELETE"},
		{"/users/{id}", "GET"},
		{"/users/active", "GET"},
	}, got)
}

func TestFallbackName(t *testing.T) {
	assert.Equal(t, "UsersAvatarRequest", fallbackName([]string{"users", "avatar"}, "Request"))
	assert.Equal(t, "AuthTokenResponse", fallbackName([]string{"auth_token"}, "Response"))
	assert.Equal(t, "", fallbackName(nil, "Request"))
}

func TestCamelizePascalize(t *testing.T) {
	assert.Equal(t, "usersPartialUpdate", camelize("users_partial_update"))
	assert.Equal(t, "apiKey", camelize("api-key"))
	assert.Equal(t, "AuthToken", pascalize("auth_token"))
	assert.Equal(t, "Users", pascalize("users"))
}
