package generate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasynth/oasynth/introspect"
	"github.com/oasynth/oasynth/openapi"
)

func intPtr(v int) *int { return &v }

func userSerializer() *introspect.Serializer {
	return &introspect.Serializer{
		Name: "User",
		Fields: []introspect.Field{
			{Name: "id", Kind: introspect.KindInteger, Required: true, ReadOnly: true},
			{Name: "name", Kind: introspect.KindString, Required: true,
				Constraints: introspect.Constraints{MaxLength: intPtr(32)}},
		},
	}
}

func mustGenerate(t *testing.T, cfg Config, endpoints []introspect.Endpoint) (*openapi.Document, Diagnostics) {
	t.Helper()
	g, err := New(cfg)
	require.NoError(t, err)
	doc, diags, err := g.Generate(endpoints)
	require.NoError(t, err)
	return doc, diags
}

func componentNames(doc *openapi.Document) []string {
	if doc.Components == nil {
		return nil
	}
	names := make([]string, 0, len(doc.Components.Schemas))
	for n := range doc.Components.Schemas {
		names = append(names, n)
	}
	return names
}

func TestGenerateDeterminism(t *testing.T) {
	endpoints := func() []introspect.Endpoint {
		return []introspect.Endpoint{
			{Path: "/users", Method: "GET", Handler: &introspect.Handler{
				List:      true,
				Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: userSerializer()}},
			}},
			{Path: "/users/{id:int}", Method: "GET", Handler: &introspect.Handler{
				Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: userSerializer()}},
			}},
			{Path: "/users", Method: "POST", Handler: &introspect.Handler{
				Request:   userSerializer(),
				Responses: map[int]introspect.ResponseDescriptor{201: {Serializer: userSerializer()}},
			}},
		}
	}

	doc1, _ := mustGenerate(t, Config{}, endpoints())
	doc2, _ := mustGenerate(t, Config{}, endpoints())

	data1, err := json.Marshal(doc1)
	require.NoError(t, err)
	data2, err := json.Marshal(doc2)
	require.NoError(t, err)
	assert.Equal(t, string(data1), string(data2))
}

func TestGenerateDedup(t *testing.T) {
	// Two structurally identical serializer instances under the same name
	// collapse to one component.
	endpoints := []introspect.Endpoint{
		{Path: "/users", Method: "GET", Handler: &introspect.Handler{
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: userSerializer()}},
		}},
		{Path: "/admins", Method: "GET", Handler: &introspect.Handler{
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: userSerializer()}},
		}},
	}

	doc, diags := mustGenerate(t, Config{}, endpoints)
	assert.ElementsMatch(t, []string{"User"}, componentNames(doc))
	assert.Zero(t, diags.Warnings())
}

func TestGenerateCollision(t *testing.T) {
	album := &introspect.Serializer{
		Name:   "Album",
		Fields: []introspect.Field{{Name: "title", Kind: introspect.KindString, Required: true}},
	}
	albumWithYear := &introspect.Serializer{
		Name: "Album",
		Fields: []introspect.Field{
			{Name: "title", Kind: introspect.KindString, Required: true},
			{Name: "year", Kind: introspect.KindInteger},
		},
	}

	endpoints := []introspect.Endpoint{
		{Path: "/albums", Method: "GET", Handler: &introspect.Handler{
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: album}},
		}},
		{Path: "/releases", Method: "GET", Handler: &introspect.Handler{
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: albumWithYear}},
		}},
	}

	doc, diags := mustGenerate(t, Config{}, endpoints)

	names := componentNames(doc)
	require.Len(t, names, 2)
	assert.Contains(t, names, "Album")

	var suffixed string
	for _, n := range names {
		if n != "Album" {
			suffixed = n
		}
	}
	require.NotEmpty(t, suffixed)
	assert.True(t, strings.HasPrefix(suffixed, "Album_"))
	assert.Len(t, suffixed, len("Album_")+8)

	// Both definitions survive intact.
	plain := doc.Components.Schemas["Album"]
	assert.Equal(t, []string{"title"}, plain.Properties.Keys())
	other := doc.Components.Schemas[suffixed]
	assert.Equal(t, []string{"title", "year"}, other.Properties.Keys())

	assert.GreaterOrEqual(t, diags.Warnings(), 1)
}

func TestGenerateRecursiveSerializer(t *testing.T) {
	category := &introspect.Serializer{Name: "Category"}
	category.Fields = []introspect.Field{
		{Name: "name", Kind: introspect.KindString, Required: true},
		{Name: "parent", Nested: category},
	}

	endpoints := []introspect.Endpoint{
		{Path: "/categories/{id}", Method: "GET", Handler: &introspect.Handler{
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: category}},
		}},
	}

	doc, _ := mustGenerate(t, Config{}, endpoints)

	require.ElementsMatch(t, []string{"Category"}, componentNames(doc))
	comp := doc.Components.Schemas["Category"]
	parent, ok := comp.Properties.Get("parent")
	require.True(t, ok)
	assert.Equal(t, "#/components/schemas/Category", parent.Ref)
}

func TestDirectionSymmetry(t *testing.T) {
	user := &introspect.Serializer{
		Name: "User",
		Fields: []introspect.Field{
			{Name: "id", Kind: introspect.KindInteger, Required: true, ReadOnly: true},
			{Name: "password", Kind: introspect.KindString, Required: true, WriteOnly: true},
			{Name: "name", Kind: introspect.KindString, Required: true},
		},
	}

	endpoints := []introspect.Endpoint{
		{Path: "/users", Method: "POST", Handler: &introspect.Handler{
			Request:   user,
			Responses: map[int]introspect.ResponseDescriptor{201: {Serializer: user}},
		}},
	}

	doc, _ := mustGenerate(t, Config{SplitRequestResponse: true}, endpoints)

	require.Contains(t, doc.Components.Schemas, "User")
	require.Contains(t, doc.Components.Schemas, "UserRequest")

	response := doc.Components.Schemas["User"]
	assert.Equal(t, []string{"id", "name"}, response.Properties.Keys())

	request := doc.Components.Schemas["UserRequest"]
	assert.Equal(t, []string{"password", "name"}, request.Properties.Keys())
}

func TestResponseRequiredPolicy(t *testing.T) {
	endpoints := []introspect.Endpoint{
		{Path: "/users/{id}", Method: "GET", Handler: &introspect.Handler{
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: userSerializer()}},
		}},
	}

	t.Run("read-only excluded by default", func(t *testing.T) {
		doc, _ := mustGenerate(t, Config{}, endpoints)
		comp := doc.Components.Schemas["User"]
		assert.Equal(t, []string{"id", "name"}, comp.Properties.Keys())
		assert.Equal(t, []string{"name"}, comp.Required)
	})

	t.Run("read-only included when configured", func(t *testing.T) {
		doc, _ := mustGenerate(t, Config{ReadOnlyRequired: true}, endpoints)
		comp := doc.Components.Schemas["User"]
		assert.Equal(t, []string{"id", "name"}, comp.Required)
	})
}

func TestMissingRequestSerializer(t *testing.T) {
	endpoints := []introspect.Endpoint{
		{Path: "/webhooks", Method: "POST", Handler: &introspect.Handler{}},
	}

	doc, diags := mustGenerate(t, Config{}, endpoints)

	op := doc.Paths["/webhooks"].Post
	require.NotNil(t, op.RequestBody)
	mt := op.RequestBody.Content["application/json"]
	require.NotNil(t, mt)
	assert.True(t, mt.Schema.Type.IsEmpty())
	assert.GreaterOrEqual(t, diags.Warnings(), 1)
}

func TestPaginationEnvelope(t *testing.T) {
	endpoints := []introspect.Endpoint{
		{Path: "/users", Method: "GET", Handler: &introspect.Handler{
			List:      true,
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: userSerializer()}},
		}},
	}

	doc, _ := mustGenerate(t, Config{Pagination: true}, endpoints)

	resp := doc.Paths["/users"].Get.Responses["200"]
	schema := resp.Content["application/json"].Schema
	assert.Equal(t, "#/components/schemas/PaginatedUserList", schema.Ref)

	envelope := doc.Components.Schemas["PaginatedUserList"]
	require.NotNil(t, envelope)
	assert.Equal(t, []string{"count", "next", "previous", "results"}, envelope.Properties.Keys())
	assert.Equal(t, []string{"count", "results"}, envelope.Required)

	results, _ := envelope.Properties.Get("results")
	assert.Equal(t, "#/components/schemas/User", results.Items.Ref)
}

func TestBareArrayWithoutPagination(t *testing.T) {
	endpoints := []introspect.Endpoint{
		{Path: "/users", Method: "GET", Handler: &introspect.Handler{
			List:      true,
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: userSerializer()}},
		}},
	}

	doc, _ := mustGenerate(t, Config{}, endpoints)

	schema := doc.Paths["/users"].Get.Responses["200"].Content["application/json"].Schema
	assert.True(t, schema.Type.Is("array"))
	assert.Equal(t, "#/components/schemas/User", schema.Items.Ref)
}

func TestSecuritySchemes(t *testing.T) {
	auth := introspect.Auth{
		Name:   "basicAuth",
		Scheme: &openapi.SecurityScheme{Type: "http", Scheme: "basic"},
	}
	endpoints := []introspect.Endpoint{
		{Path: "/users", Method: "GET", Handler: &introspect.Handler{
			Auth:      []introspect.Auth{auth},
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: userSerializer()}},
		}},
	}

	doc, _ := mustGenerate(t, Config{}, endpoints)

	require.NotNil(t, doc.Components)
	require.Contains(t, doc.Components.SecuritySchemes, "basicAuth")
	require.Len(t, doc.Paths["/users"].Get.Security, 1)
	assert.Equal(t, []string{}, doc.Paths["/users"].Get.Security[0]["basicAuth"])
}

func TestOperationIDSanitizing(t *testing.T) {
	endpoints := []introspect.Endpoint{
		{Path: "/a", Method: "GET", Handler: &introspect.Handler{ID: "shared"}},
		{Path: "/b", Method: "GET", Handler: &introspect.Handler{ID: "shared"}},
	}

	doc, diags := mustGenerate(t, Config{}, endpoints)

	assert.Equal(t, "shared", doc.Paths["/a"].Get.OperationID)
	assert.Equal(t, "shared_2", doc.Paths["/b"].Get.OperationID)
	assert.GreaterOrEqual(t, diags.Warnings(), 1)
}

func TestDuplicateEndpointsDropped(t *testing.T) {
	endpoints := []introspect.Endpoint{
		{Path: "/users", Method: "GET", Handler: &introspect.Handler{Summary: "first"}},
		{Path: "/users", Method: "GET", Handler: &introspect.Handler{Summary: "second"}},
	}

	doc, diags := mustGenerate(t, Config{}, endpoints)

	assert.Equal(t, "first", doc.Paths["/users"].Get.Summary)
	assert.GreaterOrEqual(t, diags.Warnings(), 1)
}

func TestPreprocessorHooks(t *testing.T) {
	endpoints := []introspect.Endpoint{
		{Path: "/users", Method: "GET", Handler: &introspect.Handler{}},
		{Path: "/users.{format}", Method: "GET", Handler: &introspect.Handler{}},
		{Path: "/internal/health", Method: "GET", Handler: &introspect.Handler{}},
	}

	dropInternal := func(eps []introspect.Endpoint) []introspect.Endpoint {
		out := eps[:0:0]
		for _, ep := range eps {
			if !strings.HasPrefix(ep.Path, "/internal/") {
				out = append(out, ep)
			}
		}
		return out
	}

	doc, _ := mustGenerate(t, Config{
		Preprocessors: []PreprocessHook{ExcludePathFormat, dropInternal},
	}, endpoints)

	assert.Len(t, doc.Paths, 1)
	assert.Contains(t, doc.Paths, "/users")
}

func TestPolymorphicSerializer(t *testing.T) {
	cat := &introspect.Serializer{
		Name: "Cat",
		Fields: []introspect.Field{
			{Name: "pet_type", Kind: introspect.KindString, Required: true},
			{Name: "name", Kind: introspect.KindString, Required: true},
			{Name: "meow_volume", Kind: introspect.KindInteger},
		},
	}
	dog := &introspect.Serializer{
		Name: "Dog",
		Fields: []introspect.Field{
			{Name: "pet_type", Kind: introspect.KindString, Required: true},
			{Name: "name", Kind: introspect.KindString, Required: true},
			{Name: "bark_volume", Kind: introspect.KindInteger},
		},
	}
	pet := &introspect.Serializer{
		Name:          "Pet",
		Variants:      []*introspect.Serializer{cat, dog},
		Discriminator: "pet_type",
	}

	endpoints := []introspect.Endpoint{
		{Path: "/pets/{id}", Method: "GET", Handler: &introspect.Handler{
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: pet}},
		}},
	}

	doc, _ := mustGenerate(t, Config{}, endpoints)

	assert.ElementsMatch(t, []string{"Pet", "PetBase", "Cat", "Dog"}, componentNames(doc))

	union := doc.Components.Schemas["Pet"]
	require.Len(t, union.OneOf, 2)
	require.NotNil(t, union.Discriminator)
	assert.Equal(t, "pet_type", union.Discriminator.PropertyName)
	assert.Equal(t, "#/components/schemas/Cat", union.Discriminator.Mapping["Cat"])

	base := doc.Components.Schemas["PetBase"]
	assert.Equal(t, []string{"pet_type", "name"}, base.Properties.Keys())
	assert.Equal(t, []string{"name", "pet_type"}, base.Required)

	catComp := doc.Components.Schemas["Cat"]
	require.Len(t, catComp.AllOf, 2)
	assert.Equal(t, "#/components/schemas/PetBase", catComp.AllOf[0].Ref)
	assert.Equal(t, []string{"meow_volume"}, catComp.AllOf[1].Properties.Keys())
}

func TestNullableRendering(t *testing.T) {
	serializer := func() *introspect.Serializer {
		return &introspect.Serializer{
			Name: "Profile",
			Fields: []introspect.Field{
				{Name: "bio", Kind: introspect.KindString, Nullable: true},
			},
		}
	}
	endpoints := func() []introspect.Endpoint {
		return []introspect.Endpoint{
			{Path: "/profile", Method: "GET", Handler: &introspect.Handler{
				Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: serializer()}},
			}},
		}
	}

	t.Run("3.0 nullable keyword", func(t *testing.T) {
		doc, _ := mustGenerate(t, Config{}, endpoints())
		bio, _ := doc.Components.Schemas["Profile"].Properties.Get("bio")
		assert.True(t, bio.Nullable)
		assert.Equal(t, []string{"string"}, bio.Type.Values())
	})

	t.Run("3.1 type array", func(t *testing.T) {
		doc, _ := mustGenerate(t, Config{OpenAPIVersion: "3.1.0"}, endpoints())
		assert.Equal(t, "3.1.0", doc.OpenAPI)
		bio, _ := doc.Components.Schemas["Profile"].Properties.Get("bio")
		assert.False(t, bio.Nullable)
		assert.Equal(t, []string{"string", "null"}, bio.Type.Values())
	})
}

func TestDefaultResponses(t *testing.T) {
	endpoints := []introspect.Endpoint{
		{Path: "/things", Method: "POST", Handler: &introspect.Handler{Request: userSerializer()}},
		{Path: "/things/{id}", Method: "DELETE", Handler: &introspect.Handler{}},
	}

	doc, _ := mustGenerate(t, Config{}, endpoints)

	assert.Contains(t, doc.Paths["/things"].Post.Responses, "201")
	deleted := doc.Paths["/things/{id}"].Delete.Responses["204"]
	require.NotNil(t, deleted)
	assert.Nil(t, deleted.Content)
}

func TestCollisionKeepsForeignRefs(t *testing.T) {
	// Two distinct serializers share the name "Album" and the outer one
	// references the inner one. The collision rename must move only the
	// outer component; its reference to the plain "Album" stays put.
	inner := &introspect.Serializer{
		Name:   "Album",
		Fields: []introspect.Field{{Name: "track", Kind: introspect.KindString}},
	}
	outer := &introspect.Serializer{
		Name: "Album",
		Fields: []introspect.Field{
			{Name: "title", Kind: introspect.KindString},
			{Name: "related", Nested: inner},
		},
	}

	endpoints := []introspect.Endpoint{
		{Path: "/albums", Method: "GET", Handler: &introspect.Handler{
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: outer}},
		}},
	}

	doc, diags := mustGenerate(t, Config{}, endpoints)

	names := componentNames(doc)
	require.Len(t, names, 2)
	require.Contains(t, names, "Album")

	var suffixed string
	for _, n := range names {
		if strings.HasPrefix(n, "Album_") {
			suffixed = n
		}
	}
	require.NotEmpty(t, suffixed)

	plain := doc.Components.Schemas["Album"]
	assert.Equal(t, []string{"track"}, plain.Properties.Keys())

	related, ok := doc.Components.Schemas[suffixed].Properties.Get("related")
	require.True(t, ok)
	assert.Equal(t, "#/components/schemas/Album", related.Ref)

	assert.GreaterOrEqual(t, diags.Warnings(), 1)
}

func TestPolymorphicRecursiveVariant(t *testing.T) {
	// A variant referencing its own union must resolve to the union's
	// real component name, with no duplicate union registration.
	pet := &introspect.Serializer{Name: "Pet", Discriminator: "pet_type"}
	cat := &introspect.Serializer{
		Name: "Cat",
		Fields: []introspect.Field{
			{Name: "pet_type", Kind: introspect.KindString, Required: true},
			{Name: "name", Kind: introspect.KindString, Required: true},
			{Name: "friend", Nested: pet},
		},
	}
	dog := &introspect.Serializer{
		Name: "Dog",
		Fields: []introspect.Field{
			{Name: "pet_type", Kind: introspect.KindString, Required: true},
			{Name: "name", Kind: introspect.KindString, Required: true},
		},
	}
	pet.Variants = []*introspect.Serializer{cat, dog}

	endpoints := []introspect.Endpoint{
		{Path: "/pets/{id}", Method: "GET", Handler: &introspect.Handler{
			Responses: map[int]introspect.ResponseDescriptor{200: {Serializer: pet}},
		}},
	}

	doc, _ := mustGenerate(t, Config{}, endpoints)

	require.ElementsMatch(t, []string{"Pet", "PetBase", "Cat", "Dog"}, componentNames(doc))

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "pending")

	catComp := doc.Components.Schemas["Cat"]
	require.Len(t, catComp.AllOf, 2)
	friend, ok := catComp.AllOf[1].Properties.Get("friend")
	require.True(t, ok)
	assert.Equal(t, "#/components/schemas/Pet", friend.Ref)

	union := doc.Components.Schemas["Pet"]
	require.Len(t, union.OneOf, 2)
	require.NotNil(t, union.Discriminator)
	assert.Equal(t, map[string]string{
		"Cat": "#/components/schemas/Cat",
		"Dog": "#/components/schemas/Dog",
	}, union.Discriminator.Mapping)
}

func TestDuplicateEndpointsAcrossConverters(t *testing.T) {
	// The same path spelled with and without a converter is one endpoint.
	endpoints := []introspect.Endpoint{
		{Path: "/users/{id:int}", Method: "GET", Handler: &introspect.Handler{Summary: "typed"}},
		{Path: "/users/{id}", Method: "GET", Handler: &introspect.Handler{Summary: "untyped"}},
	}

	doc, diags := mustGenerate(t, Config{}, endpoints)

	require.Len(t, doc.Paths, 1)
	op := doc.Paths["/users/{id}"].Get
	require.NotNil(t, op)
	assert.Equal(t, "typed", op.Summary)
	assert.GreaterOrEqual(t, diags.Warnings(), 1)
}
