package generate

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/oasynth/oasynth/introspect"
	"github.com/oasynth/oasynth/openapi"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// converterSchemas maps path variable converters ("{id:int}") to parameter
// schemas. Unknown converters fall back to plain strings.
var converterSchemas = map[string]func() *openapi.Schema{
	"int":  func() *openapi.Schema { return &openapi.Schema{Type: openapi.TypeString("integer")} },
	"str":  func() *openapi.Schema { return &openapi.Schema{Type: openapi.TypeString("string")} },
	"uuid": func() *openapi.Schema { return &openapi.Schema{Type: openapi.TypeString("string"), Format: "uuid"} },
	"slug": func() *openapi.Schema {
		return &openapi.Schema{Type: openapi.TypeString("string"), Pattern: "^[-a-zA-Z0-9_]+$"}
	},
	"path": func() *openapi.Schema { return &openapi.Schema{Type: openapi.TypeString("string")} },
}

// pathVariable is one "{name}" or "{name:converter}" segment of a template.
type pathVariable struct {
	name      string
	converter string
}

// parsePath splits a path template into the normalized OpenAPI form (bare
// "{name}" segments) and the variables it declares, in order.
func parsePath(path string) (string, []pathVariable) {
	var (
		out  strings.Builder
		vars []pathVariable
	)
	rest := path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			out.WriteString(rest)
			break
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			out.WriteString(rest)
			break
		}
		closing += open

		out.WriteString(rest[:open])
		inner := rest[open+1 : closing]
		name, converter := inner, ""
		if i := strings.IndexByte(inner, ':'); i >= 0 {
			name, converter = inner[:i], inner[i+1:]
		}
		vars = append(vars, pathVariable{name: name, converter: converter})
		out.WriteString("{" + name + "}")
		rest = rest[closing+1:]
	}
	return out.String(), vars
}

// buildOperation assembles the full operation for one endpoint tuple. Missing
// introspection data degrades to free-form schemas with diagnostics; only
// registry corruption propagates as an error.
func (rv *resolver) buildOperation(ep introspect.Endpoint) (string, *openapi.Operation, error) {
	method := strings.ToUpper(ep.Method)
	pop := rv.diags.push(method + " " + ep.Path)
	defer pop()

	normalized, vars := parsePath(ep.Path)
	tokens := rv.pathTokens(normalized)

	op := &openapi.Operation{Responses: make(map[string]*openapi.Response)}

	h := ep.Handler
	if h == nil {
		rv.diags.warn("endpoint without handler, generating stub operation")
		h = &introspect.Handler{}
	}

	op.Summary, op.Description = h.Docstring()
	op.Deprecated = h.IsDeprecated()
	op.OperationID = rv.operationID(h, tokens, method, vars)
	op.Tags = rv.operationTags(h, tokens)

	params, err := rv.buildParameters(vars, h.ParameterList())
	if err != nil {
		return "", nil, err
	}
	op.Parameters = params

	if methodHasBody(method) {
		body, err := rv.buildRequestBody(h, tokens)
		if err != nil {
			return "", nil, err
		}
		op.RequestBody = body
	}

	if err := rv.buildResponses(op, h, method, tokens); err != nil {
		return "", nil, err
	}

	security, err := rv.buildSecurity(h.AuthDescriptors())
	if err != nil {
		return "", nil, err
	}
	op.Security = security

	return normalized, op, nil
}

// pathTokens returns the non-variable path segments after stripping the
// configured path prefix.
func (rv *resolver) pathTokens(path string) []string {
	if rv.cfg.pathPrefix != nil {
		if loc := rv.cfg.pathPrefix.FindStringIndex(path); loc != nil && loc[0] == 0 {
			path = path[loc[1]:]
		}
	}
	var tokens []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		if i := strings.IndexByte(seg, '.'); i >= 0 {
			seg = seg[:i]
		}
		tokens = append(tokens, seg)
	}
	return tokens
}

// operationID derives the unique identifier: path tokens joined with the
// method's action verb, using retrieve for item fetches and list for
// collection fetches. Document-wide uniqueness is enforced after assembly.
func (rv *resolver) operationID(h introspect.HandlerLike, tokens []string, method string, vars []pathVariable) string {
	if id := h.OperationID(); id != "" {
		return id
	}

	var action string
	switch method {
	case http.MethodGet:
		if h.IsList() {
			action = "list"
		} else {
			action = "retrieve"
		}
	case http.MethodPost:
		action = "create"
	case http.MethodPut:
		action = "update"
	case http.MethodPatch:
		action = "partial_update"
	case http.MethodDelete:
		action = "destroy"
	default:
		action = strings.ToLower(method)
	}

	parts := append(append([]string{}, tokens...), action)
	id := strings.Join(parts, "_")
	if id == action {
		id = "root_" + action
	}
	if rv.cfg.CamelizeNames {
		id = camelize(id)
	}
	return id
}

func (rv *resolver) operationTags(h introspect.HandlerLike, tokens []string) []string {
	if tags := h.OperationTags(); tags != nil {
		return tags
	}
	if len(tokens) == 0 {
		return nil
	}
	return []string{tokens[0]}
}

// buildParameters combines the path template variables with the handler's
// declared parameters. A declared parameter matching a path variable by name
// and location replaces the converter-derived one.
func (rv *resolver) buildParameters(vars []pathVariable, declared []introspect.Parameter) ([]*openapi.Parameter, error) {
	var out []*openapi.Parameter
	index := make(map[[2]string]*openapi.Parameter)

	add := func(p *openapi.Parameter) {
		key := [2]string{p.Name, p.In}
		if existing, ok := index[key]; ok {
			*existing = *p
			return
		}
		index[key] = p
		out = append(out, p)
	}

	for _, v := range vars {
		name := v.name
		if rv.cfg.CamelizeNames {
			name = camelize(name)
		}
		schema := converterSchema(v.converter)
		add(&openapi.Parameter{Name: name, In: openapi.InPath, Required: true, Schema: schema})
	}

	for _, p := range declared {
		schema, err := rv.resolveField(p.Field, introspect.DirectionRequest)
		if err != nil {
			return nil, err
		}
		add(&openapi.Parameter{
			Name:        p.Name,
			In:          p.Location,
			Description: p.Field.Description,
			Required:    p.Field.Required || p.Location == openapi.InPath,
			Deprecated:  p.Field.Deprecated,
			Schema:      schema,
		})
	}

	return out, nil
}

func converterSchema(converter string) *openapi.Schema {
	if f, ok := converterSchemas[converter]; ok {
		return f()
	}
	return &openapi.Schema{Type: openapi.TypeString("string")}
}

func methodHasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// buildRequestBody resolves the request serializer into the body's media
// types. A handler without one gets a free-form body and a diagnostic.
func (rv *resolver) buildRequestBody(h introspect.HandlerLike, tokens []string) (*openapi.RequestBody, error) {
	req := h.RequestDescriptor()
	if req == nil {
		rv.diags.warn("no resolvable request serializer, request body falls back to free-form schema")
		return &openapi.RequestBody{
			Content: map[string]*openapi.MediaType{
				rv.cfg.DefaultMediaType: {Schema: &openapi.Schema{}},
			},
		}, nil
	}

	schema, err := rv.resolveSerializer(req, introspect.DirectionRequest, fallbackName(tokens, "Request"))
	if err != nil {
		return nil, err
	}
	return &openapi.RequestBody{
		Required: true,
		Content: map[string]*openapi.MediaType{
			rv.cfg.DefaultMediaType: {Schema: schema},
		},
	}, nil
}

// buildResponses fills the operation's responses. Handlers without response
// descriptors get a method-derived default: 201 for creation, 204 for
// deletion, 200 otherwise.
func (rv *resolver) buildResponses(op *openapi.Operation, h introspect.HandlerLike, method string, tokens []string) error {
	descriptors := h.ResponseDescriptors()
	if len(descriptors) == 0 {
		status := defaultStatus(method)
		if status == http.StatusNoContent {
			op.Responses["204"] = &openapi.Response{Description: "No response body"}
			return nil
		}
		descriptors = map[int]introspect.ResponseDescriptor{status: {}}
	}

	codes := make([]int, 0, len(descriptors))
	for code := range descriptors {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	for _, code := range codes {
		desc := descriptors[code]
		resp, err := rv.buildResponse(desc, h, code, tokens)
		if err != nil {
			return err
		}
		op.Responses[fmt.Sprintf("%d", code)] = resp
	}
	return nil
}

func defaultStatus(method string) int {
	switch method {
	case http.MethodPost:
		return http.StatusCreated
	case http.MethodDelete:
		return http.StatusNoContent
	}
	return http.StatusOK
}

func (rv *resolver) buildResponse(desc introspect.ResponseDescriptor, h introspect.HandlerLike, code int, tokens []string) (*openapi.Response, error) {
	description := desc.Description
	if description == "" {
		description = http.StatusText(code)
	}

	if code == http.StatusNoContent {
		return &openapi.Response{Description: description}, nil
	}

	var schema *openapi.Schema
	if desc.Serializer == nil {
		rv.diags.warn("no resolvable response serializer for status %d, falling back to free-form schema", code)
		schema = &openapi.Schema{}
	} else {
		resolved, err := rv.resolveSerializer(desc.Serializer, introspect.DirectionResponse, fallbackName(tokens, "Response"))
		if err != nil {
			return nil, err
		}
		schema = resolved
	}

	if h.IsList() && code < 300 {
		wrapped, err := rv.wrapList(schema, desc.Serializer)
		if err != nil {
			return nil, err
		}
		schema = wrapped
	}

	mediaTypes := desc.MediaTypes
	if len(mediaTypes) == 0 {
		mediaTypes = []string{rv.cfg.DefaultMediaType}
	}
	content := make(map[string]*openapi.MediaType, len(mediaTypes))
	for _, mt := range mediaTypes {
		content[mt] = &openapi.MediaType{Schema: schema}
	}
	return &openapi.Response{Description: description, Content: content}, nil
}

// wrapList turns an item schema into a collection response: a paginated
// envelope component when pagination is configured, a bare array otherwise.
// Serializers already marked many carry their own array wrapper.
func (rv *resolver) wrapList(schema *openapi.Schema, s introspect.SerializerLike) (*openapi.Schema, error) {
	if s != nil && s.IsMany() {
		if !rv.cfg.Pagination {
			return schema, nil
		}
		if schema.Items != nil {
			schema = schema.Items
		}
	} else if !rv.cfg.Pagination {
		return &openapi.Schema{Type: openapi.TypeString("array"), Items: schema}, nil
	}

	itemName := strings.TrimPrefix(schema.Ref, refPrefix)
	envelopeName := "PaginatedList"
	if itemName != "" && !strings.HasPrefix(itemName, "\x00") {
		envelopeName = "Paginated" + itemName + "List"
	}

	envelope := rv.paginationEnvelope(schema)
	final, err := rv.reg.register(envelope, envelopeName)
	if err != nil {
		return nil, err
	}
	return refSchema(final), nil
}

// paginationEnvelope is the count/next/previous/results container wrapped
// around paginated collection responses.
func (rv *resolver) paginationEnvelope(item *openapi.Schema) *openapi.Schema {
	next := &openapi.Schema{Type: openapi.TypeString("string"), Format: "uri"}
	rv.applyNullable(next)
	previous := &openapi.Schema{Type: openapi.TypeString("string"), Format: "uri"}
	rv.applyNullable(previous)

	props := openapi.NewProperties()
	props.Set("count", &openapi.Schema{Type: openapi.TypeString("integer"), Example: 123})
	props.Set("next", next)
	props.Set("previous", previous)
	props.Set("results", &openapi.Schema{Type: openapi.TypeString("array"), Items: item})

	return &openapi.Schema{
		Type:       openapi.TypeString("object"),
		Properties: props,
		Required:   []string{"count", "results"},
	}
}

// buildSecurity registers each auth requirement's scheme and returns the
// operation's security alternatives, one per requirement.
func (rv *resolver) buildSecurity(auths []introspect.Auth) ([]openapi.SecurityRequirement, error) {
	var out []openapi.SecurityRequirement
	for _, a := range auths {
		name, scheme, scopes := a.Name, a.Scheme, a.Scopes
		if ext, ok := rv.cfg.Extensions.AuthFor(a); ok {
			name, scheme, scopes = ext.SecurityScheme(a)
		}
		if scheme == nil {
			rv.diags.warn("auth requirement %q without scheme definition, skipped", a.Name)
			continue
		}
		if name == "" {
			name = a.Name
		}
		final, err := rv.reg.registerSecurity(scheme, name)
		if err != nil {
			return nil, err
		}
		if scopes == nil {
			scopes = []string{}
		}
		out = append(out, openapi.SecurityRequirement{final: scopes})
	}
	return out, nil
}

// fallbackName synthesizes a component name for anonymous serializers from
// the endpoint's path tokens.
func fallbackName(tokens []string, suffix string) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(pascalize(t))
	}
	return b.String() + suffix
}

// camelize converts snake_case and kebab-case to camelCase.
func camelize(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	if len(parts) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0]))
	for _, p := range parts[1:] {
		b.WriteString(titleCaser.String(p))
	}
	return b.String()
}

// pascalize converts snake_case and kebab-case to PascalCase.
func pascalize(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(titleCaser.String(p))
	}
	return b.String()
}
