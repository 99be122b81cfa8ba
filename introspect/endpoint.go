package introspect

import "github.com/oasynth/oasynth/openapi"

// Endpoint is one enumerated (path, method, handler) tuple fed into the
// generation engine by a routing adapter. Paths use the template form
// "/users/{id}" with an optional converter suffix ("{id:int}").
type Endpoint struct {
	Path    string
	Method  string
	Handler HandlerLike
}

// SerializerLike is the capability interface for serializer descriptors. The
// engine resolves any value implementing it into a named schema component.
type SerializerLike interface {
	// ComponentName returns the explicit component name override, or "" when
	// the serializer is anonymous and a name must be synthesized from the
	// owning endpoint.
	ComponentName() string

	// ComponentFields returns the fields in declared order. Property order
	// in the generated component follows this order.
	ComponentFields() []Field

	// IsMany reports whether the serializer represents a list of items.
	IsMany() bool

	// Description returns the serializer's docstring, used as the component
	// description.
	Description() string

	// PolymorphicVariants returns the sub-type serializers of a polymorphic
	// union, or nil for ordinary serializers.
	PolymorphicVariants() []SerializerLike

	// DiscriminatorName returns the type-tag field name of a polymorphic
	// union, or "" when PolymorphicVariants is empty.
	DiscriminatorName() string
}

// HandlerLike is the capability interface for introspected handlers. Every
// accessor may report "absent" (nil, empty string, empty map); the engine
// degrades to free-form schemas and default responses rather than aborting.
type HandlerLike interface {
	// Docstring returns the one-line summary and the longer description.
	Docstring() (summary, description string)

	// ParameterList returns the operation's parameters in declared order.
	ParameterList() []Parameter

	// RequestDescriptor returns the request body serializer, or nil when the
	// handler has no introspectable request body.
	RequestDescriptor() SerializerLike

	// ResponseDescriptors maps status codes to response descriptors. An
	// empty map falls back to method-derived default responses.
	ResponseDescriptors() map[int]ResponseDescriptor

	// AuthDescriptors returns the authentication requirements.
	AuthDescriptors() []Auth

	// OperationID returns the explicit operation id override, or "".
	OperationID() string

	// OperationTags returns the explicit tag override, or nil to derive tags
	// from the path.
	OperationTags() []string

	// IsList reports whether the handler returns a collection, making it
	// eligible for a pagination envelope.
	IsList() bool

	// IsDeprecated marks the whole operation deprecated.
	IsDeprecated() bool
}

// Parameter locations.
const (
	InPath   = openapi.InPath
	InQuery  = openapi.InQuery
	InHeader = openapi.InHeader
	InCookie = openapi.InCookie
)

// Parameter describes one operation parameter. The Field supplies the schema
// and the required/deprecated/description metadata.
type Parameter struct {
	Name     string
	Location string
	Field    Field
}

// ResponseDescriptor describes one status code's response. A nil Serializer
// with an empty description yields a free-form response schema. MediaTypes
// defaults to application/json when empty.
type ResponseDescriptor struct {
	Serializer  SerializerLike
	MediaTypes  []string
	Description string
}

// Auth describes one authentication requirement: the security scheme name it
// registers under, the scheme definition, and the required scopes.
type Auth struct {
	Name   string
	Scheme *openapi.SecurityScheme
	Scopes []string
}

// Serializer is a ready-made SerializerLike implementation for descriptors
// built by hand or by simple adapters.
type Serializer struct {
	Name          string
	Doc           string
	Many          bool
	Fields        []Field
	Variants      []*Serializer
	Discriminator string
}

// ComponentName implements SerializerLike.
func (s *Serializer) ComponentName() string { return s.Name }

// ComponentFields implements SerializerLike.
func (s *Serializer) ComponentFields() []Field { return s.Fields }

// IsMany implements SerializerLike.
func (s *Serializer) IsMany() bool { return s.Many }

// Description implements SerializerLike.
func (s *Serializer) Description() string { return s.Doc }

// PolymorphicVariants implements SerializerLike.
func (s *Serializer) PolymorphicVariants() []SerializerLike {
	if len(s.Variants) == 0 {
		return nil
	}
	out := make([]SerializerLike, len(s.Variants))
	for i, v := range s.Variants {
		out[i] = v
	}
	return out
}

// DiscriminatorName implements SerializerLike.
func (s *Serializer) DiscriminatorName() string { return s.Discriminator }

// Handler is a ready-made HandlerLike implementation.
type Handler struct {
	Summary     string
	Description string
	Parameters  []Parameter
	Request     *Serializer
	Responses   map[int]ResponseDescriptor
	Auth        []Auth
	ID          string
	Tags        []string
	List        bool
	Deprecated  bool
}

// Docstring implements HandlerLike.
func (h *Handler) Docstring() (string, string) { return h.Summary, h.Description }

// ParameterList implements HandlerLike.
func (h *Handler) ParameterList() []Parameter { return h.Parameters }

// RequestDescriptor implements HandlerLike.
func (h *Handler) RequestDescriptor() SerializerLike {
	if h.Request == nil {
		return nil
	}
	return h.Request
}

// ResponseDescriptors implements HandlerLike.
func (h *Handler) ResponseDescriptors() map[int]ResponseDescriptor { return h.Responses }

// AuthDescriptors implements HandlerLike.
func (h *Handler) AuthDescriptors() []Auth { return h.Auth }

// OperationID implements HandlerLike.
func (h *Handler) OperationID() string { return h.ID }

// OperationTags implements HandlerLike.
func (h *Handler) OperationTags() []string { return h.Tags }

// IsList implements HandlerLike.
func (h *Handler) IsList() bool { return h.List }

// IsDeprecated implements HandlerLike.
func (h *Handler) IsDeprecated() bool { return h.Deprecated }
