package introspect

// Kind is the semantic kind of a field. It selects the base JSON Schema type
// during generation; unknown kinds degrade to a free-form schema.
type Kind string

// Field kinds.
const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindBinary  Kind = "binary"
	KindEnum    Kind = "enum"
	KindAny     Kind = "any"
)

// Format is an optional refinement of a kind, mapped to the OpenAPI "format"
// keyword.
type Format string

// Field formats.
const (
	FormatNone     Format = ""
	FormatDate     Format = "date"
	FormatDateTime Format = "date-time"
	FormatTime     Format = "time"
	FormatDuration Format = "duration"
	FormatUUID     Format = "uuid"
	FormatEmail    Format = "email"
	FormatURI      Format = "uri"
	FormatHostname Format = "hostname"
	FormatIPv4     Format = "ipv4"
	FormatIPv6     Format = "ipv6"
	FormatByte     Format = "byte"
	FormatBinary   Format = "binary"
	FormatPassword Format = "password"
	FormatDecimal  Format = "decimal"
	FormatFloat    Format = "float"
	FormatDouble   Format = "double"
)

// Direction selects whether a field is resolved for inbound (request) or
// outbound (response) data flow. Read-only fields exist only in the response
// direction and write-only fields only in the request direction.
type Direction int

// Resolution directions.
const (
	DirectionRequest Direction = iota
	DirectionResponse
)

// String returns the direction name.
func (d Direction) String() string {
	if d == DirectionRequest {
		return "request"
	}
	return "response"
}

// Choice is one enumerated (value, label) pair of an enum field.
type Choice struct {
	Value any
	Label string
}

// Constraints carries the validation constraints declared on a field. Pointer
// fields distinguish "unset" from zero values. Bits is the declared bit width
// of numeric fields (32 or 64); zero means unspecified, which maps to the
// widest safe representation.
type Constraints struct {
	MinLength *int
	MaxLength *int
	Pattern   string

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MultipleOf       *float64
	Bits             int

	MinItems *int
	MaxItems *int
}

// Merge combines two constraint bundles, keeping the tightest bound when
// both declare one. Adapters use this to fold per-validator constraints into
// the field's declared ones.
func (c Constraints) Merge(o Constraints) Constraints {
	out := c
	out.MinLength = tightest(c.MinLength, o.MinLength, true)
	out.MaxLength = tightest(c.MaxLength, o.MaxLength, false)
	out.MinItems = tightest(c.MinItems, o.MinItems, true)
	out.MaxItems = tightest(c.MaxItems, o.MaxItems, false)
	if out.Pattern == "" {
		out.Pattern = o.Pattern
	}
	if out.MultipleOf == nil {
		out.MultipleOf = o.MultipleOf
	}
	if out.Bits == 0 {
		out.Bits = o.Bits
	}

	switch {
	case c.Minimum == nil:
		out.Minimum, out.ExclusiveMinimum = o.Minimum, o.ExclusiveMinimum
	case o.Minimum != nil && *o.Minimum > *c.Minimum:
		out.Minimum, out.ExclusiveMinimum = o.Minimum, o.ExclusiveMinimum
	case o.Minimum != nil && *o.Minimum == *c.Minimum && o.ExclusiveMinimum:
		out.ExclusiveMinimum = true
	}
	switch {
	case c.Maximum == nil:
		out.Maximum, out.ExclusiveMaximum = o.Maximum, o.ExclusiveMaximum
	case o.Maximum != nil && *o.Maximum < *c.Maximum:
		out.Maximum, out.ExclusiveMaximum = o.Maximum, o.ExclusiveMaximum
	case o.Maximum != nil && *o.Maximum == *c.Maximum && o.ExclusiveMaximum:
		out.ExclusiveMaximum = true
	}

	return out
}

// tightest picks the tighter of two optional bounds: the larger for lower
// bounds, the smaller for upper bounds.
func tightest(a, b *int, lower bool) *int {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if (lower && *b > *a) || (!lower && *b < *a) {
		return b
	}
	return a
}

// Field describes one input/output attribute of a serializer.
//
// Exactly one of the structural fields applies, depending on Kind: Choices
// for KindEnum, Items for KindArray, Values for map-like KindObject fields,
// and Nested for fields whose schema is another serializer. DynamicDefault
// marks a default computed at runtime; such defaults are reported as present
// without embedding a value.
type Field struct {
	Name string
	Kind Kind

	Format Format

	Required   bool
	Nullable   bool
	ReadOnly   bool
	WriteOnly  bool
	AllowBlank bool

	Default        any
	HasDefault     bool
	DynamicDefault bool

	Title       string
	Description string
	Deprecated  bool

	Constraints Constraints

	Choices []Choice
	Items   *Field
	Values  *Field
	Nested  SerializerLike
}
