package generate

import (
	"github.com/oasynth/oasynth/introspect"
	"github.com/oasynth/oasynth/openapi"
)

// resolver carries the per-run state shared by field, serializer, and
// operation resolution.
type resolver struct {
	cfg   *Config
	reg   *registry
	diags *collector
}

// resolveField produces the schema for one field in the given direction. A
// field backed by a nested serializer resolves to a component reference and
// may register new components as a side effect.
func (rv *resolver) resolveField(f introspect.Field, dir introspect.Direction) (*openapi.Schema, error) {
	pop := rv.diags.push("field " + f.Name)
	defer pop()

	if ext, ok := rv.cfg.Extensions.FieldFor(f); ok {
		s := ext.FieldSchema(f, dir)
		if s == nil {
			s = &openapi.Schema{}
		}
		return s, nil
	}

	s, err := rv.baseSchema(f, dir)
	if err != nil {
		return nil, err
	}
	return rv.decorate(s, f), nil
}

func (rv *resolver) baseSchema(f introspect.Field, dir introspect.Direction) (*openapi.Schema, error) {
	if f.Nested != nil {
		return rv.resolveSerializer(f.Nested, dir, "")
	}

	switch f.Kind {
	case introspect.KindArray:
		return rv.arraySchema(f, dir)
	case introspect.KindEnum:
		return rv.enumSchema(f), nil
	case introspect.KindObject:
		return rv.objectSchema(f, dir)
	default:
		if f.Kind != "" && !knownKind(f.Kind) {
			rv.diags.warn("unknown field kind %q, falling back to free-form schema", f.Kind)
		}
		return mapKind(f.Kind, f.Format, f.Constraints), nil
	}
}

func knownKind(k introspect.Kind) bool {
	switch k {
	case introspect.KindString, introspect.KindInteger, introspect.KindNumber,
		introspect.KindBoolean, introspect.KindArray, introspect.KindObject,
		introspect.KindBinary, introspect.KindEnum, introspect.KindAny:
		return true
	}
	return false
}

func (rv *resolver) arraySchema(f introspect.Field, dir introspect.Direction) (*openapi.Schema, error) {
	s := &openapi.Schema{Type: openapi.TypeString("array")}
	s.MinItems = f.Constraints.MinItems
	s.MaxItems = f.Constraints.MaxItems

	if f.Items == nil {
		rv.diags.warn("array field without item type, items fall back to free-form schema")
		s.Items = &openapi.Schema{}
		return s, nil
	}
	item, err := rv.resolveField(*f.Items, dir)
	if err != nil {
		return nil, err
	}
	s.Items = item
	return s, nil
}

// objectSchema renders map-like fields. With a declared value schema the
// values resolve recursively; without one the additionalProperties rendering
// follows the configured mode.
func (rv *resolver) objectSchema(f introspect.Field, dir introspect.Direction) (*openapi.Schema, error) {
	s := &openapi.Schema{Type: openapi.TypeString("object")}
	if f.Values != nil {
		values, err := rv.resolveField(*f.Values, dir)
		if err != nil {
			return nil, err
		}
		s.AdditionalProperties = values
		return s, nil
	}

	switch rv.cfg.AdditionalProps {
	case AdditionalPropsSchema:
		s.AdditionalProperties = &openapi.Schema{}
	case AdditionalPropsBool:
		s.AdditionalProperties = true
	}
	return s, nil
}

// enumSchema renders an inline enum. Blank and null choices are appended
// here; the consolidation postprocessor later lifts identical choice sets
// into shared components.
func (rv *resolver) enumSchema(f introspect.Field) *openapi.Schema {
	s := &openapi.Schema{Type: choiceType(f.Choices)}
	for _, c := range f.Choices {
		s.Enum = append(s.Enum, c.Value)
	}
	if f.AllowBlank && !containsValue(s.Enum, "") {
		s.Enum = append(s.Enum, "")
	}
	if f.Nullable && !containsValue(s.Enum, nil) {
		s.Enum = append(s.Enum, nil)
	}
	return s
}

// choiceType derives the base type from the choice values: homogeneous sets
// keep their scalar type, mixed sets stay untyped.
func choiceType(choices []introspect.Choice) openapi.SchemaType {
	var t string
	for _, c := range choices {
		var ct string
		switch c.Value.(type) {
		case string:
			ct = "string"
		case int, int32, int64:
			ct = "integer"
		case float32, float64:
			ct = "number"
		case bool:
			ct = "boolean"
		case nil:
			continue
		default:
			return openapi.SchemaType{}
		}
		if t == "" {
			t = ct
		} else if t != ct {
			if (t == "integer" && ct == "number") || (t == "number" && ct == "integer") {
				t = "number"
				continue
			}
			return openapi.SchemaType{}
		}
	}
	if t == "" {
		return openapi.SchemaType{}
	}
	return openapi.TypeString(t)
}

func containsValue(values []any, v any) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// decorate applies the field metadata that sits outside the structural core:
// markers, defaults, nullability, and the blank-allowed relaxation. A pure
// reference needing decoration is wrapped in allOf first, since 3.0 forbids
// sibling keywords next to $ref.
func (rv *resolver) decorate(s *openapi.Schema, f introspect.Field) *openapi.Schema {
	if f.DynamicDefault {
		rv.diags.warn("dynamic default on field %q not embedded in schema", f.Name)
	}

	needs := f.Description != "" || f.Title != "" || f.Deprecated ||
		f.ReadOnly || f.WriteOnly || f.Nullable ||
		(f.HasDefault && !f.DynamicDefault)

	if !needs && !(f.AllowBlank && s.Type.Is("string")) {
		return s
	}
	if s.IsRef() {
		s = &openapi.Schema{AllOf: []*openapi.Schema{s}}
	}

	s.Description = f.Description
	s.Title = f.Title
	s.Deprecated = f.Deprecated
	s.ReadOnly = f.ReadOnly
	s.WriteOnly = f.WriteOnly

	if f.HasDefault && !f.DynamicDefault {
		s.Default = f.Default
	}

	// Blank-allowed strings state minLength 0 explicitly instead of
	// dropping the constraint, keeping round trips accurate.
	if f.AllowBlank && s.Type.Is("string") && s.MinLength == nil {
		zero := 0
		s.MinLength = &zero
	}

	if f.Nullable {
		rv.applyNullable(s)
	}
	return s
}

// applyNullable marks a schema nullable in the form the target OpenAPI
// version uses: a "null" entry in the type array under 3.1, the nullable
// keyword under 3.0.
func (rv *resolver) applyNullable(s *openapi.Schema) {
	if rv.cfg.threeOne() {
		if !s.Type.IsEmpty() && !s.Type.Is("null") {
			s.Type = openapi.TypeArray(append(s.Type.Values(), "null")...)
		}
		if len(s.AllOf) == 1 && s.Type.IsEmpty() {
			s.OneOf = []*openapi.Schema{s.AllOf[0], {Type: openapi.TypeString("null")}}
			s.AllOf = nil
		}
		return
	}
	s.Nullable = true
}
