package generate

import (
	"sort"
	"strings"

	"github.com/oasynth/oasynth/introspect"
	"github.com/oasynth/oasynth/openapi"
)

// resolveSerializer turns a serializer descriptor into a schema, registering
// the component and returning a reference to it. The fallback name is used
// when the serializer is anonymous; it is synthesized from the owning
// endpoint by the operation builder.
func (rv *resolver) resolveSerializer(s introspect.SerializerLike, dir introspect.Direction, fallback string) (*openapi.Schema, error) {
	if s == nil {
		rv.diags.warn("unresolvable serializer, falling back to free-form schema")
		return &openapi.Schema{}, nil
	}

	inner, err := rv.resolveComponent(s, dir, fallback)
	if err != nil {
		return nil, err
	}
	if s.IsMany() {
		return &openapi.Schema{Type: openapi.TypeString("array"), Items: inner}, nil
	}
	return inner, nil
}

// resolveComponent resolves the single-item component of a serializer,
// ignoring its many flag.
func (rv *resolver) resolveComponent(s introspect.SerializerLike, dir introspect.Direction, fallback string) (*openapi.Schema, error) {
	preferred := rv.componentName(s, dir, fallback)
	pop := rv.diags.push("component " + preferred)
	defer pop()

	if ext, ok := rv.cfg.Extensions.SerializerFor(s); ok {
		name, schema := ext.SerializerSchema(s, dir)
		if name == "" {
			name = preferred
		}
		final, err := rv.reg.register(schema, name)
		if err != nil {
			return nil, err
		}
		return refSchema(final), nil
	}

	k := rv.ownerKeyFor(s, dir)
	token, done := rv.reg.begin(k)
	if done {
		return &openapi.Schema{Ref: tokenOrRef(token)}, nil
	}

	if variants := s.PolymorphicVariants(); len(variants) > 0 {
		return rv.resolvePolymorphic(s, variants, dir, preferred, k, token)
	}

	schema, keep := rv.buildObject(s, dir)
	if !keep {
		rv.reg.abandon(k)
		rv.diags.warn("component %q has no fields in %s direction, falling back to free-form schema", preferred, dir)
		return &openapi.Schema{Type: openapi.TypeString("object"), AdditionalProperties: &openapi.Schema{}}, nil
	}

	final, err := rv.reg.complete(k, token, schema, preferred)
	if err != nil {
		return nil, err
	}
	return refSchema(final), nil
}

// buildObject assembles the object schema of a serializer by walking its
// fields in declared order. In split mode read-only fields are dropped from
// request components and write-only fields from response components; in
// shared mode every field stays, carrying its marker. keep is false when no
// field survives the walk.
func (rv *resolver) buildObject(s introspect.SerializerLike, dir introspect.Direction) (*openapi.Schema, bool) {
	schema := &openapi.Schema{
		Type:        openapi.TypeString("object"),
		Description: s.Description(),
		Properties:  openapi.NewProperties(),
	}

	for _, f := range s.ComponentFields() {
		if rv.cfg.SplitRequestResponse {
			if f.ReadOnly && dir == introspect.DirectionRequest {
				continue
			}
			if f.WriteOnly && dir == introspect.DirectionResponse {
				continue
			}
		}

		fieldSchema, err := rv.resolveField(f, dir)
		if err != nil {
			rv.diags.error("field %q: %v", f.Name, err)
			fieldSchema = &openapi.Schema{}
		}
		schema.Properties.Set(f.Name, fieldSchema)

		if rv.fieldRequired(f) {
			schema.Required = append(schema.Required, f.Name)
		}
	}

	if schema.Properties.Len() == 0 {
		return nil, false
	}
	sort.Strings(schema.Required)
	return schema, true
}

// fieldRequired decides membership in the component's required set.
// Read-only fields are excluded by default: they are always present in
// responses in practice but never caller-supplied, and listing them as
// required breaks request validation for shared components.
func (rv *resolver) fieldRequired(f introspect.Field) bool {
	if !f.Required {
		return false
	}
	if f.ReadOnly && !rv.cfg.ReadOnlyRequired {
		return false
	}
	return true
}

// resolvePolymorphic renders a polymorphic union: each variant resolves to
// its own component, shared property structure is factored into a base
// component, and the union is registered as oneOf with a discriminator. The
// union runs inside the begin/complete protocol like any other component, so
// a variant recursively referencing its own union resolves to the pending
// token and ends up pointing at the final union name.
func (rv *resolver) resolvePolymorphic(s introspect.SerializerLike, variants []introspect.SerializerLike, dir introspect.Direction, preferred string, k ownerKey, token string) (*openapi.Schema, error) {
	names := make([]string, 0, len(variants))
	for _, v := range variants {
		ref, err := rv.resolveComponent(v, dir, preferred+"Variant")
		if err != nil {
			rv.reg.abandon(k)
			return nil, err
		}
		name := strings.TrimPrefix(ref.Ref, refPrefix)
		names = append(names, name)
	}

	if base := rv.commonProperties(names); len(base) >= 2 {
		if err := rv.factorBase(preferred+"Base", names, base); err != nil {
			rv.reg.abandon(k)
			return nil, err
		}
	}

	union := &openapi.Schema{Description: s.Description()}
	mapping := make(map[string]string, len(names))
	for _, n := range names {
		union.OneOf = append(union.OneOf, refSchema(n))
		mapping[n] = refPrefix + n
	}
	if d := s.DiscriminatorName(); d != "" {
		union.Discriminator = &openapi.Discriminator{PropertyName: d, Mapping: mapping}
	}

	final, err := rv.reg.complete(k, token, union, preferred)
	if err != nil {
		return nil, err
	}
	return refSchema(final), nil
}

// commonProperties returns the names of properties present with an identical
// structural definition and identical required status in every variant
// component, in the first variant's property order.
func (rv *resolver) commonProperties(names []string) []string {
	first, ok := rv.reg.schemas[names[0]]
	if !ok || first.schema.Properties == nil {
		return nil
	}

	var common []string
	for _, prop := range first.schema.Properties.Keys() {
		ref, _ := first.schema.Properties.Get(prop)
		refHash := canonicalHash(ref)
		refRequired := containsString(first.schema.Required, prop)

		shared := true
		for _, n := range names[1:] {
			reg, ok := rv.reg.schemas[n]
			if !ok || reg.schema.Properties == nil {
				shared = false
				break
			}
			other, ok := reg.schema.Properties.Get(prop)
			if !ok || canonicalHash(other) != refHash ||
				containsString(reg.schema.Required, prop) != refRequired {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, prop)
		}
	}
	return common
}

// factorBase lifts the shared properties into a base component and rewrites
// each variant as allOf of the base reference plus its remaining fields.
func (rv *resolver) factorBase(baseName string, names, common []string) error {
	first := rv.reg.schemas[names[0]].schema

	base := &openapi.Schema{Type: openapi.TypeString("object"), Properties: openapi.NewProperties()}
	for _, prop := range common {
		p, _ := first.Properties.Get(prop)
		base.Properties.Set(prop, p)
		if containsString(first.Required, prop) {
			base.Required = append(base.Required, prop)
		}
	}
	sort.Strings(base.Required)

	baseFinal, err := rv.reg.register(base, baseName)
	if err != nil {
		return err
	}

	for _, n := range names {
		reg := rv.reg.schemas[n]
		own := &openapi.Schema{Type: openapi.TypeString("object"), Properties: openapi.NewProperties()}
		for _, prop := range reg.schema.Properties.Keys() {
			if containsString(common, prop) {
				continue
			}
			p, _ := reg.schema.Properties.Get(prop)
			own.Properties.Set(prop, p)
			if containsString(reg.schema.Required, prop) {
				own.Required = append(own.Required, prop)
			}
		}
		sort.Strings(own.Required)

		rewritten := &openapi.Schema{
			Description: reg.schema.Description,
			AllOf:       []*openapi.Schema{refSchema(baseFinal), own},
		}
		reg.schema = rewritten
		reg.hash = canonicalHash(rewritten)
	}
	return nil
}

// componentName derives the preferred component name: the explicit override
// with any "Serializer" suffix stripped, the endpoint-derived fallback for
// anonymous serializers, and a "Request" suffix in split request direction.
func (rv *resolver) componentName(s introspect.SerializerLike, dir introspect.Direction, fallback string) string {
	name := s.ComponentName()
	if trimmed := strings.TrimSuffix(name, "Serializer"); trimmed != "" {
		name = trimmed
	}
	if name == "" {
		name = fallback
	}
	if name == "" {
		rv.diags.warn("anonymous serializer without endpoint context, using component name %q", "Unnamed")
		name = "Unnamed"
	}
	if rv.cfg.SplitRequestResponse && dir == introspect.DirectionRequest {
		name += "Request"
	}
	return name
}

// ownerKeyFor collapses directions in shared mode so one serializer yields
// one component, and keeps them distinct in split mode.
func (rv *resolver) ownerKeyFor(s introspect.SerializerLike, dir introspect.Direction) ownerKey {
	if !rv.cfg.SplitRequestResponse {
		dir = introspect.DirectionResponse
	}
	return ownerKey{serializer: s, direction: dir}
}

func refSchema(name string) *openapi.Schema {
	return &openapi.Schema{Ref: refPrefix + name}
}

// tokenOrRef keeps pending tokens intact so complete can rewrite them, and
// prefixes finished names with the components path.
func tokenOrRef(name string) string {
	if strings.HasPrefix(name, pendingPrefix) {
		return name
	}
	return refPrefix + name
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
