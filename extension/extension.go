// Package extension provides the override registry consulted during
// generation. Extensions teach the engine how to render fields, serializers,
// and authentication classes it cannot introspect on its own, for example
// third-party library types.
//
// A Registry is populated explicitly at program startup and passed into the
// generation call. There is no global registry; registration order is part
// of the lookup contract and implicit registration would make it fragile.
package extension

import (
	"github.com/oasynth/oasynth/introspect"
	"github.com/oasynth/oasynth/openapi"
)

// FieldExtension replaces the schema of matching fields.
type FieldExtension interface {
	// MatchField reports whether this extension handles the field.
	MatchField(f introspect.Field) bool

	// FieldSchema returns the replacement schema fragment for the field in
	// the given direction.
	FieldSchema(f introspect.Field, direction introspect.Direction) *openapi.Schema
}

// SerializerExtension replaces the component of matching serializers.
type SerializerExtension interface {
	// MatchSerializer reports whether this extension handles the serializer.
	MatchSerializer(s introspect.SerializerLike) bool

	// SerializerSchema returns the component name and schema registered in
	// place of the introspected serializer.
	SerializerSchema(s introspect.SerializerLike, direction introspect.Direction) (name string, schema *openapi.Schema)
}

// AuthExtension replaces the security scheme of matching auth requirements.
type AuthExtension interface {
	// MatchAuth reports whether this extension handles the auth requirement.
	MatchAuth(a introspect.Auth) bool

	// SecurityScheme returns the scheme name, definition, and scopes used in
	// place of the introspected requirement.
	SecurityScheme(a introspect.Auth) (name string, scheme *openapi.SecurityScheme, scopes []string)
}

type entry[T any] struct {
	ext      T
	priority int
	order    int
}

// pick returns the first entry whose extension matches, scanning by
// descending priority with ties broken by registration order.
func pick[T any](entries []entry[T], match func(T) bool) (T, bool) {
	var zero T
	best := -1
	for i, e := range entries {
		if !match(e.ext) {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		b := entries[best]
		if e.priority > b.priority || (e.priority == b.priority && e.order < b.order) {
			best = i
		}
	}
	if best == -1 {
		return zero, false
	}
	return entries[best].ext, true
}

// Registry holds registered extensions. The zero value is ready to use.
// Lookups return the single highest-priority matching extension; among equal
// priorities the earliest registration wins.
type Registry struct {
	fields      []entry[FieldExtension]
	serializers []entry[SerializerExtension]
	auths       []entry[AuthExtension]
	next        int
}

// RegisterField adds a field extension with the given priority.
func (r *Registry) RegisterField(priority int, ext FieldExtension) {
	r.fields = append(r.fields, entry[FieldExtension]{ext: ext, priority: priority, order: r.next})
	r.next++
}

// RegisterSerializer adds a serializer extension with the given priority.
func (r *Registry) RegisterSerializer(priority int, ext SerializerExtension) {
	r.serializers = append(r.serializers, entry[SerializerExtension]{ext: ext, priority: priority, order: r.next})
	r.next++
}

// RegisterAuth adds an auth extension with the given priority.
func (r *Registry) RegisterAuth(priority int, ext AuthExtension) {
	r.auths = append(r.auths, entry[AuthExtension]{ext: ext, priority: priority, order: r.next})
	r.next++
}

// FieldFor returns the extension handling the field, if any.
func (r *Registry) FieldFor(f introspect.Field) (FieldExtension, bool) {
	if r == nil {
		return nil, false
	}
	return pick(r.fields, func(e FieldExtension) bool { return e.MatchField(f) })
}

// SerializerFor returns the extension handling the serializer, if any.
func (r *Registry) SerializerFor(s introspect.SerializerLike) (SerializerExtension, bool) {
	if r == nil {
		return nil, false
	}
	return pick(r.serializers, func(e SerializerExtension) bool { return e.MatchSerializer(s) })
}

// AuthFor returns the extension handling the auth requirement, if any.
func (r *Registry) AuthFor(a introspect.Auth) (AuthExtension, bool) {
	if r == nil {
		return nil, false
	}
	return pick(r.auths, func(e AuthExtension) bool { return e.MatchAuth(a) })
}
