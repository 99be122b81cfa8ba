// Package openapi defines the OpenAPI v3.0.3 object model emitted by the
// schema generator, with optional v3.1.0 nullability semantics.
//
// The model is write-oriented: it exists to be assembled by the generate
// package and serialized once, deterministically. Two ordering rules make the
// output byte-stable across runs:
//
//   - Schema properties preserve insertion order (a Properties value is an
//     ordered map, not a Go map).
//   - Every string-keyed map (paths, responses, components) marshals in
//     sorted key order, which both encoding/json and yaml.v3 guarantee.
//
// Specification extensions ("x-" prefixed keys) are supported on the document
// root and the info object, where the generator merges them in.
//
// See: https://spec.openapis.org/oas/v3.0.3
// See: https://spec.openapis.org/oas/v3.1.0
package openapi
