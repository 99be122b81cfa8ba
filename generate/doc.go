// Package generate is the schema synthesis engine: it walks enumerated
// endpoint descriptors, resolves their serializers and fields into named
// schema components, and assembles a deterministic OpenAPI document.
//
// The pipeline is single-pass and purely in-memory: preprocessing hooks
// shape the endpoint list, the operation builder produces one operation per
// endpoint while the component registry deduplicates and names every schema
// shape, and postprocessing hooks (enum consolidation by default) rewrite
// the assembled document. Identical input always yields byte-identical
// output; that determinism is part of the contract, since consumers diff
// generated documents across versions.
//
// Problems during resolution become Diagnostics, not errors: the run always
// completes with a best-effort document. Only invalid configuration
// (rejected up front by New) and registry corruption are fatal.
package generate
