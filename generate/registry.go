package generate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/oasynth/oasynth/introspect"
	"github.com/oasynth/oasynth/openapi"
)

const refPrefix = "#/components/schemas/"

// pendingPrefix marks reference tokens for schemas still being resolved.
// Tokens never appear in output; complete rewrites them to final names.
const pendingPrefix = "\x00pending/"

// ownerKey identifies one serializer resolution: the descriptor instance and
// the direction it was resolved for. Resolving the same descriptor again, in
// the same direction, reuses the first resolution's name.
type ownerKey struct {
	serializer introspect.SerializerLike
	direction  introspect.Direction
}

type registration struct {
	schema *openapi.Schema
	hash   string
}

type securityRegistration struct {
	scheme *openapi.SecurityScheme
	hash   string
}

// registry assigns stable names to schema components, deduplicates
// structurally identical candidates, and disambiguates colliding ones. It is
// single-pass mutable state owned by one generation run.
type registry struct {
	diags   *collector
	schemas map[string]*registration
	owners  map[ownerKey]string
	pending int

	security map[string]*securityRegistration
}

func newRegistry(diags *collector) *registry {
	return &registry{
		diags:    diags,
		schemas:  make(map[string]*registration),
		owners:   make(map[ownerKey]string),
		security: make(map[string]*securityRegistration),
	}
}

// register places a fully resolved candidate under the preferred name and
// returns the assigned name. A candidate identical to the existing
// registration reuses its name; a structurally different candidate gets a
// deterministic hash-derived suffix and a collision warning. The one
// impossible outcome is two different shapes sharing a name; detecting that
// is a hard failure.
func (r *registry) register(candidate *openapi.Schema, preferred string) (string, error) {
	h := canonicalHash(candidate)

	if existing, ok := r.schemas[preferred]; ok {
		if existing.hash == h {
			return preferred, nil
		}
		suffixed := preferred + "_" + h[:8]
		if prev, ok := r.schemas[suffixed]; ok {
			if prev.hash == h {
				return suffixed, nil
			}
			return "", fmt.Errorf("component registry corrupted: %q holds a schema with hash %s, candidate hash %s", suffixed, prev.hash[:8], h[:8])
		}
		r.diags.warn("component name collision: %q already holds a different schema, registering as %q", preferred, suffixed)
		r.schemas[suffixed] = &registration{schema: candidate, hash: h}
		return suffixed, nil
	}

	r.schemas[preferred] = &registration{schema: candidate, hash: h}
	return preferred, nil
}

// begin starts resolving a serializer. When the owner was seen before, done
// reporting is immediate and name is either the final component name or, for
// an in-flight recursive resolution, its pending token. Otherwise a fresh
// pending token is returned for self references and the owner is marked in
// flight.
func (r *registry) begin(k ownerKey) (name string, done bool) {
	if n, ok := r.owners[k]; ok {
		return n, true
	}
	token := fmt.Sprintf("%s%d", pendingPrefix, r.pending)
	r.pending++
	r.owners[k] = token
	return token, false
}

// complete finishes a resolution started with begin: the candidate is placed
// under the preferred name, and every reference to the pending token, in the
// candidate and in components registered while it was in flight, is
// rewritten to the final name.
func (r *registry) complete(k ownerKey, token string, candidate *openapi.Schema, preferred string) (string, error) {
	// Self references still carry the token; point them at the preferred
	// name for hashing so identical recursive shapes hash identically
	// regardless of run order. The sites are remembered so a collision
	// rename moves exactly these references and no others: the candidate may
	// hold legitimate references to a distinct component already registered
	// under the preferred name.
	sites := tokenSites(candidate, token)
	for _, set := range sites {
		set(refPrefix + preferred)
	}

	name, err := r.register(candidate, preferred)
	if err != nil {
		delete(r.owners, k)
		return "", err
	}
	if name != preferred {
		for _, set := range sites {
			set(refPrefix + name)
		}
		r.schemas[name].hash = canonicalHash(candidate)
	}

	// Nested components resolved during the walk may hold the token too.
	for n, reg := range r.schemas {
		if n == name {
			continue
		}
		if rewriteRefs(reg.schema, token, refPrefix+name) {
			reg.hash = canonicalHash(reg.schema)
		}
	}

	r.owners[k] = name
	return name, nil
}

// abandon drops an in-flight resolution, for serializers that end up not
// registering a component (extensions, empty components).
func (r *registry) abandon(k ownerKey) {
	delete(r.owners, k)
}

// registerSecurity places a security scheme, deduplicating by content and
// suffixing on collision like register.
func (r *registry) registerSecurity(scheme *openapi.SecurityScheme, preferred string) (string, error) {
	data, err := json.Marshal(scheme)
	if err != nil {
		return "", fmt.Errorf("hash security scheme %q: %w", preferred, err)
	}
	sum := sha256.Sum256(data)
	h := hex.EncodeToString(sum[:])

	if existing, ok := r.security[preferred]; ok {
		if existing.hash == h {
			return preferred, nil
		}
		suffixed := preferred + "_" + h[:8]
		if prev, ok := r.security[suffixed]; ok {
			if prev.hash == h {
				return suffixed, nil
			}
			return "", fmt.Errorf("security scheme registry corrupted: %q", suffixed)
		}
		r.diags.warn("security scheme name collision: %q already holds a different scheme, registering as %q", preferred, suffixed)
		r.security[suffixed] = &securityRegistration{scheme: scheme, hash: h}
		return suffixed, nil
	}
	r.security[preferred] = &securityRegistration{scheme: scheme, hash: h}
	return preferred, nil
}

// components returns the registered schemas keyed by name.
func (r *registry) components() map[string]*openapi.Schema {
	out := make(map[string]*openapi.Schema, len(r.schemas))
	for n, reg := range r.schemas {
		out[n] = reg.schema
	}
	return out
}

// securityComponents returns the registered security schemes keyed by name.
func (r *registry) securityComponents() map[string]*openapi.SecurityScheme {
	out := make(map[string]*openapi.SecurityScheme, len(r.security))
	for n, reg := range r.security {
		out[n] = reg.scheme
	}
	return out
}

// canonicalHash computes the structural identity of a schema: cosmetic
// fields are stripped and required sets are order-normalized before hashing,
// so two schemas differing only in descriptions or required order collapse.
func canonicalHash(s *openapi.Schema) string {
	data, err := json.Marshal(s)
	if err != nil {
		// Schemas are plain data; marshal cannot fail for values the
		// resolver builds. Hash the error text to stay total.
		data = []byte(err.Error())
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err == nil {
		doc = canonicalize(doc)
		if canon, err := json.Marshal(doc); err == nil {
			data = canon
		}
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func canonicalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			switch k {
			case "description", "title", "example":
				continue
			case "required":
				if arr, ok := item.([]any); ok {
					sorted := make([]any, len(arr))
					copy(sorted, arr)
					sort.Slice(sorted, func(i, j int) bool {
						return fmt.Sprint(sorted[i]) < fmt.Sprint(sorted[j])
					})
					out[k] = sorted
					continue
				}
			}
			out[k] = canonicalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = canonicalize(item)
		}
		return out
	default:
		return v
	}
}

// tokenSites collects setters for every reference holding the pending token,
// so the same rewrite can be replayed with a different target once the final
// component name is known. Tokens are unique per resolution, making the
// match exact where a name-based rewrite would not be.
func tokenSites(s *openapi.Schema, token string) []func(string) {
	var sites []func(string)
	collectTokenSites(s, token, &sites)
	return sites
}

func collectTokenSites(s *openapi.Schema, token string, sites *[]func(string)) {
	if s == nil {
		return
	}
	if s.Ref == token {
		node := s
		*sites = append(*sites, func(ref string) { node.Ref = ref })
	}
	collectTokenSites(s.Items, token, sites)
	collectTokenSites(s.Not, token, sites)
	if sub, ok := s.AdditionalProperties.(*openapi.Schema); ok {
		collectTokenSites(sub, token, sites)
	}
	if s.Properties != nil {
		for _, k := range s.Properties.Keys() {
			if p, ok := s.Properties.Get(k); ok {
				collectTokenSites(p, token, sites)
			}
		}
	}
	for _, group := range [][]*openapi.Schema{s.AllOf, s.OneOf, s.AnyOf} {
		for _, sub := range group {
			collectTokenSites(sub, token, sites)
		}
	}
	if s.Discriminator != nil {
		for k, v := range s.Discriminator.Mapping {
			if v == token {
				mapping, key := s.Discriminator.Mapping, k
				*sites = append(*sites, func(ref string) { mapping[key] = ref })
			}
		}
	}
}

// rewriteRefs replaces every occurrence of ref from with to across the
// schema tree, reporting whether anything changed.
func rewriteRefs(s *openapi.Schema, from, to string) bool {
	if s == nil {
		return false
	}
	changed := false
	if s.Ref == from {
		s.Ref = to
		changed = true
	}
	if s.Items != nil && rewriteRefs(s.Items, from, to) {
		changed = true
	}
	if s.Not != nil && rewriteRefs(s.Not, from, to) {
		changed = true
	}
	if sub, ok := s.AdditionalProperties.(*openapi.Schema); ok && rewriteRefs(sub, from, to) {
		changed = true
	}
	if s.Properties != nil {
		for _, k := range s.Properties.Keys() {
			if p, ok := s.Properties.Get(k); ok && rewriteRefs(p, from, to) {
				changed = true
			}
		}
	}
	for _, group := range [][]*openapi.Schema{s.AllOf, s.OneOf, s.AnyOf} {
		for _, sub := range group {
			if rewriteRefs(sub, from, to) {
				changed = true
			}
		}
	}
	if s.Discriminator != nil {
		for k, v := range s.Discriminator.Mapping {
			if v == from {
				s.Discriminator.Mapping[k] = to
				changed = true
			}
		}
	}
	return changed
}
