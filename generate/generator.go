package generate

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/oasynth/oasynth/introspect"
	"github.com/oasynth/oasynth/openapi"
)

// Generator builds OpenAPI documents from enumerated endpoints. One
// Generator may serve many Generate calls; each call runs on its own
// registry and diagnostics, so a Generator is safe for concurrent use as
// long as the configured hooks are.
type Generator struct {
	cfg Config
}

// New validates the configuration and returns a ready generator.
// Configuration problems are fatal here, before any resolution work.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Generator{cfg: cfg}, nil
}

// Generate walks the endpoint list and produces the document plus the
// diagnostics accumulated along the way. Diagnostics never abort the run;
// the returned error is reserved for registry corruption.
func (g *Generator) Generate(endpoints []introspect.Endpoint) (*openapi.Document, Diagnostics, error) {
	diags := newCollector(g.cfg.Logger)
	rv := &resolver{cfg: &g.cfg, reg: newRegistry(diags), diags: diags}

	for _, hook := range g.cfg.Preprocessors {
		endpoints = hook(endpoints)
	}
	endpoints = dedupeEndpoints(endpoints, diags)
	sortEndpoints(endpoints)

	doc := &openapi.Document{
		OpenAPI: g.cfg.OpenAPIVersion,
		Info:    g.cfg.Info,
		Servers: g.cfg.Servers,
		Paths:   make(map[string]*openapi.PathItem),
	}

	for _, ep := range endpoints {
		path, op, err := rv.buildOperation(ep)
		if err != nil {
			return nil, diags.diags, err
		}
		item, ok := doc.Paths[path]
		if !ok {
			item = &openapi.PathItem{}
			doc.Paths[path] = item
		}
		setOperation(item, ep.Method, op)
	}

	schemas := rv.reg.components()
	security := rv.reg.securityComponents()
	if len(schemas) > 0 || len(security) > 0 {
		doc.Components = &openapi.Components{}
		if len(schemas) > 0 {
			doc.Components.Schemas = schemas
		}
		if len(security) > 0 {
			doc.Components.SecuritySchemes = security
		}
	}

	sanitizeOperationIDs(doc, diags)

	ctx := &PostprocessContext{Config: &g.cfg, diags: diags}
	for _, hook := range g.cfg.Postprocessors {
		doc = hook(doc, ctx)
	}

	return doc, diags.diags, nil
}

// dedupeEndpoints drops repeated (path, method) tuples, keeping the first.
// Paths compare in normalized template form, so "/users/{id:int}" and
// "/users/{id}" count as the same endpoint.
func dedupeEndpoints(endpoints []introspect.Endpoint, diags *collector) []introspect.Endpoint {
	seen := make(map[[2]string]struct{}, len(endpoints))
	out := endpoints[:0:0]
	for _, ep := range endpoints {
		normalized, _ := parsePath(ep.Path)
		key := [2]string{normalized, strings.ToUpper(ep.Method)}
		if _, ok := seen[key]; ok {
			diags.warn("duplicate endpoint %s %s, keeping the first occurrence", key[1], ep.Path)
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ep)
	}
	return out
}

// methodRank orders operations within a path the way readers expect.
var methodRank = map[string]int{
	http.MethodGet:    0,
	http.MethodPost:   1,
	http.MethodPut:    2,
	http.MethodPatch:  3,
	http.MethodDelete: 4,
}

// sortEndpoints sorts alphanumerically by path with parametrized segments
// ordered after their static siblings, then by method rank. Stable output
// across runs is a correctness property here, not cosmetics.
func sortEndpoints(endpoints []introspect.Endpoint) {
	key := func(ep introspect.Endpoint) string {
		// "{" sorts after letters; "!" pushes parameters before deeper
		// static segments so /users/{id} precedes /users/export.
		return strings.ReplaceAll(ep.Path, "{", "!")
	}
	sort.SliceStable(endpoints, func(i, j int) bool {
		ki, kj := key(endpoints[i]), key(endpoints[j])
		if ki != kj {
			return ki < kj
		}
		mi, mj := strings.ToUpper(endpoints[i].Method), strings.ToUpper(endpoints[j].Method)
		ri, iok := methodRank[mi]
		rj, jok := methodRank[mj]
		if !iok {
			ri = len(methodRank)
		}
		if !jok {
			rj = len(methodRank)
		}
		if ri != rj {
			return ri < rj
		}
		return mi < mj
	})
}

func setOperation(item *openapi.PathItem, method string, op *openapi.Operation) {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		item.Get = op
	case http.MethodPut:
		item.Put = op
	case http.MethodPost:
		item.Post = op
	case http.MethodDelete:
		item.Delete = op
	case http.MethodOptions:
		item.Options = op
	case http.MethodHead:
		item.Head = op
	case http.MethodPatch:
		item.Patch = op
	case http.MethodTrace:
		item.Trace = op
	}
}

// sanitizeOperationIDs enforces document-wide operation id uniqueness by
// numbering later duplicates, walking paths and methods in sorted order so
// the suffixes are stable across runs.
func sanitizeOperationIDs(doc *openapi.Document, diags *collector) {
	used := make(map[string]int)
	for _, path := range sortedKeys(doc.Paths) {
		ops := doc.Paths[path].Operations()
		for _, method := range sortedKeys(ops) {
			op := ops[method]
			if op.OperationID == "" {
				continue
			}
			n := used[op.OperationID]
			used[op.OperationID] = n + 1
			if n > 0 {
				suffixed := fmt.Sprintf("%s_%d", op.OperationID, n+1)
				diags.warn("operation id collision: %q reused, renaming to %q", op.OperationID, suffixed)
				op.OperationID = suffixed
			}
		}
	}
}

// ExcludePathFormat is a preprocessing hook that drops endpoints exposing
// format-suffix variants of a path, like "/users.json" next to "/users", or
// a "{format}" template segment.
func ExcludePathFormat(endpoints []introspect.Endpoint) []introspect.Endpoint {
	out := endpoints[:0:0]
	for _, ep := range endpoints {
		if strings.Contains(ep.Path, "{format}") || strings.Contains(ep.Path, ".{format}") {
			continue
		}
		out = append(out, ep)
	}
	return out
}
