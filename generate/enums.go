package generate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/oasynth/oasynth/openapi"
)

// Shared components for the explicit blank and null enum choices.
const (
	blankEnumName = "BlankEnum"
	nullEnumName  = "NullEnum"
)

// enumSite is one inline enum occurrence: the schema node carrying it, the
// property or parameter name that owns it, and the component it sits in (""
// for operation-level sites).
type enumSite struct {
	schema    *openapi.Schema
	prop      string
	component string
}

// enumGroup collects every site sharing one choice set.
type enumGroup struct {
	hash   string
	values []any
	sites  []enumSite
}

// ConsolidateEnums is the built-in postprocessor that lifts inline enums
// into shared components: sites with identical choice sets are grouped, each
// group becomes one named component, and the inline definitions become
// references. Running it on an already consolidated document is a no-op.
func ConsolidateEnums(doc *openapi.Document, ctx *PostprocessContext) *openapi.Document {
	c := &consolidator{doc: doc, ctx: ctx, groups: make(map[string]*enumGroup)}
	c.collect()
	if len(c.groups) == 0 {
		return doc
	}
	c.name()
	c.rewrite()
	return doc
}

type consolidator struct {
	doc    *openapi.Document
	ctx    *PostprocessContext
	groups map[string]*enumGroup
	names  map[string]string // group hash -> component name
}

func (c *consolidator) collect() {
	if c.doc.Components != nil {
		for _, name := range sortedKeys(c.doc.Components.Schemas) {
			c.collectComponent(name, c.doc.Components.Schemas[name])
		}
	}
	for _, path := range sortedKeys(c.doc.Paths) {
		for _, method := range sortedKeys(c.doc.Paths[path].Operations()) {
			c.collectOperation(c.doc.Paths[path].Operations()[method])
		}
	}
}

// collectComponent scans a component's subtree. The root node itself is not
// a site: a top-level enum component is already consolidated.
func (c *consolidator) collectComponent(name string, s *openapi.Schema) {
	c.walkChildren(s, "", name)
}

func (c *consolidator) collectOperation(op *openapi.Operation) {
	for _, p := range op.Parameters {
		c.walk(p.Schema, p.Name, "")
	}
	if op.RequestBody != nil {
		for _, mt := range sortedKeys(op.RequestBody.Content) {
			c.walk(op.RequestBody.Content[mt].Schema, "", "")
		}
	}
	for _, code := range sortedKeys(op.Responses) {
		resp := op.Responses[code]
		for _, mt := range sortedKeys(resp.Content) {
			c.walk(resp.Content[mt].Schema, "", "")
		}
	}
}

// walk visits a schema node: an inline enum is recorded as a site, anything
// else recurses into its children under the same owning property name.
func (c *consolidator) walk(s *openapi.Schema, prop, component string) {
	if s == nil || s.Ref != "" {
		return
	}
	if len(s.Enum) > 0 {
		c.record(enumSite{schema: s, prop: prop, component: component})
		return
	}
	c.walkChildren(s, prop, component)
}

func (c *consolidator) walkChildren(s *openapi.Schema, prop, component string) {
	if s == nil {
		return
	}
	if s.Properties != nil {
		for _, name := range s.Properties.Keys() {
			p, _ := s.Properties.Get(name)
			c.walk(p, name, component)
		}
	}
	c.walk(s.Items, prop, component)
	if sub, ok := s.AdditionalProperties.(*openapi.Schema); ok {
		c.walk(sub, prop, component)
	}
	for _, group := range [][]*openapi.Schema{s.AllOf, s.OneOf, s.AnyOf} {
		for _, sub := range group {
			c.walk(sub, prop, component)
		}
	}
}

// record groups the site by its core choice set. Null never enters the
// shared component; blank enters it only when explicit blank handling is
// off.
func (c *consolidator) record(site enumSite) {
	values := coreValues(site.schema.Enum, c.ctx.Config.ExplicitBlankNull)
	if len(values) == 0 {
		return
	}
	h := choiceValueHash(values)
	g, ok := c.groups[h]
	if !ok {
		g = &enumGroup{hash: h, values: values}
		c.groups[h] = g
	}
	g.sites = append(g.sites, site)
}

// coreValues strips null, and blank when it gets its own explicit
// component, from a choice set.
func coreValues(values []any, explicitBlank bool) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		if explicitBlank && v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// name assigns each group its component name: a configured override wins,
// then "<Prop>Enum" from the group's first property name, qualified by the
// owning component and finally by a hash prefix when contended.
func (c *consolidator) name() {
	c.names = make(map[string]string, len(c.groups))

	overrides := make(map[string]string, len(c.ctx.Config.EnumNameOverrides))
	for _, name := range sortedKeys(c.ctx.Config.EnumNameOverrides) {
		overrides[choiceValueHash(c.ctx.Config.EnumNameOverrides[name])] = name
	}

	taken := make(map[string]string) // component name -> group hash
	for _, h := range c.sortedGroupHashes() {
		g := c.groups[h]
		if forced, ok := overrides[h]; ok {
			c.names[h] = forced
			taken[forced] = h
			continue
		}

		prop, component := g.primarySite()
		candidates := []string{pascalize(prop) + "Enum"}
		if component != "" {
			candidates = append(candidates, component+pascalize(prop)+"Enum")
		}
		candidates = append(candidates, pascalize(prop)+strings.ToUpper(h[:3])+"Enum")

		assigned := ""
		for _, cand := range candidates {
			owner, used := taken[cand]
			if !used || owner == h {
				assigned = cand
				break
			}
		}
		if assigned == "" {
			assigned = pascalize(prop) + strings.ToUpper(h[:8]) + "Enum"
		}
		if assigned != candidates[0] {
			c.ctx.Warnf("enum naming collision: %q already names a different choice set, using %q", candidates[0], assigned)
		}
		c.names[h] = assigned
		taken[assigned] = h
	}
}

// primarySite picks the deterministic representative site of a group: the
// lexicographically smallest (property, component) pair.
func (g *enumGroup) primarySite() (prop, component string) {
	prop, component = g.sites[0].prop, g.sites[0].component
	for _, s := range g.sites[1:] {
		if s.prop < prop || (s.prop == prop && s.component < component) {
			prop, component = s.prop, s.component
		}
	}
	if prop == "" {
		prop = "Value"
	}
	return prop, component
}

func (c *consolidator) sortedGroupHashes() []string {
	hashes := make([]string, 0, len(c.groups))
	for h := range c.groups {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes
}

// rewrite registers the shared components and replaces every inline site
// with references to them.
func (c *consolidator) rewrite() {
	if c.doc.Components == nil {
		c.doc.Components = &openapi.Components{}
	}
	if c.doc.Components.Schemas == nil {
		c.doc.Components.Schemas = make(map[string]*openapi.Schema)
	}
	schemas := c.doc.Components.Schemas

	for _, h := range c.sortedGroupHashes() {
		g := c.groups[h]
		name := c.names[h]

		component := &openapi.Schema{Type: enumValueType(g.values), Enum: g.values}
		if existing, ok := schemas[name]; ok && canonicalHash(existing) != canonicalHash(component) {
			suffixed := strings.TrimSuffix(name, "Enum") + strings.ToUpper(h[:3]) + "Enum"
			c.ctx.Warnf("enum component %q already exists with different content, using %q", name, suffixed)
			name = suffixed
		}
		schemas[name] = component

		for _, site := range g.sites {
			c.rewriteSite(site, name, schemas)
		}
	}
}

// rewriteSite replaces an inline enum with a reference to its shared
// component, preserving the site's non-structural keywords. Blank and null
// choices become oneOf alternatives against their explicit components.
func (c *consolidator) rewriteSite(site enumSite, name string, schemas map[string]*openapi.Schema) {
	s := site.schema
	hadBlank := containsValue(s.Enum, "")
	hadNull := containsValue(s.Enum, nil)
	// Under 3.1 the null-ness lives in the type array, which is about to be
	// cleared along with the inline enum.
	typeHadNull := s.Type.Is("null")

	refs := []*openapi.Schema{{Ref: refPrefix + name}}
	if c.ctx.Config.ExplicitBlankNull {
		if hadBlank {
			schemas[blankEnumName] = &openapi.Schema{Type: openapi.TypeString("string"), Enum: []any{""}}
			refs = append(refs, &openapi.Schema{Ref: refPrefix + blankEnumName})
		}
		if (hadNull || typeHadNull) && !s.Nullable {
			schemas[nullEnumName] = &openapi.Schema{Enum: []any{nil}}
			refs = append(refs, &openapi.Schema{Ref: refPrefix + nullEnumName})
		}
	} else if typeHadNull {
		// Null dropped from the shared component must survive on the site,
		// in the 3.1 form it arrived in.
		refs = append(refs, &openapi.Schema{Type: openapi.TypeString("null")})
	} else if hadNull && !s.Nullable {
		s.Nullable = true
	}

	s.Enum = nil
	s.Type = openapi.SchemaType{}
	s.Format = ""

	bare := canonicalHash(s) == canonicalHash(&openapi.Schema{}) &&
		s.Description == "" && s.Title == ""
	if len(refs) == 1 && bare {
		*s = *refs[0]
		return
	}
	if len(refs) == 1 {
		s.AllOf = refs
		return
	}
	s.OneOf = refs
}

// enumValueType derives the shared component's type from its values.
func enumValueType(values []any) openapi.SchemaType {
	var t string
	for _, v := range values {
		var vt string
		switch v.(type) {
		case string:
			vt = "string"
		case int, int32, int64, float32, float64:
			vt = "number"
		case bool:
			vt = "boolean"
		default:
			return openapi.SchemaType{}
		}
		if vt == "number" {
			if isIntegral(v) {
				vt = "integer"
			}
		}
		switch {
		case t == "":
			t = vt
		case t == vt:
		case (t == "integer" && vt == "number") || (t == "number" && vt == "integer"):
			t = "number"
		default:
			return openapi.SchemaType{}
		}
	}
	if t == "" {
		return openapi.SchemaType{}
	}
	return openapi.TypeString(t)
}

func isIntegral(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float32:
		return n == float32(int64(n))
	case float64:
		return n == float64(int64(n))
	}
	return false
}

// choiceValueHash computes the order-insensitive identity of a choice value
// set.
func choiceValueHash(values []any) string {
	encoded := make([]string, 0, len(values))
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			data = []byte(fmt.Sprint(v))
		}
		encoded = append(encoded, string(data))
	}
	sort.Strings(encoded)
	sum := sha256.Sum256([]byte(strings.Join(encoded, "\x00")))
	return hex.EncodeToString(sum[:])
}
