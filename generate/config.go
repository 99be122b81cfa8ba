package generate

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/oasynth/oasynth/extension"
	"github.com/oasynth/oasynth/introspect"
	"github.com/oasynth/oasynth/openapi"
)

// ErrConfig marks fatal configuration errors detected before any resolution
// work begins. Use errors.Is to test for it.
var ErrConfig = errors.New("invalid configuration")

// AdditionalPropsMode selects how map-like object fields without a declared
// value schema render their additionalProperties keyword.
type AdditionalPropsMode string

// Additional-properties modes.
const (
	// AdditionalPropsSchema emits "additionalProperties: {}" (default).
	AdditionalPropsSchema AdditionalPropsMode = "schema"
	// AdditionalPropsBool emits "additionalProperties: true".
	AdditionalPropsBool AdditionalPropsMode = "bool"
	// AdditionalPropsNone omits the keyword.
	AdditionalPropsNone AdditionalPropsMode = "none"
)

// PreprocessHook transforms the raw endpoint list before any operation is
// built. Hooks run in configured order, each receiving the previous output.
type PreprocessHook func(endpoints []introspect.Endpoint) []introspect.Endpoint

// PostprocessHook transforms the assembled document. Hooks run in configured
// order; when two hooks touch the same component the later one wins.
type PostprocessHook func(doc *openapi.Document, ctx *PostprocessContext) *openapi.Document

// PostprocessContext gives postprocessing hooks access to the run's
// configuration and diagnostics.
type PostprocessContext struct {
	Config *Config
	diags  *collector
}

// Warnf records a warning diagnostic from a hook.
func (c *PostprocessContext) Warnf(format string, args ...any) {
	c.diags.warn(format, args...)
}

// Config controls one generation run. The zero value generates an OpenAPI
// 3.0.3 document with default settings; New applies defaults for unset
// fields and rejects contradictory ones.
type Config struct {
	// Info becomes the document's info object.
	Info openapi.Info

	// Servers becomes the document's server list.
	Servers []openapi.Server

	// OpenAPIVersion selects the output version: "3.0.3" (default) or
	// "3.1.0". Under 3.1 nullable fields render as type arrays instead of
	// the nullable keyword.
	OpenAPIVersion string

	// SplitRequestResponse generates separate request and response
	// components for serializers containing read-only or write-only fields,
	// instead of one component with mixed markers.
	SplitRequestResponse bool

	// ReadOnlyRequired includes read-only fields in the required set of
	// response-direction components. By default read-only fields are never
	// listed as required.
	ReadOnlyRequired bool

	// CamelizeNames converts operation ids and path variable names to
	// camelCase.
	CamelizeNames bool

	// Pagination wraps list-operation responses in a paginated envelope
	// component instead of a bare array.
	Pagination bool

	// DefaultMediaType is used where a handler does not name one. Defaults
	// to "application/json".
	DefaultMediaType string

	// AdditionalProps selects the additionalProperties rendering for
	// map-like fields. Defaults to AdditionalPropsSchema.
	AdditionalProps AdditionalPropsMode

	// PathPrefix is a regular expression matched against the start of each
	// path and stripped before operation ids and tags are derived.
	PathPrefix string

	// EnumNameOverrides forces the component name of enum choice sets: the
	// key is the component name, the value the exact set of choice values.
	EnumNameOverrides map[string][]any

	// DisableEnumConsolidation drops the built-in enum consolidation
	// postprocessor. Mutually exclusive with EnumNameOverrides.
	DisableEnumConsolidation bool

	// ExplicitBlankNull appends shared BlankEnum/NullEnum components to
	// consolidated enums on blank-allowed and nullable fields.
	ExplicitBlankNull bool

	// Preprocessors run over the endpoint list before assembly.
	Preprocessors []PreprocessHook

	// Postprocessors replace the default pipeline when non-nil. The default
	// pipeline is [ConsolidateEnums], or empty with
	// DisableEnumConsolidation set.
	Postprocessors []PostprocessHook

	// Extensions is the override registry consulted during resolution.
	Extensions *extension.Registry

	// Logger receives resolution logs. Defaults to NopLogger.
	Logger Logger

	pathPrefix *regexp.Regexp
}

// Validate checks the configuration for fatal errors. All returned errors
// wrap ErrConfig.
func (c *Config) Validate() error {
	switch c.OpenAPIVersion {
	case "", "3.0.3", "3.1.0":
	default:
		return fmt.Errorf("%w: unsupported OpenAPI version %q", ErrConfig, c.OpenAPIVersion)
	}

	switch c.AdditionalProps {
	case "", AdditionalPropsSchema, AdditionalPropsBool, AdditionalPropsNone:
	default:
		return fmt.Errorf("%w: unknown additionalProperties mode %q", ErrConfig, c.AdditionalProps)
	}

	if c.PathPrefix != "" {
		re, err := regexp.Compile(c.PathPrefix)
		if err != nil {
			return fmt.Errorf("%w: path prefix: %v", ErrConfig, err)
		}
		c.pathPrefix = re
	}

	if c.DisableEnumConsolidation && len(c.EnumNameOverrides) > 0 {
		return fmt.Errorf("%w: enum name overrides require enum consolidation", ErrConfig)
	}

	seen := make(map[string]string, len(c.EnumNameOverrides))
	for _, name := range sortedKeys(c.EnumNameOverrides) {
		h := choiceValueHash(c.EnumNameOverrides[name])
		if prev, ok := seen[h]; ok {
			return fmt.Errorf("%w: enum name overrides %q and %q cover the same choice set", ErrConfig, prev, name)
		}
		seen[h] = name
	}

	return nil
}

// applyDefaults fills unset fields in place.
func (c *Config) applyDefaults() {
	if c.OpenAPIVersion == "" {
		c.OpenAPIVersion = "3.0.3"
	}
	if c.DefaultMediaType == "" {
		c.DefaultMediaType = "application/json"
	}
	if c.AdditionalProps == "" {
		c.AdditionalProps = AdditionalPropsSchema
	}
	if c.Extensions == nil {
		c.Extensions = &extension.Registry{}
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.Postprocessors == nil && !c.DisableEnumConsolidation {
		c.Postprocessors = []PostprocessHook{ConsolidateEnums}
	}
}

// threeOne reports whether the run targets OpenAPI 3.1 output.
func (c *Config) threeOne() bool {
	return c.OpenAPIVersion == "3.1.0"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
