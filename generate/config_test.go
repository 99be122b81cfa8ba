package generate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateVersions(t *testing.T) {
	for _, v := range []string{"", "3.0.3", "3.1.0"} {
		cfg := Config{OpenAPIVersion: v}
		assert.NoError(t, cfg.Validate(), v)
	}

	cfg := Config{OpenAPIVersion: "2.0"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestValidateAdditionalProps(t *testing.T) {
	cfg := Config{AdditionalProps: "maybe"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestValidatePathPrefix(t *testing.T) {
	cfg := Config{PathPrefix: "^/api/v[0-9]+"}
	require.NoError(t, cfg.Validate())
	require.NotNil(t, cfg.pathPrefix)
	assert.True(t, cfg.pathPrefix.MatchString("/api/v1/users"))

	cfg = Config{PathPrefix: "("}
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestValidateEnumOverrideExclusivity(t *testing.T) {
	cfg := Config{
		DisableEnumConsolidation: true,
		EnumNameOverrides:        map[string][]any{"StateEnum": {"on", "off"}},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestValidateDuplicateOverrideSets(t *testing.T) {
	cfg := Config{
		EnumNameOverrides: map[string][]any{
			"StateEnum":  {"on", "off"},
			"SwitchEnum": {"off", "on"},
		},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
	assert.Contains(t, err.Error(), "same choice set")
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())
	cfg.applyDefaults()

	assert.Equal(t, "3.0.3", cfg.OpenAPIVersion)
	assert.Equal(t, "application/json", cfg.DefaultMediaType)
	assert.Equal(t, AdditionalPropsSchema, cfg.AdditionalProps)
	assert.NotNil(t, cfg.Extensions)
	assert.NotNil(t, cfg.Logger)
	assert.Len(t, cfg.Postprocessors, 1)

	cfg = Config{DisableEnumConsolidation: true}
	cfg.applyDefaults()
	assert.Empty(t, cfg.Postprocessors)
}
