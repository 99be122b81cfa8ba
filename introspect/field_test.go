package introspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ip(v int) *int         { return &v }
func fp(v float64) *float64 { return &v }

func TestConstraintsMergeLengths(t *testing.T) {
	a := Constraints{MinLength: ip(1), MaxLength: ip(100)}
	b := Constraints{MinLength: ip(3), MaxLength: ip(50)}

	m := a.Merge(b)
	assert.Equal(t, 3, *m.MinLength)
	assert.Equal(t, 50, *m.MaxLength)

	// Merge is symmetric for bounds.
	m = b.Merge(a)
	assert.Equal(t, 3, *m.MinLength)
	assert.Equal(t, 50, *m.MaxLength)
}

func TestConstraintsMergeUnsetSides(t *testing.T) {
	a := Constraints{MaxLength: ip(10)}
	b := Constraints{MinLength: ip(2), Pattern: "^[a-z]+$"}

	m := a.Merge(b)
	assert.Equal(t, 2, *m.MinLength)
	assert.Equal(t, 10, *m.MaxLength)
	assert.Equal(t, "^[a-z]+$", m.Pattern)

	// An existing pattern is not replaced.
	c := Constraints{Pattern: "^x$"}
	assert.Equal(t, "^x$", c.Merge(b).Pattern)
}

func TestConstraintsMergeNumericBounds(t *testing.T) {
	a := Constraints{Minimum: fp(0), Maximum: fp(100)}
	b := Constraints{Minimum: fp(10), Maximum: fp(90), ExclusiveMaximum: true}

	m := a.Merge(b)
	assert.Equal(t, 10.0, *m.Minimum)
	assert.False(t, m.ExclusiveMinimum)
	assert.Equal(t, 90.0, *m.Maximum)
	assert.True(t, m.ExclusiveMaximum)
}

func TestConstraintsMergeEqualBoundExclusivity(t *testing.T) {
	// An exclusive bound at the same value is the tighter one.
	a := Constraints{Minimum: fp(5)}
	b := Constraints{Minimum: fp(5), ExclusiveMinimum: true}

	assert.True(t, a.Merge(b).ExclusiveMinimum)
	assert.True(t, b.Merge(a).ExclusiveMinimum)
}

func TestConstraintsMergeBitsAndMultiple(t *testing.T) {
	a := Constraints{}
	b := Constraints{Bits: 32, MultipleOf: fp(0.5)}

	m := a.Merge(b)
	assert.Equal(t, 32, m.Bits)
	assert.Equal(t, 0.5, *m.MultipleOf)

	// Declared width wins over the merged-in one.
	c := Constraints{Bits: 64}
	assert.Equal(t, 64, c.Merge(b).Bits)
}

func TestConstraintsMergeItems(t *testing.T) {
	a := Constraints{MinItems: ip(1)}
	b := Constraints{MinItems: ip(2), MaxItems: ip(10)}

	m := a.Merge(b)
	assert.Equal(t, 2, *m.MinItems)
	assert.Equal(t, 10, *m.MaxItems)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "request", DirectionRequest.String())
	assert.Equal(t, "response", DirectionResponse.String())
}
