package generate

import (
	"math"

	"github.com/oasynth/oasynth/introspect"
	"github.com/oasynth/oasynth/openapi"
)

// mapKind converts a kind plus format and constraint bundle into a schema
// fragment. Pure and total: unknown kinds return an unconstrained free-form
// schema so the rest of the pipeline degrades instead of aborting.
func mapKind(kind introspect.Kind, format introspect.Format, cons introspect.Constraints) *openapi.Schema {
	switch kind {
	case introspect.KindString:
		return stringSchema(format, cons)
	case introspect.KindInteger:
		return integerSchema(cons)
	case introspect.KindNumber:
		return numberSchema(format, cons)
	case introspect.KindBoolean:
		return &openapi.Schema{Type: openapi.TypeString("boolean")}
	case introspect.KindBinary:
		f := "binary"
		if format == introspect.FormatByte {
			f = "byte"
		}
		return &openapi.Schema{Type: openapi.TypeString("string"), Format: f}
	case introspect.KindObject:
		return &openapi.Schema{Type: openapi.TypeString("object")}
	case introspect.KindArray:
		return &openapi.Schema{Type: openapi.TypeString("array")}
	default:
		// Free-form "any" fragment.
		return &openapi.Schema{}
	}
}

func stringSchema(format introspect.Format, cons introspect.Constraints) *openapi.Schema {
	s := &openapi.Schema{Type: openapi.TypeString("string"), Format: string(format)}
	s.MinLength = cons.MinLength
	s.MaxLength = cons.MaxLength
	s.Pattern = cons.Pattern
	return s
}

// integerSchema selects int32 only when the declared width is 32 bits and no
// constraint exceeds the int32 range; everything else takes the widest safe
// representation.
func integerSchema(cons introspect.Constraints) *openapi.Schema {
	s := &openapi.Schema{Type: openapi.TypeString("integer"), Format: "int64"}
	if cons.Bits == 32 && fitsInt32(cons.Minimum) && fitsInt32(cons.Maximum) {
		s.Format = "int32"
	}
	applyNumeric(s, cons)
	return s
}

// numberSchema selects float only for a declared 32-bit width. Decimal
// fields render as strings to preserve precision across JSON round trips.
func numberSchema(format introspect.Format, cons introspect.Constraints) *openapi.Schema {
	if format == introspect.FormatDecimal {
		s := &openapi.Schema{Type: openapi.TypeString("string"), Format: "decimal"}
		s.Pattern = cons.Pattern
		return s
	}

	s := &openapi.Schema{Type: openapi.TypeString("number"), Format: "double"}
	if format == introspect.FormatFloat || cons.Bits == 32 {
		s.Format = "float"
	}
	applyNumeric(s, cons)
	return s
}

func applyNumeric(s *openapi.Schema, cons introspect.Constraints) {
	s.Minimum = cons.Minimum
	s.Maximum = cons.Maximum
	s.ExclusiveMinimum = cons.ExclusiveMinimum && cons.Minimum != nil
	s.ExclusiveMaximum = cons.ExclusiveMaximum && cons.Maximum != nil
	s.MultipleOf = cons.MultipleOf
}

func fitsInt32(v *float64) bool {
	if v == nil {
		return true
	}
	return *v >= math.MinInt32 && *v <= math.MaxInt32
}
