package trackfit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldKind selects how the magnetic field is known.
type FieldKind int

const (
	// ConstantField is a uniform solenoid field of known magnitude.
	ConstantField FieldKind = iota
	// LookupField is a position-dependent field; per-seed momenta come from upstream.
	LookupField
)

const (
	// ZeroFieldThreshold is the magnitude (T) below which a constant field
	// is treated as absent and straight-line reconstruction is used.
	ZeroFieldThreshold = 0.02

	// curvatureToPt converts radius (cm) times field (T) into pT (GeV/c).
	curvatureToPt = 0.3 / 100
)

// Field is the magnetic field configuration.
type Field struct {
	Kind      FieldKind
	Magnitude float64 // tesla, ConstantField only
	Map       string  // field map name, LookupField only
}

// Constant returns a uniform field of the given magnitude in tesla.
func Constant(tesla float64) Field {
	return Field{Kind: ConstantField, Magnitude: tesla}
}

// Lookup returns a position-dependent field backed by the named map.
func Lookup(name string) Field {
	return Field{Kind: LookupField, Map: name}
}

// ParseField parses a field configuration string. A number is a constant
// field in tesla; anything else names a field map.
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Field{}, fmt.Errorf("%w: empty value", ErrInvalidField)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Lookup(s), nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Field{}, fmt.Errorf("%w: %q", ErrInvalidField, s)
	}
	return Constant(v), nil
}

// IsConstant reports whether the field is uniform.
func (f Field) IsConstant() bool {
	return f.Kind == ConstantField
}

// IsZero reports whether the field is a constant field too weak to bend tracks.
func (f Field) IsZero() bool {
	return f.Kind == ConstantField && f.Magnitude < ZeroFieldThreshold
}

// PtFromRadius converts a bending radius (cm) into transverse momentum.
func (f Field) PtFromRadius(radius float64) float64 {
	return radius * curvatureToPt * f.Magnitude
}

func (f Field) String() string {
	if f.Kind == LookupField {
		return f.Map
	}
	return strconv.FormatFloat(f.Magnitude, 'g', -1, 64)
}

// UnmarshalYAML parses the scalar form accepted by ParseField.
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: expected scalar at line %d", ErrInvalidField, value.Line)
	}
	parsed, err := ParseField(value.Value)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalYAML writes the field back in its scalar form.
func (f Field) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}
