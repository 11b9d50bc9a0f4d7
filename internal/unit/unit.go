package unit

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownUnit is returned when a unit name is not in the registry.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrConversion is returned when two units cannot be converted into each
	// other (incompatible kinds, or a mass/volume conversion without density).
	ErrConversion = errors.New("unit conversion not possible")
)

// Kind groups units that convert freely among themselves.
type Kind int

const (
	Weight Kind = iota
	Volume
	Length
	Count
)

func (k Kind) String() string {
	switch k {
	case Weight:
		return "weight"
	case Volume:
		return "volume"
	case Length:
		return "length"
	case Count:
		return "count"
	}
	return "unknown"
}

// Scale returns the integer scale factor applied to the canonical unit of
// this kind when storing base quantities. Counts store in 1/32 increments so
// fractional portions (half a bar, a third of a tray) survive the round trip.
func (k Kind) Scale() int64 {
	if k == Count {
		return 32
	}
	return 1_000_000
}

// Precision returns the number of display decimals guaranteed by FromBase.
func (k Kind) Precision() int32 {
	if k == Count {
		return 2 // 1/32 ~ 0.03
	}
	return 6
}

// Unit is one entry in the registry. Factor converts an amount in this unit
// to the canonical unit of its kind (g, ml, cm, count).
type Unit struct {
	Name   string
	Kind   Kind
	Factor float64
}

var registry = map[string]Unit{
	// weight, canonical g
	"g":  {Name: "g", Kind: Weight, Factor: 1},
	"kg": {Name: "kg", Kind: Weight, Factor: 1000},
	"oz": {Name: "oz", Kind: Weight, Factor: 28.349523125},
	"lb": {Name: "lb", Kind: Weight, Factor: 453.59237},
	// volume, canonical ml
	"ml":    {Name: "ml", Kind: Volume, Factor: 1},
	"l":     {Name: "l", Kind: Volume, Factor: 1000},
	"tsp":   {Name: "tsp", Kind: Volume, Factor: 4.92892159375},
	"tbsp":  {Name: "tbsp", Kind: Volume, Factor: 14.78676478125},
	"fl_oz": {Name: "fl_oz", Kind: Volume, Factor: 29.5735295625},
	"cup":   {Name: "cup", Kind: Volume, Factor: 236.5882365},
	"gal":   {Name: "gal", Kind: Volume, Factor: 3785.411784},
	// length, canonical cm
	"cm": {Name: "cm", Kind: Length, Factor: 1},
	"m":  {Name: "m", Kind: Length, Factor: 100},
	"in": {Name: "in", Kind: Length, Factor: 2.54},
	// count, canonical count
	"count": {Name: "count", Kind: Count, Factor: 1},
	"dozen": {Name: "dozen", Kind: Count, Factor: 12},
}

// Get looks up a unit by name.
func Get(name string) (Unit, error) {
	u, ok := registry[name]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	return u, nil
}

// Known reports whether name is a registered unit.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

// ToBase converts a display amount in the given unit into the integer base
// quantity for that unit's kind. All ledger arithmetic happens on base
// quantities; floats only exist at the API boundary.
func ToBase(amount float64, unitName string) (int64, error) {
	u, err := Get(unitName)
	if err != nil {
		return 0, err
	}
	canonical := amount * u.Factor
	return int64(math.Round(canonical * float64(u.Kind.Scale()))), nil
}

// FromBase converts an integer base quantity back to a display amount in the
// given unit, rounded to the kind's display precision.
func FromBase(base int64, unitName string) (float64, error) {
	u, err := Get(unitName)
	if err != nil {
		return 0, err
	}
	canonical := float64(base) / float64(u.Kind.Scale())
	amount := canonical / u.Factor
	pow := math.Pow(10, float64(u.Kind.Precision()))
	return math.Round(amount*pow) / pow, nil
}

// Convert translates an amount between two units. Same-kind conversions are
// pure ratios. Weight<->volume requires a density in g/ml; anything else is
// an ErrConversion, never a silently unconverted value.
func Convert(amount float64, fromName, toName string, density float64) (float64, error) {
	from, err := Get(fromName)
	if err != nil {
		return 0, err
	}
	to, err := Get(toName)
	if err != nil {
		return 0, err
	}

	if from.Kind == to.Kind {
		return amount * from.Factor / to.Factor, nil
	}

	switch {
	case from.Kind == Weight && to.Kind == Volume:
		if density <= 0 {
			return 0, fmt.Errorf("%w: %s -> %s requires a density", ErrConversion, fromName, toName)
		}
		grams := amount * from.Factor
		return grams / density / to.Factor, nil
	case from.Kind == Volume && to.Kind == Weight:
		if density <= 0 {
			return 0, fmt.Errorf("%w: %s -> %s requires a density", ErrConversion, fromName, toName)
		}
		ml := amount * from.Factor
		return ml * density / to.Factor, nil
	}

	return 0, fmt.Errorf("%w: cannot convert %s (%s) to %s (%s)",
		ErrConversion, fromName, from.Kind, toName, to.Kind)
}
