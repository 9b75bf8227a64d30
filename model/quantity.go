package model

import (
	"math"
	"sort"

	gojson "github.com/goccy/go-json"
)

// Unit tags a Quantity with its canonical unit.
type Unit string

const (
	UnitAU          Unit = "AU"
	UnitKm          Unit = "km"
	UnitDays        Unit = "d"
	UnitHours       Unit = "h"
	UnitKelvin      Unit = "K"
	UnitSolarMass   Unit = "Msun"
	UnitSolarRadius Unit = "Rsun"
	UnitSolarLum    Unit = "Lsun"
	UnitEarthMass   Unit = "Mearth"
	UnitEarthRadius Unit = "Rearth"
	UnitEarthFlux   Unit = "Searth"
	UnitDensity     Unit = "g/cm3"
)

// Unit conversions used by the normalizer.
const (
	EarthRadiusKm = 6371.0
	AUKm          = 149597870.7
	HoursPerDay   = 24.0
)

// Provenance records where a Quantity came from.
type Provenance uint8

const (
	Absent Provenance = iota
	FromInput
	Derived
	Defaulted
)

func (p Provenance) String() string {
	switch p {
	case FromInput:
		return "input"
	case Derived:
		return "derived"
	case Defaulted:
		return "default"
	default:
		return "absent"
	}
}

func (p Provenance) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Quantity is an optional, unit-tagged number.
type Quantity struct {
	Value  float64
	Unit   Unit
	Source Provenance
}

// Given wraps an input value.
func Given(v float64, u Unit) Quantity { return Quantity{Value: v, Unit: u, Source: FromInput} }

// DerivedValue wraps a computed value.
func DerivedValue(v float64, u Unit) Quantity { return Quantity{Value: v, Unit: u, Source: Derived} }

// DefaultValue wraps a value supplied by a default rule.
func DefaultValue(v float64, u Unit) Quantity { return Quantity{Value: v, Unit: u, Source: Defaulted} }

// Known reports whether the quantity carries a usable value.
func (q Quantity) Known() bool { return q.Source != Absent && !math.IsNaN(q.Value) }

// Or returns q when known, otherwise fallback.
func (q Quantity) Or(fallback float64) float64 {
	if q.Known() {
		return q.Value
	}
	return fallback
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Known() {
		return []byte("null"), nil
	}
	return gojson.Marshal(struct {
		Value  float64    `json:"value"`
		Unit   Unit       `json:"unit"`
		Source Provenance `json:"source"`
	}{q.Value, q.Unit, q.Source})
}

// Vec3 is a Cartesian position in AU.
type Vec3 [3]float64

// Color is an RGB triple with components in [0,1].
type Color [3]float64

// Extras is the passthrough bag holding input keys outside the fixed schema,
// verbatim. Numbers are kept as gojson.Number.
type Extras map[string]any

// Get returns the raw value stored under key.
func (e Extras) Get(key string) (any, bool) {
	v, ok := e[key]
	return v, ok
}

// Keys returns the keys in sorted order.
func (e Extras) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
