package normalize

import (
	"github.com/mcs-education/starcat/internal/diag"
	"github.com/mcs-education/starcat/model"
)

// Num is one resolved numeric field in canonical units.
type Num struct {
	Value float64
	Key   string // wire key that supplied the value, e.g. "orbit.aAU"
	Set   bool   // a usable value was found
	Bad   bool   // a value was present but could not be read
}

// Text is one resolved string field.
type Text struct {
	Value string
	Set   bool
	Bad   bool
}

// Triple is a 3-component numeric array (colors, positions).
type Triple struct {
	Values []float64
	Set    bool
	Bad    bool
}

// Entry is one raw system object and where it sits in the input.
type Entry struct {
	Raw  map[string]any
	Path diag.PathRef
}

// SystemRec is the canonical record of one system.
type SystemRec struct {
	Path             diag.PathRef
	Name             Text
	PrimaryName      string
	DisplayName      string
	Notes            string
	Aliases          []string
	Category         Text
	Circumbinary     *bool
	CatalogFlags     model.Extras
	DiscoveryMethods []string
	Habitable        HabitableRec
	StarsGiven       bool
	Stars            []*StarRec
	Planets          []*PlanetRec
	Extras           model.Extras
}

// HabitableRec is the authored habitable zone request.
type HabitableRec struct {
	Mode     Text
	Override *OverrideRec
}

// OverrideRec holds overrideAU bounds.
type OverrideRec struct {
	Inner Num
	Outer Num
	Bad   bool
}

// StarRec is the canonical record of one star. Units: solar mass, solar
// radius, K, solar luminosity, AU, days.
type StarRec struct {
	Path         diag.PathRef
	Index        int
	Name         Text
	Type         Text
	Mass         Num
	Radius       Num
	TempK        Num
	Lum          Num
	OrbitA       Num
	OrbitPeriod  Num
	OrbitPhase   Num
	Pos          Triple
	BinaryMember bool
	GaiaDR3ID    string
	Extras       model.Extras
}

// HasOrbit reports whether any orbital element was given.
func (s *StarRec) HasOrbit() bool { return s.OrbitA.Set || s.OrbitPeriod.Set || s.OrbitPhase.Set }

// PlanetRec is the canonical record of one planet. Units: AU, days, Earth
// radii, hours.
type PlanetRec struct {
	Path            diag.PathRef
	Index           int
	Name            Text
	A               Num
	Period          Num
	Radius          Num
	Spin            Num
	Color           Triple
	Ring            *RingRec
	Circumbinary    *bool
	DiscoveryMethod string
	DiscoveryYear   Num
	MassEarth       Num
	Density         Num
	Insol           Num
	EqTempK         Num
	DetectionFlags  model.Extras
	Moons           []*MoonRec
	Extras          model.Extras
}

// RingRec is ring geometry in planetary radii and degrees.
type RingRec struct {
	Inner Num
	Outer Num
	Tilt  Num
	Alpha Num
	Color Triple
	Bad   bool
}

// MoonRec is the canonical record of one moon. Units: km, days, hours.
type MoonRec struct {
	Path   diag.PathRef
	Index  int
	Name   Text
	Period Num
	AKm    Num
	Radius Num
	Spin   Num
	Color  Triple
	Extras model.Extras
}
