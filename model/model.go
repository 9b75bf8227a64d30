// Package model is the immutable catalog handed to renderers. Values are
// built once per load and must not be modified after publication; a reload
// produces a new Dataset.
package model

import (
	"math"
	"strings"
)

// Dataset is the top-level container of one load.
type Dataset struct {
	Meta    *Meta    `json:"meta,omitempty"`
	Systems []System `json:"systems"`
	// Extras holds top-level keys other than meta and systems.
	Extras Extras `json:"extras,omitempty"`
}

// Meta is opaque dataset metadata.
type Meta struct {
	DatasetVersion string `json:"datasetVersion,omitempty"`
	GeneratedAt    string `json:"generatedAt,omitempty"`
	Source         string `json:"source,omitempty"`
	Extras         Extras `json:"extras,omitempty"`
}

// System looks a system up by name, then by alias (case-insensitive).
func (d *Dataset) System(name string) (*System, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Systems {
		if d.Systems[i].Name == name {
			return &d.Systems[i], true
		}
	}
	for i := range d.Systems {
		s := &d.Systems[i]
		if strings.EqualFold(s.Name, name) || strings.EqualFold(s.DisplayName, name) {
			return s, true
		}
		for _, a := range s.Aliases {
			if strings.EqualFold(a, name) {
				return s, true
			}
		}
	}
	return nil, false
}

// BodyCount is the number of rendered bodies across all systems.
func (d *Dataset) BodyCount() int {
	n := 0
	for i := range d.Systems {
		n += d.Systems[i].BodyCount()
	}
	return n
}

// System is one star system.
type System struct {
	Name             string    `json:"name"`
	PrimaryName      string    `json:"primaryName,omitempty"`
	DisplayName      string    `json:"displayName,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	Aliases          []string  `json:"aliases,omitempty"`
	Category         Category  `json:"category"`
	Circumbinary     *bool     `json:"circumbinary,omitempty"`
	CatalogFlags     Extras    `json:"catalogFlags,omitempty"`
	DiscoveryMethods []string  `json:"discoveryMethods,omitempty"`
	Habitable        Habitable `json:"habitable"`
	Stars            []Star    `json:"stars"`
	// PrimaryIndex points into Stars at the star selected as primary.
	PrimaryIndex  int            `json:"primaryIndex"`
	Planets       []Planet       `json:"planets"`
	HabitableZone *HabitableZone `json:"habitableZone,omitempty"`
	Extras        Extras         `json:"extras,omitempty"`
}

// BodyCount returns planets + moons.
func (s *System) BodyCount() int {
	n := len(s.Planets)
	for i := range s.Planets {
		n += len(s.Planets[i].Moons)
	}
	return n
}

// Primary returns the primary star.
func (s *System) Primary() *Star {
	if s.PrimaryIndex < 0 || s.PrimaryIndex >= len(s.Stars) {
		return nil
	}
	return &s.Stars[s.PrimaryIndex]
}

// IsCircumbinary reports the system-level circumbinary flag (false when unset).
func (s *System) IsCircumbinary() bool { return s.Circumbinary != nil && *s.Circumbinary }

// Habitable is the authored habitable zone request.
type Habitable struct {
	Mode     HabitableMode `json:"mode"`
	Override *Bounds       `json:"overrideAU,omitempty"`
}

// Bounds is an inner/outer distance pair in AU.
type Bounds struct {
	InnerAU float64 `json:"inner"`
	OuterAU float64 `json:"outer"`
}

// HabitableZone is derived per system.
type HabitableZone struct {
	Mode       HabitableMode `json:"mode"`
	InnerAU    float64       `json:"innerAU"`
	OuterAU    float64       `json:"outerAU"`
	Center     Vec3          `json:"center"`
	Luminosity Quantity      `json:"luminosity"`
	Override   bool          `json:"override"`
	StarNames  []string      `json:"stars,omitempty"`
}

// Orbit holds orbital elements.
type Orbit struct {
	SemiMajorAxisAU float64 `json:"aAU"`
	PeriodDays      float64 `json:"periodDays"`
	Phase           float64 `json:"phase"`
}

// Placement is a tagged variant: PlacementPosition uses Pos, PlacementOrbit
// uses Orbit, PlacementOrigin uses neither. Orbit may also be set alongside a
// position, in which case it is informational only.
type Placement struct {
	Kind  PlacementKind `json:"kind"`
	Orbit *Orbit        `json:"orbit,omitempty"`
	Pos   Vec3          `json:"posAU"`
}

// Position returns the Cartesian position in AU. Orbit placements are
// evaluated at their phase on a circular orbit in the x-y plane.
func (p Placement) Position() Vec3 {
	switch p.Kind {
	case PlacementPosition:
		return p.Pos
	case PlacementOrbit:
		if p.Orbit == nil {
			return Vec3{}
		}
		theta := 2 * math.Pi * p.Orbit.Phase
		a := p.Orbit.SemiMajorAxisAU
		return Vec3{a * math.Cos(theta), a * math.Sin(theta), 0}
	default:
		return Vec3{}
	}
}

// Star is one stellar body.
type Star struct {
	Name         string    `json:"name"`
	Type         StarType  `json:"type"`
	Mass         Quantity  `json:"mass"`
	Radius       Quantity  `json:"radius"`
	TempK        Quantity  `json:"tempK"`
	Lum          Quantity  `json:"lum"`
	Placement    Placement `json:"placement"`
	BinaryMember bool      `json:"binaryMember,omitempty"`
	GaiaDR3ID    string    `json:"gaiaDr3Id,omitempty"`
	// Synthetic marks the default star injected for systems without stars.
	Synthetic bool   `json:"synthetic,omitempty"`
	Extras    Extras `json:"extras,omitempty"`
}

// Ring is planetary ring geometry; radii are in planetary radii.
type Ring struct {
	InnerRp float64 `json:"inner"`
	OuterRp float64 `json:"outer"`
	TiltDeg float64 `json:"tilt"`
	Alpha   float64 `json:"alpha"`
	Color   *Color  `json:"color,omitempty"`
}

// Planet is one planet and its moons.
type Planet struct {
	Name            string   `json:"name"`
	SemiMajorAxisAU float64  `json:"aAU"`
	PeriodDays      float64  `json:"periodDays"`
	RadiusEarth     float64  `json:"radiusEarth"`
	SpinPeriodHours Quantity `json:"spinPeriodHours"`
	Color           *Color   `json:"color,omitempty"`
	Ring            *Ring    `json:"ring,omitempty"`
	Circumbinary    *bool    `json:"circumbinary,omitempty"`
	DiscoveryMethod string   `json:"discoveryMethod,omitempty"`
	DiscoveryYear   int      `json:"discoveryYear,omitempty"`
	MassEarth       Quantity `json:"massEarth"`
	Density         Quantity `json:"density"`
	Insolation      Quantity `json:"insol"`
	EqTempK         Quantity `json:"eqTempK"`
	DetectionFlags  Extras   `json:"detectionFlags,omitempty"`
	Moons           []Moon   `json:"moons"`
	Extras          Extras   `json:"extras,omitempty"`
}

// RadiusKm converts the planet radius to km.
func (p *Planet) RadiusKm() float64 { return p.RadiusEarth * EarthRadiusKm }

// Moon is a natural satellite.
type Moon struct {
	Name            string   `json:"name"`
	PeriodDays      float64  `json:"periodDays"`
	SemiMajorAxisKm float64  `json:"aKm"`
	RadiusKm        float64  `json:"radiusKm"`
	SpinPeriodHours Quantity `json:"spinPeriodHours"`
	Color           *Color   `json:"color,omitempty"`
	Extras          Extras   `json:"extras,omitempty"`
}
