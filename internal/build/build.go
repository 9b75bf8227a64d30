// Package build assembles validated records into the immutable model: it
// injects defaults, flags name collisions, enforces the per-system body cap
// and runs the derivations.
package build

import (
	"fmt"
	"math"
	"sort"

	"github.com/mcs-education/starcat/internal/derive"
	"github.com/mcs-education/starcat/internal/diag"
	"github.com/mcs-education/starcat/internal/normalize"
	"github.com/mcs-education/starcat/model"
)

// DefaultMaxBodies caps planets + moons per system.
const DefaultMaxBodies = 16

// Synthetic star parameters (solar values).
const (
	defaultMass   = 1.0
	defaultRadius = 1.0
	defaultTempK  = derive.SolarTempK
	defaultLum    = 1.0

	// DefaultMoonRadiusKm is used for moons without a usable radius.
	DefaultMoonRadiusKm = 1737.4
)

// Options tunes the builder.
type Options struct {
	// MaxBodies caps planets + moons per system; <= 0 selects DefaultMaxBodies.
	MaxBodies int
}

func (o Options) maxBodies() int {
	if o.MaxBodies <= 0 {
		return DefaultMaxBodies
	}
	return o.MaxBodies
}

// System builds one validated system record.
func System(rec *normalize.SystemRec, opts Options, sink *diag.Issues) model.System {
	sc := diag.NewScope(sink, diag.KindSystem, rec.Name.Value, rec.Path)
	sys := model.System{
		Name:             rec.Name.Value,
		PrimaryName:      rec.PrimaryName,
		DisplayName:      rec.DisplayName,
		Notes:            rec.Notes,
		Aliases:          rec.Aliases,
		Circumbinary:     rec.Circumbinary,
		CatalogFlags:     rec.CatalogFlags,
		DiscoveryMethods: rec.DiscoveryMethods,
		Habitable:        habitable(rec.Habitable),
		Planets:          []model.Planet{},
		Extras:           rec.Extras,
	}

	for _, s := range rec.Stars {
		sys.Stars = append(sys.Stars, Star(s))
	}
	if len(sys.Stars) == 0 {
		if rec.StarsGiven {
			sc.Report(diag.CodeMissingRequired, "stars", diag.OutcomeDefaulted,
				"no valid star left; default star injected")
		}
		sys.Stars = []model.Star{SyntheticStar(sys.Name)}
	}
	starScopes := make([]diag.Scope, len(sys.Stars))
	for i := range sys.Stars {
		starScopes[i] = sc
		if i < len(rec.Stars) {
			s := rec.Stars[i]
			starScopes[i] = sc.Child(diag.KindStar, s.Name.Value, s.Path)
		}
	}
	flagDuplicates(len(sys.Stars), func(i int) (string, diag.Scope) {
		return sys.Stars[i].Name, starScopes[i]
	})

	if rec.Category.Set {
		sys.Category, _ = model.ParseCategory(rec.Category.Value)
	} else {
		sys.Category = model.CategoryForStarCount(len(sys.Stars))
	}

	planets := truncate(rec.Planets, opts.maxBodies(), sc)
	flagDuplicates(len(planets), func(i int) (string, diag.Scope) {
		p := planets[i]
		return p.Name.Value, sc.Child(diag.KindPlanet, p.Name.Value, p.Path)
	})
	scopes := make([]diag.Scope, len(planets))
	for i, p := range planets {
		psc := sc.Child(diag.KindPlanet, p.Name.Value, p.Path)
		scopes[i] = psc
		sys.Planets = append(sys.Planets, Planet(p, psc))
	}

	derive.System(&sys, sc, starScopes, scopes)
	return sys
}

func habitable(h normalize.HabitableRec) model.Habitable {
	out := model.Habitable{Mode: model.HabitableMode{Kind: model.HabitableAuto}}
	if h.Mode.Set {
		out.Mode, _ = model.ParseHabitableMode(h.Mode.Value)
	}
	if o := h.Override; o != nil && !o.Bad {
		out.Override = &model.Bounds{InnerAU: o.Inner.Value, OuterAU: o.Outer.Value}
	}
	return out
}

// SyntheticStar is the solar-parameter star injected into systems without
// stars.
func SyntheticStar(name string) model.Star {
	return model.Star{
		Name:      name,
		Type:      model.StarType{Kind: model.StarNormal},
		Mass:      model.DefaultValue(defaultMass, model.UnitSolarMass),
		Radius:    model.DefaultValue(defaultRadius, model.UnitSolarRadius),
		TempK:     model.DefaultValue(defaultTempK, model.UnitKelvin),
		Lum:       model.DefaultValue(defaultLum, model.UnitSolarLum),
		Placement: model.Placement{Kind: model.PlacementOrigin},
		Synthetic: true,
	}
}

// Star builds one star. An explicit position wins over orbital elements,
// which are then kept as informational.
func Star(rec *normalize.StarRec) model.Star {
	s := model.Star{
		Name:         rec.Name.Value,
		Type:         model.StarType{Kind: model.StarNormal},
		Mass:         quantity(rec.Mass, model.UnitSolarMass),
		Radius:       quantity(rec.Radius, model.UnitSolarRadius),
		TempK:        quantity(rec.TempK, model.UnitKelvin),
		Lum:          quantity(rec.Lum, model.UnitSolarLum),
		BinaryMember: rec.BinaryMember,
		GaiaDR3ID:    rec.GaiaDR3ID,
		Extras:       rec.Extras,
	}
	if rec.Type.Set {
		s.Type, _ = model.ParseStarType(rec.Type.Value)
	}
	var orbit *model.Orbit
	if rec.HasOrbit() {
		orbit = &model.Orbit{
			SemiMajorAxisAU: rec.OrbitA.Value,
			PeriodDays:      rec.OrbitPeriod.Value,
			Phase:           rec.OrbitPhase.Value,
		}
	}
	switch {
	case rec.Pos.Set:
		s.Placement = model.Placement{Kind: model.PlacementPosition, Orbit: orbit}
		copy(s.Placement.Pos[:], rec.Pos.Values)
	case orbit != nil:
		s.Placement = model.Placement{Kind: model.PlacementOrbit, Orbit: orbit}
	default:
		s.Placement = model.Placement{Kind: model.PlacementOrigin}
	}
	return s
}

// Planet builds one planet and its moons.
func Planet(rec *normalize.PlanetRec, sc diag.Scope) model.Planet {
	p := model.Planet{
		Name:            rec.Name.Value,
		SemiMajorAxisAU: rec.A.Value,
		PeriodDays:      rec.Period.Value,
		RadiusEarth:     rec.Radius.Value,
		SpinPeriodHours: quantity(rec.Spin, model.UnitHours),
		Color:           color(rec.Color),
		Circumbinary:    rec.Circumbinary,
		DiscoveryMethod: rec.DiscoveryMethod,
		MassEarth:       quantity(rec.MassEarth, model.UnitEarthMass),
		Density:         quantity(rec.Density, model.UnitDensity),
		Insolation:      quantity(rec.Insol, model.UnitEarthFlux),
		EqTempK:         quantity(rec.EqTempK, model.UnitKelvin),
		DetectionFlags:  rec.DetectionFlags,
		Moons:           []model.Moon{},
		Extras:          rec.Extras,
	}
	if rec.DiscoveryYear.Set {
		p.DiscoveryYear = int(math.Round(rec.DiscoveryYear.Value))
	}
	if r := rec.Ring; r != nil {
		p.Ring = &model.Ring{
			InnerRp: r.Inner.Value,
			OuterRp: r.Outer.Value,
			TiltDeg: r.Tilt.Value,
			Alpha:   1,
			Color:   color(r.Color),
		}
		if r.Alpha.Set {
			p.Ring.Alpha = r.Alpha.Value
		}
	}
	flagDuplicates(len(rec.Moons), func(i int) (string, diag.Scope) {
		m := rec.Moons[i]
		return m.Name.Value, sc.Child(diag.KindMoon, m.Name.Value, m.Path)
	})
	for _, m := range rec.Moons {
		p.Moons = append(p.Moons, Moon(m, sc.Child(diag.KindMoon, m.Name.Value, m.Path)))
	}
	return p
}

// Moon builds one moon. A missing spin period defaults to synchronous
// rotation and a missing radius to the lunar one.
func Moon(rec *normalize.MoonRec, sc diag.Scope) model.Moon {
	m := model.Moon{
		Name:            rec.Name.Value,
		PeriodDays:      rec.Period.Value,
		SemiMajorAxisKm: rec.AKm.Value,
		RadiusKm:        rec.Radius.Value,
		SpinPeriodHours: quantity(rec.Spin, model.UnitHours),
		Color:           color(rec.Color),
		Extras:          rec.Extras,
	}
	if !rec.Radius.Set {
		m.RadiusKm = DefaultMoonRadiusKm
	}
	if !m.SpinPeriodHours.Known() {
		if h := m.PeriodDays * model.HoursPerDay; !math.IsInf(h, 0) {
			m.SpinPeriodHours = model.DefaultValue(h, model.UnitHours)
		} else {
			sc.Report(diag.CodeDerivationSkipped, "spinPeriodHours", diag.OutcomeDropped,
				"synchronous spin skipped: period in hours is not finite")
		}
	}
	return m
}

func quantity(n normalize.Num, u model.Unit) model.Quantity {
	if !n.Set {
		return model.Quantity{}
	}
	return model.Given(n.Value, u)
}

func color(t normalize.Triple) *model.Color {
	if !t.Set || len(t.Values) != 3 {
		return nil
	}
	var c model.Color
	copy(c[:], t.Values)
	return &c
}

// flagDuplicates reports every entry whose name repeats an earlier one.
// Both entries are kept.
func flagDuplicates(n int, at func(i int) (string, diag.Scope)) {
	seen := make(map[string]int, n)
	for i := 0; i < n; i++ {
		name, esc := at(i)
		if first, dup := seen[name]; dup {
			esc.Report(diag.CodeDuplicateName, "name", diag.OutcomeKept,
				fmt.Sprintf("name %q repeats entry %d", name, first), "name", name, "first", first)
			continue
		}
		seen[name] = i
	}
}

type body struct {
	planet int // index into planets
	moon   int // index into the planet's moons, -1 for the planet itself
	dist   float64
	seq    int
}

// truncate keeps the limit bodies closest to the primary. A moon sits at its
// parent's distance plus its own offset, and sorts after its parent, so it
// never survives without it. When bodies are dropped the surviving planets
// come back in ascending distance order.
func truncate(planets []*normalize.PlanetRec, limit int, sc diag.Scope) []*normalize.PlanetRec {
	var bodies []body
	for i, p := range planets {
		bodies = append(bodies, body{planet: i, moon: -1, dist: p.A.Value, seq: len(bodies)})
		for j, m := range p.Moons {
			bodies = append(bodies, body{planet: i, moon: j, dist: p.A.Value + m.AKm.Value/model.AUKm, seq: len(bodies)})
		}
	}
	if len(bodies) <= limit {
		return planets
	}
	sort.SliceStable(bodies, func(a, b int) bool {
		if bodies[a].dist != bodies[b].dist {
			return bodies[a].dist < bodies[b].dist
		}
		return bodies[a].seq < bodies[b].seq
	})

	keepPlanet := make(map[int]bool)
	keepMoon := make(map[[2]int]bool)
	for _, b := range bodies[:limit] {
		if b.moon < 0 {
			keepPlanet[b.planet] = true
		} else {
			keepMoon[[2]int{b.planet, b.moon}] = true
		}
	}
	var dropped []string
	for _, b := range bodies[limit:] {
		p := planets[b.planet]
		if b.moon < 0 {
			dropped = append(dropped, p.Name.Value)
		} else {
			dropped = append(dropped, p.Name.Value+"/"+p.Moons[b.moon].Name.Value)
		}
	}

	var out []*normalize.PlanetRec
	for i, p := range planets {
		if !keepPlanet[i] {
			continue
		}
		cp := *p
		cp.Moons = nil
		for j, m := range p.Moons {
			if keepMoon[[2]int{i, j}] {
				cp.Moons = append(cp.Moons, m)
			}
		}
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].A.Value < out[b].A.Value })

	sc.Report(diag.CodeCardinality, "planets", diag.OutcomeTruncated,
		fmt.Sprintf("%d bodies exceed the limit of %d; %d farthest dropped", len(bodies), limit, len(dropped)),
		"limit", limit, "got", len(bodies), "dropped", dropped)
	return out
}
