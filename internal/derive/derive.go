// Package derive computes quantities the input does not carry: stellar
// luminosity and radius, the primary star, habitable zones, planetary
// irradiance and equilibrium temperature. Every function is a pure function
// of the entity graph.
package derive

import (
	"math"
	"strings"

	"github.com/mcs-education/starcat/internal/diag"
	"github.com/mcs-education/starcat/model"
)

const (
	// SolarTempK is the nominal solar effective temperature.
	SolarTempK = 5772.0
	// HZInner and HZOuter are the conservative solar habitable zone limits in
	// AU (Kasting et al. 1993), scaled by sqrt(L).
	HZInner = 0.95
	HZOuter = 1.37
	// EarthEqTempK is the equilibrium temperature at 1 Earth flux for zero albedo.
	EarthEqTempK = 278.6
)

// FillStar fills a missing luminosity from radius and temperature (else
// from mass), then a missing radius from luminosity and temperature (else
// from mass). A result that overflows is reported and left absent.
func FillStar(s *model.Star, sc diag.Scope) {
	if !s.Lum.Known() {
		if l, ok := starLum(s); ok && finite(l) {
			s.Lum = model.DerivedValue(l, model.UnitSolarLum)
		} else if ok {
			sc.Report(diag.CodeDerivationSkipped, "lum", diag.OutcomeDropped,
				"luminosity skipped: result is not finite")
		}
	}
	if !s.Radius.Known() {
		if r, ok := starRadius(s); ok && finite(r) {
			s.Radius = model.DerivedValue(r, model.UnitSolarRadius)
		} else if ok {
			sc.Report(diag.CodeDerivationSkipped, "radius", diag.OutcomeDropped,
				"radius skipped: result is not finite")
		}
	}
}

func starLum(s *model.Star) (float64, bool) {
	switch {
	case s.Radius.Known() && s.TempK.Known() && s.TempK.Value > 0:
		t := s.TempK.Value / SolarTempK
		return s.Radius.Value * s.Radius.Value * t * t * t * t, true
	case s.Mass.Known():
		return math.Pow(s.Mass.Value, 4), true
	}
	return 0, false
}

func starRadius(s *model.Star) (float64, bool) {
	switch {
	case s.Lum.Known() && s.TempK.Known() && s.TempK.Value > 0:
		t := SolarTempK / s.TempK.Value
		return math.Sqrt(s.Lum.Value) * t * t, true
	case s.Mass.Known():
		return math.Pow(s.Mass.Value, 0.8), true
	}
	return 0, false
}

func finite(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }

// Primary returns the index of the primary star: the star named by
// primaryName, else the most massive one. Unknown masses rank lowest and
// ties go to the first listed star. It returns -1 for no stars. named
// reports whether primaryName matched a star.
func Primary(stars []model.Star, primaryName string) (idx int, named bool) {
	if primaryName != "" {
		for i := range stars {
			if stars[i].Name == primaryName {
				return i, true
			}
		}
		for i := range stars {
			if strings.EqualFold(stars[i].Name, primaryName) {
				return i, true
			}
		}
	}
	best := -1
	for i := range stars {
		if best < 0 {
			best = i
			continue
		}
		if heavier(stars[i].Mass, stars[best].Mass) {
			best = i
		}
	}
	return best, false
}

func heavier(a, b model.Quantity) bool {
	if !a.Known() {
		return false
	}
	if !b.Known() {
		return true
	}
	return a.Value > b.Value
}

// BinarySet returns the indexes of the stars flagged binaryMember, or of all
// stars when none is flagged.
func BinarySet(stars []model.Star) []int {
	var idx []int
	for i := range stars {
		if stars[i].BinaryMember {
			idx = append(idx, i)
		}
	}
	if len(idx) > 0 {
		return idx
	}
	idx = make([]int, len(stars))
	for i := range stars {
		idx[i] = i
	}
	return idx
}

// Barycenter is the mass-weighted centre of the selected stars. When any
// mass is unknown or the total is zero every star weighs the same.
func Barycenter(stars []model.Star, idx []int) model.Vec3 {
	var c model.Vec3
	if len(idx) == 0 {
		return c
	}
	total := 0.0
	weighted := true
	for _, i := range idx {
		if !stars[i].Mass.Known() {
			weighted = false
			break
		}
		total += stars[i].Mass.Value
	}
	if total <= 0 || !finite(total) {
		weighted = false
	}
	for _, i := range idx {
		w := 1.0 / float64(len(idx))
		if weighted {
			w = stars[i].Mass.Value / total
		}
		p := stars[i].Placement.Position()
		for k := range c {
			c[k] += w * p[k]
		}
	}
	return c
}

// CombinedLuminosity sums the luminosities of the selected stars. The
// result is absent when any of them is unknown.
func CombinedLuminosity(stars []model.Star, idx []int) model.Quantity {
	if len(idx) == 0 {
		return model.Quantity{}
	}
	sum := 0.0
	src := model.FromInput
	for _, i := range idx {
		l := stars[i].Lum
		if !l.Known() {
			return model.Quantity{}
		}
		sum += l.Value
		if l.Source != model.FromInput {
			src = model.Derived
		}
	}
	if len(idx) > 1 {
		src = model.Derived
	}
	return model.Quantity{Value: sum, Unit: model.UnitSolarLum, Source: src}
}

// ResolveMode turns auto (and unrecognized modes) into circumbinary or
// circumprimary according to the system flag.
func ResolveMode(sys *model.System) model.HabitableMode {
	switch sys.Habitable.Mode.Kind {
	case model.HabitableCircumprimary, model.HabitableCircumbinary, model.HabitableNone:
		return model.HabitableMode{Kind: sys.Habitable.Mode.Kind}
	}
	if sys.IsCircumbinary() {
		return model.HabitableMode{Kind: model.HabitableCircumbinary}
	}
	return model.HabitableMode{Kind: model.HabitableCircumprimary}
}

// Zone computes the habitable zone of sys. An override is used verbatim for
// every mode; otherwise mode none yields no zone, and an unknown luminosity
// yields no zone plus a derivation_skipped warning.
func Zone(sys *model.System, sc diag.Scope) *model.HabitableZone {
	mode := ResolveMode(sys)
	var idx []int
	var center model.Vec3
	if mode.Kind == model.HabitableCircumbinary {
		idx = BinarySet(sys.Stars)
		center = Barycenter(sys.Stars, idx)
	} else if p := sys.Primary(); p != nil {
		idx = []int{sys.PrimaryIndex}
		center = p.Placement.Position()
	}
	names := make([]string, 0, len(idx))
	for _, i := range idx {
		names = append(names, sys.Stars[i].Name)
	}

	if o := sys.Habitable.Override; o != nil {
		return &model.HabitableZone{
			Mode:      mode,
			InnerAU:   o.InnerAU,
			OuterAU:   o.OuterAU,
			Center:    center,
			Override:  true,
			StarNames: names,
		}
	}
	if mode.Kind == model.HabitableNone {
		return nil
	}
	lum := CombinedLuminosity(sys.Stars, idx)
	if !lum.Known() {
		sc.Report(diag.CodeDerivationSkipped, "habitableZone", diag.OutcomeDropped,
			"habitable zone skipped: stellar luminosity unknown", "mode", mode.String())
		return nil
	}
	root := math.Sqrt(lum.Value)
	if !finite(HZOuter * root) {
		sc.Report(diag.CodeDerivationSkipped, "habitableZone", diag.OutcomeDropped,
			"habitable zone skipped: luminosity is not finite", "mode", mode.String())
		return nil
	}
	return &model.HabitableZone{
		Mode:       mode,
		InnerAU:    HZInner * root,
		OuterAU:    HZOuter * root,
		Center:     center,
		Luminosity: lum,
		StarNames:  names,
	}
}

// PlanetLuminosity returns the luminosity that illuminates p: the binary set
// for circumbinary planets, the primary otherwise. A planet without its own
// flag follows the system flag.
func PlanetLuminosity(sys *model.System, p *model.Planet) model.Quantity {
	cb := sys.IsCircumbinary()
	if p.Circumbinary != nil {
		cb = *p.Circumbinary
	}
	if cb {
		return CombinedLuminosity(sys.Stars, BinarySet(sys.Stars))
	}
	if pr := sys.Primary(); pr != nil {
		return pr.Lum
	}
	return model.Quantity{}
}

// Irradiance fills insolation S = L/a^2 and the equilibrium temperature
// 278.6 K * S^0.25 when the input lacks them.
func Irradiance(p *model.Planet, lum model.Quantity, sc diag.Scope) {
	if !p.Insolation.Known() {
		switch {
		case !lum.Known():
			sc.Report(diag.CodeDerivationSkipped, "insol", diag.OutcomeDropped,
				"irradiance skipped: stellar luminosity unknown")
			return
		case p.SemiMajorAxisAU <= 0:
			sc.Report(diag.CodeDerivationSkipped, "insol", diag.OutcomeDropped,
				"irradiance skipped: zero orbital distance")
			return
		}
		a := p.SemiMajorAxisAU
		insol := lum.Value / (a * a)
		if !finite(insol) {
			sc.Report(diag.CodeDerivationSkipped, "insol", diag.OutcomeDropped,
				"irradiance skipped: result is not finite", "aAU", a)
			return
		}
		p.Insolation = model.DerivedValue(insol, model.UnitEarthFlux)
	}
	if !p.EqTempK.Known() {
		p.EqTempK = model.DerivedValue(EarthEqTempK*math.Pow(p.Insolation.Value, 0.25), model.UnitKelvin)
	}
}

// System runs every derivation for sys in dependency order. starScopes and
// planetScopes must be parallel to sys.Stars and sys.Planets.
func System(sys *model.System, sc diag.Scope, starScopes, planetScopes []diag.Scope) {
	for i := range sys.Stars {
		FillStar(&sys.Stars[i], starScopes[i])
	}
	var named bool
	sys.PrimaryIndex, named = Primary(sys.Stars, sys.PrimaryName)
	if sys.PrimaryName != "" && !named && sys.PrimaryIndex >= 0 {
		sc.Report(diag.CodeUnknownEnum, "primaryName", diag.OutcomeKept,
			"primaryName matches no star; the most massive star is primary",
			"value", sys.PrimaryName, "primary", sys.Stars[sys.PrimaryIndex].Name)
	}
	sys.HabitableZone = Zone(sys, sc)
	for i := range sys.Planets {
		p := &sys.Planets[i]
		Irradiance(p, PlanetLuminosity(sys, p), planetScopes[i])
	}
}
