// Package validate checks normalized records. Validation is per entity: an
// invalid child is removed from its parent, an invalid optional subfield is
// cleared, and only a missing system name drops a whole system.
package validate

import (
	"github.com/mcs-education/starcat/internal/diag"
	"github.com/mcs-education/starcat/internal/normalize"
	"github.com/mcs-education/starcat/model"
)

// System validates rec in place and reports whether it survives.
func System(rec *normalize.SystemRec, sink *diag.Issues) bool {
	sc := diag.NewScope(sink, diag.KindSystem, rec.Name.Value, rec.Path)
	if !requireText(sc, rec.Name, "name") {
		return false
	}
	if rec.Category.Set {
		if _, ok := model.ParseCategory(rec.Category.Value); !ok {
			sc.Report(diag.CodeUnknownEnum, "category", diag.OutcomeKept,
				"unrecognized category preserved", "value", rec.Category.Value)
		}
	}
	if rec.Habitable.Mode.Set {
		if _, ok := model.ParseHabitableMode(rec.Habitable.Mode.Value); !ok {
			sc.Report(diag.CodeUnknownEnum, "habitable.mode", diag.OutcomeKept,
				"unrecognized habitable mode preserved, zone computed as auto", "value", rec.Habitable.Mode.Value)
		}
	}
	if o := rec.Habitable.Override; o != nil {
		if o.Bad || !overrideOK(o) {
			if !o.Bad {
				sc.Report(diag.CodeInvalidType, "habitable.overrideAU", diag.OutcomeDropped,
					"override bounds must be non-negative with inner <= outer",
					"inner", o.Inner.Value, "outer", o.Outer.Value)
			}
			rec.Habitable.Override = nil
		}
	}

	stars := rec.Stars[:0]
	for _, s := range rec.Stars {
		if Star(s, sc.Child(diag.KindStar, s.Name.Value, s.Path)) {
			stars = append(stars, s)
		}
	}
	rec.Stars = stars

	planets := rec.Planets[:0]
	for _, p := range rec.Planets {
		if Planet(p, sc.Child(diag.KindPlanet, p.Name.Value, p.Path)) {
			planets = append(planets, p)
		}
	}
	rec.Planets = planets
	return true
}

func overrideOK(o *normalize.OverrideRec) bool {
	return o.Inner.Set && o.Outer.Set && o.Inner.Value >= 0 && o.Inner.Value <= o.Outer.Value
}

// Star validates one star in place.
func Star(rec *normalize.StarRec, sc diag.Scope) bool {
	if !requireText(sc, rec.Name, "name") {
		return false
	}
	if rec.Type.Set {
		if _, ok := model.ParseStarType(rec.Type.Value); !ok {
			sc.Report(diag.CodeUnknownEnum, "type", diag.OutcomeKept,
				"unrecognized star type preserved", "value", rec.Type.Value)
		}
	}
	nonNegative(sc, &rec.Mass, "mass")
	nonNegative(sc, &rec.Radius, "radius")
	nonNegative(sc, &rec.TempK, "tempK")
	nonNegative(sc, &rec.Lum, "lum")
	nonNegative(sc, &rec.OrbitA, rec.OrbitA.Key)
	nonNegative(sc, &rec.OrbitPeriod, rec.OrbitPeriod.Key)
	if rec.OrbitPhase.Set && (rec.OrbitPhase.Value < 0 || rec.OrbitPhase.Value >= 1) {
		sc.Report(diag.CodeInvalidType, rec.OrbitPhase.Key, diag.OutcomeDropped,
			"phase must be in [0,1)", "got", rec.OrbitPhase.Value)
		rec.OrbitPhase = normalize.Num{}
	}
	if rec.Pos.Set && len(rec.Pos.Values) != 3 {
		sc.Report(diag.CodeInvalidType, "posAU", diag.OutcomeDropped,
			"position must have exactly 3 components", "len", len(rec.Pos.Values))
		rec.Pos = normalize.Triple{}
	}
	return true
}

// Planet validates one planet and its moons in place.
func Planet(rec *normalize.PlanetRec, sc diag.Scope) bool {
	ok := requireText(sc, rec.Name, "name")
	ok = requireNum(sc, rec.A, "aAU") && ok
	ok = requireNum(sc, rec.Period, "periodDays") && ok
	ok = requireNum(sc, rec.Radius, "radiusEarth") && ok
	if !ok {
		return false
	}
	if !positiveRequired(sc, rec.A, "aAU", true) ||
		!positiveRequired(sc, rec.Period, "periodDays", false) ||
		!positiveRequired(sc, rec.Radius, "radiusEarth", false) {
		return false
	}
	if !colorOK(sc, rec.Color, "color") {
		rec.Color = normalize.Triple{}
	}
	if rec.Ring != nil && (rec.Ring.Bad || !ringOK(sc, rec.Ring)) {
		rec.Ring = nil
	}
	nonNegative(sc, &rec.MassEarth, "massEarth")
	nonNegative(sc, &rec.Density, "density")
	nonNegative(sc, &rec.Insol, "insol")
	nonNegative(sc, &rec.EqTempK, "eqTempK")

	moons := rec.Moons[:0]
	for _, m := range rec.Moons {
		if Moon(m, sc.Child(diag.KindMoon, m.Name.Value, m.Path)) {
			moons = append(moons, m)
		}
	}
	rec.Moons = moons
	return true
}

func ringOK(sc diag.Scope, r *normalize.RingRec) bool {
	if !r.Inner.Set || !r.Outer.Set {
		if !r.Inner.Bad && !r.Outer.Bad {
			sc.Report(diag.CodeMissingRequired, "ring", diag.OutcomeDropped, "ring needs inner and outer radii")
		}
		return false
	}
	if r.Inner.Value < 0 || r.Inner.Value > r.Outer.Value {
		sc.Report(diag.CodeInvalidType, "ring", diag.OutcomeDropped,
			"ring radii must satisfy 0 <= inner <= outer", "inner", r.Inner.Value, "outer", r.Outer.Value)
		return false
	}
	if r.Alpha.Set && (r.Alpha.Value < 0 || r.Alpha.Value > 1) {
		sc.Report(diag.CodeInvalidType, "ring.alpha", diag.OutcomeDropped, "alpha must be in [0,1]", "got", r.Alpha.Value)
		return false
	}
	if !colorOK(sc, r.Color, "ring.color") {
		r.Color = normalize.Triple{}
	}
	return true
}

// Moon validates one moon in place.
func Moon(rec *normalize.MoonRec, sc diag.Scope) bool {
	ok := requireText(sc, rec.Name, "name")
	ok = requireNum(sc, rec.Period, "periodDays") && ok
	if !rec.AKm.Set && !rec.AKm.Bad {
		sc.Report(diag.CodeMissingRequired, "aKm", diag.OutcomeDropped, "moon needs aKm or aRp")
		ok = false
	} else if !rec.AKm.Set {
		ok = false
	}
	if !ok {
		return false
	}
	if !positiveRequired(sc, rec.Period, "periodDays", false) ||
		!positiveRequired(sc, rec.AKm, rec.AKm.Key, true) {
		return false
	}
	switch {
	case rec.Radius.Set && rec.Radius.Value < 0:
		sc.Report(diag.CodeInvalidType, rec.Radius.Key, diag.OutcomeDefaulted,
			rec.Radius.Key+" must not be negative; lunar radius assumed", "got", rec.Radius.Value)
		rec.Radius = normalize.Num{}
	case !rec.Radius.Set && !rec.Radius.Bad:
		sc.Report(diag.CodeMissingRequired, "radiusKm", diag.OutcomeDefaulted,
			"moon has no radiusKm or radiusEarth; lunar radius assumed")
	}
	if rec.Spin.Set && rec.Spin.Value <= 0 {
		sc.Report(diag.CodeInvalidType, "spinPeriodHours", diag.OutcomeDefaulted,
			"spinPeriodHours must be positive; using the orbital period", "got", rec.Spin.Value)
		rec.Spin = normalize.Num{}
	}
	if !colorOK(sc, rec.Color, "color") {
		rec.Color = normalize.Triple{}
	}
	return true
}

func requireText(sc diag.Scope, t normalize.Text, field string) bool {
	if t.Set {
		return true
	}
	if !t.Bad {
		sc.Report(diag.CodeMissingRequired, field, diag.OutcomeDropped, field+" is required")
	}
	return false
}

// requireNum reports a missing field unless the normalizer already reported
// an unreadable value for it.
func requireNum(sc diag.Scope, n normalize.Num, field string) bool {
	if n.Set {
		return true
	}
	if !n.Bad {
		sc.Report(diag.CodeMissingRequired, field, diag.OutcomeDropped, field+" is required")
	}
	return false
}

// positiveRequired rejects negative values, and zero unless allowZero.
func positiveRequired(sc diag.Scope, n normalize.Num, field string, allowZero bool) bool {
	if n.Value > 0 || (allowZero && n.Value == 0) {
		return true
	}
	msg := "must be positive"
	if allowZero {
		msg = "must not be negative"
	}
	sc.Report(diag.CodeInvalidType, field, diag.OutcomeDropped, field+" "+msg, "got", n.Value)
	return false
}

func nonNegative(sc diag.Scope, n *normalize.Num, field string) {
	if n.Set && n.Value < 0 {
		sc.Report(diag.CodeInvalidType, field, diag.OutcomeDropped, field+" must not be negative", "got", n.Value)
		*n = normalize.Num{}
	}
}

func colorOK(sc diag.Scope, c normalize.Triple, field string) bool {
	if !c.Set {
		return true
	}
	if len(c.Values) != 3 {
		sc.Report(diag.CodeInvalidType, field, diag.OutcomeDropped,
			"color must have exactly 3 components", "len", len(c.Values))
		return false
	}
	for _, v := range c.Values {
		if v < 0 || v > 1 {
			sc.Report(diag.CodeInvalidType, field, diag.OutcomeDropped,
				"color components must be in [0,1]", "got", c.Values)
			return false
		}
	}
	return true
}
