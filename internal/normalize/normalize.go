// Package normalize resolves alternate field spellings, units and placement
// encodings into one canonical record per entity. It coerces types but does
// not decide whether an entity is kept; that is the validator's job.
package normalize

import (
	"math"
	"regexp"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/mcs-education/starcat/internal/diag"
	"github.com/mcs-education/starcat/model"
)

var (
	systemKeys = keySet("name", "primaryName", "displayName", "notes", "aliases", "category",
		"circumbinary", "catalogFlags", "discoveryMethods", "habitable", "stars", "planets")
	starKeys = keySet("name", "type", "mass", "radius", "tempK", "lum", "gaiaDr3Id",
		"orbit", "orbitAU", "aAU", "periodDays", "phase", "posAU", "binaryMember")
	planetKeys = keySet("name", "aAU", "orbitAU", "orbit", "periodDays", "radiusEarth",
		"spinPeriodHours", "color", "ring", "circumbinary", "discoveryMethod", "discoveryYear",
		"massEarth", "density", "insol", "eqTempK", "detectionFlags", "moons")
	moonKeys  = keySet("name", "periodDays", "aKm", "aRp", "radiusKm", "radiusEarth", "color", "spinPeriodHours")
	orbitKeys       = keySet("aAU", "periodDays", "phase")
	planetOrbitKeys = keySet("aAU", "periodDays")
	metaKeys  = keySet("datasetVersion", "generatedAt", "source")
)

// Spelling priority for semi-major axes in AU.
var auKeys = []string{"orbit.aAU", "orbitAU", "aAU"}

// Document detects the top-level shape: a bare array of systems, an object
// with meta and systems, or a single system object. Unusable shapes return a
// fatal diag.Issues error.
func Document(v any, sink *diag.Issues) (*model.Meta, model.Extras, []Entry, error) {
	switch t := v.(type) {
	case []any:
		entries, err := arrayEntries(t, diag.Root(), sink)
		return nil, nil, entries, err
	case map[string]any:
		rawSystems, ok := t["systems"]
		if !ok {
			return nil, nil, []Entry{{Raw: t, Path: diag.Root()}}, nil
		}
		arr, ok := rawSystems.([]any)
		if !ok {
			return nil, nil, nil, diag.Fatal(diag.CodeMalformedInput, "/systems",
				"systems must be an array, got "+describe(rawSystems), nil)
		}
		sc := diag.NewScope(sink, diag.KindDataset, "", diag.Root())
		meta := Meta(t["meta"], sc)
		entries, err := arrayEntries(arr, diag.Root().Field("systems"), sink)
		return meta, extras(t, keySet("meta", "systems")), entries, err
	default:
		return nil, nil, nil, diag.Fatal(diag.CodeMalformedInput, "/",
			"top-level value must be an array of systems or an object, got "+describe(v), nil)
	}
}

func arrayEntries(arr []any, base diag.PathRef, sink *diag.Issues) ([]Entry, error) {
	entries := make([]Entry, 0, len(arr))
	for i, el := range arr {
		p := base.Index(i)
		obj, ok := el.(map[string]any)
		if !ok {
			diag.NewScope(sink, diag.KindSystem, "", p).Report(diag.CodeInvalidType, "", diag.OutcomeDropped,
				"system entry must be an object", "got", describe(el))
			continue
		}
		_, hasMeta := obj["meta"]
		_, hasSystems := obj["systems"]
		if hasMeta && hasSystems {
			return nil, diag.Fatal(diag.CodeMalformedInput, p.Pointer(),
				"dataset container nested inside a system array", nil)
		}
		entries = append(entries, Entry{Raw: obj, Path: p})
	}
	return entries, nil
}

// Meta reads the opaque dataset metadata.
func Meta(v any, sc diag.Scope) *model.Meta {
	if v == nil {
		return nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		sc.Report(diag.CodeInvalidType, "meta", diag.OutcomeDropped, "expected an object", "got", describe(v))
		return nil
	}
	msc := sc.Child(diag.KindDataset, "", sc.Path.Field("meta"))
	m := &model.Meta{
		DatasetVersion: text(raw, msc, "datasetVersion").Value,
		GeneratedAt:    text(raw, msc, "generatedAt").Value,
		Source:         text(raw, msc, "source").Value,
		Extras:         extras(raw, metaKeys),
	}
	return m
}

// System normalizes one system and everything it owns.
func System(e Entry, sink *diag.Issues) *SystemRec {
	raw := e.Raw
	sc := diag.NewScope(sink, diag.KindSystem, "", e.Path)
	rec := &SystemRec{Path: e.Path}
	rec.Name = text(raw, sc, "name")
	sc = sc.Named(rec.Name.Value)

	rec.PrimaryName = text(raw, sc, "primaryName").Value
	rec.DisplayName = text(raw, sc, "displayName").Value
	rec.Notes = text(raw, sc, "notes").Value
	rec.Aliases = stringSet(raw, sc, "aliases")
	rec.Category = text(raw, sc, "category")
	rec.Circumbinary = boolean(raw, sc, "circumbinary")
	rec.CatalogFlags = object(raw, sc, "catalogFlags")
	rec.DiscoveryMethods = stringSet(raw, sc, "discoveryMethods")
	rec.Habitable = habitable(raw, sc)
	rec.Extras = extras(raw, systemKeys)

	if v, ok := lookup(raw, "stars"); ok {
		if arr, ok := v.([]any); ok {
			rec.StarsGiven = len(arr) > 0
			for i, el := range arr {
				p := e.Path.Field("stars").Index(i)
				obj, ok := el.(map[string]any)
				if !ok {
					sc.Child(diag.KindStar, "", p).Report(diag.CodeInvalidType, "", diag.OutcomeDropped,
						"star entry must be an object", "got", describe(el))
					continue
				}
				rec.Stars = append(rec.Stars, Star(obj, i, sc.Child(diag.KindStar, "", p)))
			}
		} else {
			sc.Report(diag.CodeInvalidType, "stars", diag.OutcomeDefaulted, "expected an array", "got", describe(v))
		}
	}

	if v, ok := lookup(raw, "planets"); ok {
		if arr, ok := v.([]any); ok {
			for i, el := range arr {
				p := e.Path.Field("planets").Index(i)
				obj, ok := el.(map[string]any)
				if !ok {
					sc.Child(diag.KindPlanet, "", p).Report(diag.CodeInvalidType, "", diag.OutcomeDropped,
						"planet entry must be an object", "got", describe(el))
					continue
				}
				rec.Planets = append(rec.Planets, Planet(obj, i, sc.Child(diag.KindPlanet, "", p)))
			}
		} else {
			sc.Report(diag.CodeInvalidType, "planets", diag.OutcomeDropped, "expected an array", "got", describe(v))
		}
	}
	return rec
}

func habitable(raw map[string]any, sc diag.Scope) HabitableRec {
	v, ok := lookup(raw, "habitable")
	if !ok {
		return HabitableRec{}
	}
	switch t := v.(type) {
	case bool:
		if t {
			return HabitableRec{Mode: Text{Value: "auto", Set: true}}
		}
		return HabitableRec{Mode: Text{Value: "none", Set: true}}
	case string:
		return HabitableRec{Mode: text(raw, sc, "habitable")}
	case map[string]any:
		hsc := sc.Child(sc.Kind, sc.Entity, sc.Path.Field("habitable"))
		h := HabitableRec{Mode: text(t, hsc, "mode")}
		if ov, ok := lookup(t, "overrideAU"); ok {
			h.Override = override(ov, hsc)
		}
		return h
	default:
		sc.Report(diag.CodeInvalidType, "habitable", diag.OutcomeDropped, "expected an object", "got", describe(v))
		return HabitableRec{}
	}
}

// override accepts [inner, outer] or {"inner":…, "outer":…}.
func override(v any, sc diag.Scope) *OverrideRec {
	switch t := v.(type) {
	case []any:
		if len(t) != 2 {
			sc.Report(diag.CodeInvalidType, "overrideAU", diag.OutcomeDropped,
				"expected [inner, outer]", "len", len(t))
			return &OverrideRec{Bad: true}
		}
		in, ok1 := toFloat(t[0])
		out, ok2 := toFloat(t[1])
		if !ok1 || !ok2 {
			sc.Report(diag.CodeInvalidType, "overrideAU", diag.OutcomeDropped, "expected two finite numbers")
			return &OverrideRec{Bad: true}
		}
		return &OverrideRec{
			Inner: Num{Value: in, Key: "overrideAU.0", Set: true},
			Outer: Num{Value: out, Key: "overrideAU.1", Set: true},
		}
	case map[string]any:
		osc := sc.Child(sc.Kind, sc.Entity, sc.Path.Field("overrideAU"))
		o := &OverrideRec{
			Inner: number(t, osc, "inner", "innerAU"),
			Outer: number(t, osc, "outer", "outerAU"),
		}
		if !o.Inner.Set || !o.Outer.Set {
			if !o.Inner.Bad && !o.Outer.Bad {
				sc.Report(diag.CodeMissingRequired, "overrideAU", diag.OutcomeDropped, "override needs inner and outer bounds")
			}
			o.Bad = true
		}
		return o
	default:
		sc.Report(diag.CodeInvalidType, "overrideAU", diag.OutcomeDropped,
			"expected [inner, outer]", "got", describe(v))
		return &OverrideRec{Bad: true}
	}
}

// digitRun finds the numeric source id; "Gaia DR3 123" yields "123".
var (
	digitRun = regexp.MustCompile(`[0-9]+`)
	idDigits = regexp.MustCompile(`^[0-9]+$`)
)

// Star normalizes one star record.
func Star(raw map[string]any, index int, sc diag.Scope) *StarRec {
	rec := &StarRec{Path: sc.Path, Index: index}
	rec.Name = text(raw, sc, "name")
	sc = sc.Named(rec.Name.Value)
	rec.Type = text(raw, sc, "type")
	rec.Mass = number(raw, sc, "mass")
	rec.Radius = number(raw, sc, "radius")
	rec.TempK = number(raw, sc, "tempK")
	rec.Lum = number(raw, sc, "lum")
	rec.OrbitA = number(raw, sc, auKeys...)
	rec.OrbitPeriod = number(raw, sc, "orbit.periodDays", "periodDays")
	rec.OrbitPhase = number(raw, sc, "orbit.phase", "phase")
	rec.Pos = triple(raw, sc, "posAU")
	if b := boolean(raw, sc, "binaryMember"); b != nil {
		rec.BinaryMember = *b
	}
	if v, ok := lookup(raw, "gaiaDr3Id"); ok {
		rec.GaiaDR3ID = gaiaID(v, sc)
	}
	rec.Extras = orbitExtras(raw, orbitKeys, sc, extras(raw, starKeys))
	return rec
}

// gaiaID keeps the last digit run of a string identifier. Numeric ids are
// taken from their literal digits since they exceed float64 precision.
func gaiaID(v any, sc diag.Scope) string {
	switch t := v.(type) {
	case string:
		if runs := digitRun.FindAllString(t, -1); len(runs) > 0 {
			return runs[len(runs)-1]
		}
		return ""
	case gojson.Number:
		if idDigits.MatchString(string(t)) {
			return string(t)
		}
	case int:
		if t >= 0 {
			return strconv.Itoa(t)
		}
	case int64:
		if t >= 0 {
			return strconv.FormatInt(t, 10)
		}
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		if t >= 0 && t < 1<<53 && t == math.Trunc(t) {
			return strconv.FormatFloat(t, 'f', 0, 64)
		}
	}
	sc.Report(diag.CodeInvalidType, "gaiaDr3Id", diag.OutcomeDropped, "expected an identifier", "got", describe(v))
	return ""
}

// orbitExtras adds the unrecognized part of an orbit object to out. An orbit
// that is not an object is kept verbatim and reported.
func orbitExtras(raw map[string]any, known map[string]struct{}, sc diag.Scope, out model.Extras) model.Extras {
	v, ok := raw["orbit"]
	if !ok || v == nil {
		return out
	}
	var kept any
	if o, ok := v.(map[string]any); ok {
		rest := extras(o, known)
		if rest == nil {
			return out
		}
		kept = map[string]any(rest)
	} else {
		sc.Report(diag.CodeInvalidType, "orbit", diag.OutcomeKept,
			"expected an object; value kept as an extra", "got", describe(v))
		kept = v
	}
	if out == nil {
		out = make(model.Extras)
	}
	out["orbit"] = kept
	return out
}

// Planet normalizes one planet and its moons.
func Planet(raw map[string]any, index int, sc diag.Scope) *PlanetRec {
	rec := &PlanetRec{Path: sc.Path, Index: index}
	rec.Name = text(raw, sc, "name")
	sc = sc.Named(rec.Name.Value)
	rec.A = number(raw, sc, auKeys...)
	rec.Period = number(raw, sc, "orbit.periodDays", "periodDays")
	rec.Radius = number(raw, sc, "radiusEarth")
	rec.Spin = number(raw, sc, "spinPeriodHours")
	rec.Color = triple(raw, sc, "color")
	rec.Circumbinary = boolean(raw, sc, "circumbinary")
	rec.DiscoveryMethod = text(raw, sc, "discoveryMethod").Value
	rec.DiscoveryYear = number(raw, sc, "discoveryYear")
	rec.MassEarth = number(raw, sc, "massEarth")
	rec.Density = number(raw, sc, "density")
	rec.Insol = number(raw, sc, "insol")
	rec.EqTempK = number(raw, sc, "eqTempK")
	rec.DetectionFlags = object(raw, sc, "detectionFlags")
	rec.Extras = orbitExtras(raw, planetOrbitKeys, sc, extras(raw, planetKeys))

	if v, ok := lookup(raw, "ring"); ok {
		rec.Ring = ring(v, sc)
	}

	if v, ok := lookup(raw, "moons"); ok {
		arr, ok := v.([]any)
		if !ok {
			sc.Report(diag.CodeInvalidType, "moons", diag.OutcomeDropped, "expected an array", "got", describe(v))
			return rec
		}
		for i, el := range arr {
			p := sc.Path.Field("moons").Index(i)
			msc := sc.Child(diag.KindMoon, "", p)
			obj, ok := el.(map[string]any)
			if !ok {
				msc.Report(diag.CodeInvalidType, "", diag.OutcomeDropped, "moon entry must be an object", "got", describe(el))
				continue
			}
			rec.Moons = append(rec.Moons, Moon(obj, i, rec, msc))
		}
	}
	return rec
}

func ring(v any, sc diag.Scope) *RingRec {
	raw, ok := v.(map[string]any)
	if !ok {
		sc.Report(diag.CodeInvalidType, "ring", diag.OutcomeDropped, "expected an object", "got", describe(v))
		return &RingRec{Bad: true}
	}
	rsc := sc.Child(sc.Kind, sc.Entity, sc.Path.Field("ring"))
	return &RingRec{
		Inner: number(raw, rsc, "inner", "innerRp"),
		Outer: number(raw, rsc, "outer", "outerRp"),
		Tilt:  number(raw, rsc, "tilt", "tiltDeg"),
		Alpha: number(raw, rsc, "alpha"),
		Color: triple(raw, rsc, "color"),
	}
}

// Moon normalizes one moon. Distances and radii end up in km; aRp is scaled
// by the parent's radius, so an unusable parent radius leaves AKm unset.
func Moon(raw map[string]any, index int, parent *PlanetRec, sc diag.Scope) *MoonRec {
	rec := &MoonRec{Path: sc.Path, Index: index}
	rec.Name = text(raw, sc, "name")
	sc = sc.Named(rec.Name.Value)
	rec.Period = number(raw, sc, "periodDays")
	rec.Spin = number(raw, sc, "spinPeriodHours")
	rec.Color = triple(raw, sc, "color")
	rec.Extras = extras(raw, moonKeys)

	parentKm := parent.Radius.Value * model.EarthRadiusKm
	rec.AKm = exclusive(raw, sc, "aKm", 1, "aRp", parentKm, parent.Radius.Set)
	rec.Radius = exclusive(raw, sc, "radiusKm", 1, "radiusEarth", model.EarthRadiusKm, true)
	return rec
}

// exclusive resolves two mutually exclusive encodings of one quantity. The
// primary key wins; both present is reported as a conflicting encoding.
func exclusive(raw map[string]any, sc diag.Scope, primary string, pf float64, alt string, af float64, altUsable bool) Num {
	p := scaled(number(raw, sc, primary), pf)
	a := number(raw, sc, alt)
	if p.Set && a.Set {
		sc.Report(diag.CodeConflictingEncoding, alt, diag.OutcomeKept,
			primary+" and "+alt+" are mutually exclusive; "+primary+" wins",
			"kept", primary, "ignored", alt)
	}
	if p.Set {
		return p
	}
	if a.Set {
		if !altUsable {
			return Num{Key: alt}
		}
		a = scaled(a, af)
		if math.IsInf(a.Value, 0) || math.IsNaN(a.Value) {
			sc.Report(diag.CodeInvalidType, alt, diag.OutcomeDropped,
				alt+" overflows when converted to km", "factor", af)
			return Num{Key: alt, Bad: true}
		}
		return a
	}
	return Num{Bad: p.Bad || a.Bad}
}
