package normalize

import (
	"testing"

	"github.com/mcs-education/starcat/internal/diag"
	eng "github.com/mcs-education/starcat/internal/engine"
	"github.com/mcs-education/starcat/model"
)

func decode(t *testing.T, js string) any {
	t.Helper()
	v, err := eng.DecodeAnyFromSource(eng.NewBytes([]byte(js)))
	if err != nil {
		t.Fatalf("decode %s: %v", js, err)
	}
	return v
}

func systemFrom(t *testing.T, js string) (*SystemRec, diag.Issues) {
	t.Helper()
	var sink diag.Issues
	obj := decode(t, js).(map[string]any)
	return System(Entry{Raw: obj, Path: diag.Root().Index(0)}, &sink), sink
}

func TestDocument_Shapes(t *testing.T) {
	var sink diag.Issues
	_, _, entries, err := Document(decode(t, `[{"name":"A"},{"name":"B"}]`), &sink)
	if err != nil || len(entries) != 2 {
		t.Fatalf("bare array: entries=%d err=%v", len(entries), err)
	}
	if entries[1].Path.Pointer() != "/1" {
		t.Fatalf("unexpected path %s", entries[1].Path)
	}

	meta, extras, entries, err := Document(decode(t,
		`{"meta":{"datasetVersion":"3","source":"NASA","custom":1},"systems":[{"name":"A"}],"note":"x"}`), &sink)
	if err != nil || len(entries) != 1 {
		t.Fatalf("container: entries=%d err=%v", len(entries), err)
	}
	if entries[0].Path.Pointer() != "/systems/0" {
		t.Fatalf("unexpected path %s", entries[0].Path)
	}
	if meta == nil || meta.DatasetVersion != "3" || meta.Source != "NASA" {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if _, ok := meta.Extras.Get("custom"); !ok {
		t.Fatalf("meta extras lost")
	}
	if _, ok := extras.Get("note"); !ok {
		t.Fatalf("top-level extras lost")
	}

	_, _, entries, err = Document(decode(t, `{"name":"Solo"}`), &sink)
	if err != nil || len(entries) != 1 || entries[0].Path.Pointer() != "/" {
		t.Fatalf("single object: %v %v", entries, err)
	}
	if len(sink) != 0 {
		t.Fatalf("expected no warnings, got %v", sink)
	}
}

func TestDocument_Fatal(t *testing.T) {
	cases := []string{`"hello"`, `42`, `{"systems":{}}`, `[{"meta":{},"systems":[]}]`}
	for _, js := range cases {
		var sink diag.Issues
		_, _, _, err := Document(decode(t, js), &sink)
		iss, ok := diag.AsIssues(err)
		if !ok || len(iss) != 1 || iss[0].Code != diag.CodeMalformedInput {
			t.Fatalf("%s: expected malformed_input, got %v", js, err)
		}
	}
}

func TestDocument_NonObjectElementDropped(t *testing.T) {
	var sink diag.Issues
	_, _, entries, err := Document(decode(t, `[1,{"name":"A"}]`), &sink)
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries=%d err=%v", len(entries), err)
	}
	if len(sink) != 1 || sink[0].Code != diag.CodeInvalidType || sink[0].Path != "/0" {
		t.Fatalf("unexpected issues %v", sink)
	}
}

func TestPlanet_SpellingPriority(t *testing.T) {
	rec, sink := systemFrom(t, `{"name":"S","planets":[
		{"name":"b","orbit":{"aAU":1},"orbitAU":2,"aAU":1,"periodDays":"365.25","radiusEarth":1}]}`)
	p := rec.Planets[0]
	if !p.A.Set || p.A.Value != 1 || p.A.Key != "orbit.aAU" {
		t.Fatalf("unexpected A %+v", p.A)
	}
	if !p.Period.Set || p.Period.Value != 365.25 {
		t.Fatalf("numeric string not accepted: %+v", p.Period)
	}
	conflicts := sink.ByCode(diag.CodeConflictingEncoding)
	if len(conflicts) != 1 {
		t.Fatalf("expected one conflict (orbitAU), got %v", sink)
	}
	if conflicts[0].Path != "/0/planets/0/orbitAU" || conflicts[0].Entity != "b" || conflicts[0].Kind != diag.KindPlanet {
		t.Fatalf("unexpected conflict %+v", conflicts[0])
	}
}

func TestPlanet_InvalidNumber(t *testing.T) {
	rec, sink := systemFrom(t, `{"name":"S","planets":[{"name":"b","aAU":1,"periodDays":10,"radiusEarth":"big"}]}`)
	p := rec.Planets[0]
	if p.Radius.Set || !p.Radius.Bad {
		t.Fatalf("expected unusable radius, got %+v", p.Radius)
	}
	if len(sink) != 1 || sink[0].Code != diag.CodeInvalidType || sink[0].Params["got"] != "string" {
		t.Fatalf("unexpected issues %v", sink)
	}
}

func TestMoon_ParentRadii(t *testing.T) {
	rec, sink := systemFrom(t, `{"name":"S","planets":[{"name":"b","aAU":1,"periodDays":10,"radiusEarth":2,
		"moons":[{"name":"M","periodDays":10,"aRp":5,"radiusEarth":0.5}]}]}`)
	m := rec.Planets[0].Moons[0]
	want := 5 * 2 * model.EarthRadiusKm
	if !m.AKm.Set || m.AKm.Value != want {
		t.Fatalf("expected aKm %v, got %+v", want, m.AKm)
	}
	if m.Radius.Value != 0.5*model.EarthRadiusKm {
		t.Fatalf("unexpected radius %+v", m.Radius)
	}
	if len(sink) != 0 {
		t.Fatalf("unexpected issues %v", sink)
	}
}

func TestMoon_BothEncodings(t *testing.T) {
	rec, sink := systemFrom(t, `{"name":"S","planets":[{"name":"b","aAU":1,"periodDays":10,"radiusEarth":1,
		"moons":[{"name":"M","periodDays":1,"aKm":1000,"aRp":3,"radiusKm":10}]}]}`)
	m := rec.Planets[0].Moons[0]
	if m.AKm.Value != 1000 || m.AKm.Key != "aKm" {
		t.Fatalf("aKm must win, got %+v", m.AKm)
	}
	c := sink.ByCode(diag.CodeConflictingEncoding)
	if len(c) != 1 || c[0].Kind != diag.KindMoon || c[0].Field != "aRp" {
		t.Fatalf("unexpected issues %v", sink)
	}
}

func TestMoon_UnusableParentRadius(t *testing.T) {
	rec, _ := systemFrom(t, `{"name":"S","planets":[{"name":"b","aAU":1,"periodDays":10,
		"moons":[{"name":"M","periodDays":1,"aRp":3,"radiusKm":10}]}]}`)
	if m := rec.Planets[0].Moons[0]; m.AKm.Set {
		t.Fatalf("aRp needs a parent radius, got %+v", m.AKm)
	}
}

func TestMoon_OverflowingScale(t *testing.T) {
	rec, sink := systemFrom(t, `{"name":"S","planets":[{"name":"b","aAU":1,"periodDays":10,"radiusEarth":1e300,
		"moons":[{"name":"M","periodDays":1,"aRp":1e300,"radiusEarth":1e306}]}]}`)
	m := rec.Planets[0].Moons[0]
	if m.AKm.Set || !m.AKm.Bad || m.Radius.Set || !m.Radius.Bad {
		t.Fatalf("overflowing conversions must be unreadable, got %+v %+v", m.AKm, m.Radius)
	}
	bad := sink.ByCode(diag.CodeInvalidType)
	if len(bad) != 2 || bad[0].Path != "/0/planets/0/moons/0/aRp" || bad[1].Field != "radiusEarth" {
		t.Fatalf("unexpected issues %v", sink)
	}
}

func TestStar_NumericGaiaID(t *testing.T) {
	rec, sink := systemFrom(t, `{"name":"S","stars":[{"name":"X","gaiaDr3Id":4472832130942575872},{"name":"Y","gaiaDr3Id":-12}]}`)
	if got := rec.Stars[0].GaiaDR3ID; got != "4472832130942575872" {
		t.Fatalf("numeric gaia id must keep every digit, got %q", got)
	}
	if rec.Stars[1].GaiaDR3ID != "" {
		t.Fatalf("negative id must be dropped, got %q", rec.Stars[1].GaiaDR3ID)
	}
	if len(sink) != 1 || sink[0].Path != "/0/stars/1/gaiaDr3Id" {
		t.Fatalf("unexpected issues %v", sink)
	}
}

func TestOrbitExtras(t *testing.T) {
	rec, sink := systemFrom(t, `{"name":"S",
		"stars":[{"name":"X","orbit":"circular"}],
		"planets":[{"name":"b","orbit":{"aAU":1,"periodDays":10,"eccentricity":0.2,"inclinationDeg":3},"radiusEarth":1},
			{"name":"c","aAU":2,"periodDays":20,"radiusEarth":1,"orbit":[1,2]}]}`)
	if v, ok := rec.Stars[0].Extras["orbit"]; !ok || v != "circular" {
		t.Fatalf("non-object star orbit must be kept, got %v", rec.Stars[0].Extras)
	}
	b := rec.Planets[0]
	if b.A.Value != 1 || b.Period.Value != 10 {
		t.Fatalf("orbit elements not read, got %+v %+v", b.A, b.Period)
	}
	orbit, ok := b.Extras["orbit"].(map[string]any)
	if !ok || len(orbit) != 2 || orbit["eccentricity"] == nil || orbit["inclinationDeg"] == nil {
		t.Fatalf("unknown planet orbit keys lost: %v", b.Extras)
	}
	if arr, ok := rec.Planets[1].Extras["orbit"].([]any); !ok || len(arr) != 2 {
		t.Fatalf("non-object planet orbit must be kept, got %v", rec.Planets[1].Extras)
	}
	bad := sink.ByCode(diag.CodeInvalidType)
	if len(bad) != 2 || bad[0].Path != "/0/stars/0/orbit" || bad[1].Path != "/0/planets/1/orbit" {
		t.Fatalf("unexpected issues %v", sink)
	}
	if bad[0].Outcome != diag.OutcomeKept {
		t.Fatalf("orbit value is kept, got %v", bad[0].Outcome)
	}
}

func TestStar_PlacementAndExtras(t *testing.T) {
	rec, sink := systemFrom(t, `{"name":"S","stars":[
		{"name":"X","orbit":{"aAU":1,"eccentricity":0.1},"posAU":[5,0,0],"gaiaDr3Id":"Gaia DR3 4472832130942575872","spectralType":"G2V"}]}`)
	s := rec.Stars[0]
	if !s.Pos.Set || len(s.Pos.Values) != 3 || s.Pos.Values[0] != 5 {
		t.Fatalf("unexpected position %+v", s.Pos)
	}
	if !s.HasOrbit() || s.OrbitA.Value != 1 {
		t.Fatalf("orbit must be kept, got %+v", s.OrbitA)
	}
	if s.GaiaDR3ID != "4472832130942575872" {
		t.Fatalf("unexpected gaia id %q", s.GaiaDR3ID)
	}
	if v, ok := s.Extras.Get("spectralType"); !ok || v != "G2V" {
		t.Fatalf("extras lost: %v", s.Extras)
	}
	orbit, ok := s.Extras["orbit"].(map[string]any)
	if !ok || orbit["eccentricity"] == nil {
		t.Fatalf("unknown orbit keys lost: %v", s.Extras)
	}
	if len(sink) != 0 {
		t.Fatalf("unexpected issues %v", sink)
	}
}

func TestSystem_HabitableForms(t *testing.T) {
	rec, _ := systemFrom(t, `{"name":"S","habitable":false}`)
	if rec.Habitable.Mode.Value != "none" {
		t.Fatalf("false must mean none, got %+v", rec.Habitable)
	}

	rec, _ = systemFrom(t, `{"name":"S","habitable":{"mode":"circumbinary","overrideAU":[0.5,1.5]}}`)
	o := rec.Habitable.Override
	if rec.Habitable.Mode.Value != "circumbinary" || o == nil || o.Bad || o.Inner.Value != 0.5 || o.Outer.Value != 1.5 {
		t.Fatalf("unexpected habitable %+v", rec.Habitable)
	}

	rec, _ = systemFrom(t, `{"name":"S","habitable":{"overrideAU":{"innerAU":0.2,"outerAU":0.4}}}`)
	if o := rec.Habitable.Override; o == nil || o.Inner.Value != 0.2 || o.Outer.Value != 0.4 {
		t.Fatalf("object override not read: %+v", rec.Habitable)
	}

	rec, sink := systemFrom(t, `{"name":"S","habitable":{"overrideAU":[1]}}`)
	if o := rec.Habitable.Override; o == nil || !o.Bad {
		t.Fatalf("expected bad override, got %+v", o)
	}
	if len(sink.ByCode(diag.CodeInvalidType)) != 1 {
		t.Fatalf("unexpected issues %v", sink)
	}
}

func TestSystem_SetsAndFlags(t *testing.T) {
	rec, sink := systemFrom(t, `{"name":" S ","aliases":["a","b","a",""],"circumbinary":1,"catalogFlags":{"x":true}}`)
	if rec.Name.Value != "S" {
		t.Fatalf("name not trimmed: %q", rec.Name.Value)
	}
	if len(rec.Aliases) != 2 || rec.Aliases[0] != "a" || rec.Aliases[1] != "b" {
		t.Fatalf("unexpected aliases %v", rec.Aliases)
	}
	if rec.Circumbinary == nil || !*rec.Circumbinary {
		t.Fatalf("expected circumbinary=true")
	}
	if _, ok := rec.CatalogFlags.Get("x"); !ok {
		t.Fatalf("catalog flags lost")
	}
	if rec.StarsGiven {
		t.Fatalf("no stars were given")
	}
	if len(sink) != 0 {
		t.Fatalf("unexpected issues %v", sink)
	}
}
