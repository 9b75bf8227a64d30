package model

import "strings"

// CategoryKind is the closed set of system categories plus one variant for
// values this engine does not know.
type CategoryKind uint8

const (
	CategorySingle CategoryKind = iota
	CategoryBinary
	CategoryMulti
	CategoryMisc
	CategoryUnrecognized
)

var categoryLabels = map[CategoryKind]string{
	CategorySingle: "Single star",
	CategoryBinary: "Binary stars",
	CategoryMulti:  "Multi stars",
	CategoryMisc:   "Miscellaneous",
}

// Category is a system category. Raw keeps the original spelling when the
// value was not recognized.
type Category struct {
	Kind CategoryKind
	Raw  string
}

// ParseCategory matches s case-insensitively against the known labels.
func ParseCategory(s string) (Category, bool) {
	t := strings.TrimSpace(s)
	for k, label := range categoryLabels {
		if strings.EqualFold(t, label) {
			return Category{Kind: k}, true
		}
	}
	return Category{Kind: CategoryUnrecognized, Raw: s}, false
}

// CategoryForStarCount derives the category from the number of stars.
func CategoryForStarCount(n int) Category {
	switch {
	case n >= 3:
		return Category{Kind: CategoryMulti}
	case n == 2:
		return Category{Kind: CategoryBinary}
	default:
		return Category{Kind: CategorySingle}
	}
}

func (c Category) String() string {
	if c.Kind == CategoryUnrecognized {
		return c.Raw
	}
	return categoryLabels[c.Kind]
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// StarKind is the closed set of star types.
type StarKind uint8

const (
	StarNormal StarKind = iota
	StarWhiteDwarf
	StarNeutron
	StarBlackHole
	StarUnrecognized
)

var starLabels = map[StarKind]string{
	StarNormal:     "star",
	StarWhiteDwarf: "white_dwarf",
	StarNeutron:    "neutron_star",
	StarBlackHole:  "black_hole",
}

// StarType is a star's type. Raw keeps the original spelling when the value
// was not recognized.
type StarType struct {
	Kind StarKind
	Raw  string
}

// ParseStarType recognizes the documented type strings.
func ParseStarType(s string) (StarType, bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	for k, label := range starLabels {
		if t == label {
			return StarType{Kind: k}, true
		}
	}
	return StarType{Kind: StarUnrecognized, Raw: s}, false
}

func (t StarType) String() string {
	if t.Kind == StarUnrecognized {
		return t.Raw
	}
	return starLabels[t.Kind]
}

func (t StarType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// HabitableModeKind selects how a habitable zone is computed.
type HabitableModeKind uint8

const (
	// HabitableAuto picks circumbinary for circumbinary systems and
	// circumprimary otherwise.
	HabitableAuto HabitableModeKind = iota
	HabitableCircumprimary
	HabitableCircumbinary
	HabitableNone
	HabitableUnrecognized
)

var habitableLabels = map[HabitableModeKind]string{
	HabitableAuto:          "auto",
	HabitableCircumprimary: "circumprimary",
	HabitableCircumbinary:  "circumbinary",
	HabitableNone:          "none",
}

// HabitableMode is the requested habitable zone mode.
type HabitableMode struct {
	Kind HabitableModeKind
	Raw  string
}

// ParseHabitableMode recognizes the documented modes.
func ParseHabitableMode(s string) (HabitableMode, bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	for k, label := range habitableLabels {
		if t == label {
			return HabitableMode{Kind: k}, true
		}
	}
	return HabitableMode{Kind: HabitableUnrecognized, Raw: s}, false
}

func (m HabitableMode) String() string {
	if m.Kind == HabitableUnrecognized {
		return m.Raw
	}
	return habitableLabels[m.Kind]
}

func (m HabitableMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// PlacementKind tags how a star's location was given.
type PlacementKind uint8

const (
	PlacementOrigin PlacementKind = iota
	PlacementOrbit
	PlacementPosition
)

func (k PlacementKind) String() string {
	switch k {
	case PlacementOrbit:
		return "orbit"
	case PlacementPosition:
		return "position"
	default:
		return "origin"
	}
}

func (k PlacementKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
