package starcat

import "github.com/mcs-education/starcat/internal/build"

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement while tokenizing.
type Strictness struct {
	OnDuplicateKey Severity // Ignore, Warn (last value wins) or Error (fatal).
}

// Defaults applied by DefaultLoadOpt.
const (
	DefaultMaxDepth  = 64
	DefaultMaxBytes  = 32 << 20
	DefaultMaxBodies = build.DefaultMaxBodies
)

// LoadOpt bundles load options. A zero MaxDepth or MaxBytes disables that
// limit; a zero MaxBodies selects DefaultMaxBodies.
type LoadOpt struct {
	Strictness Strictness
	MaxDepth   int
	MaxBytes   int64
	MaxBodies  int
}

// DefaultLoadOpt is used when Load is called without options.
func DefaultLoadOpt() LoadOpt {
	return LoadOpt{
		Strictness: Strictness{OnDuplicateKey: Warn},
		MaxDepth:   DefaultMaxDepth,
		MaxBytes:   DefaultMaxBytes,
		MaxBodies:  DefaultMaxBodies,
	}
}

func resolveLoadOpt(opts []LoadOpt) LoadOpt {
	if len(opts) == 0 {
		return DefaultLoadOpt()
	}
	return opts[len(opts)-1]
}
