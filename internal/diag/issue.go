// Package diag holds the issue model shared by every load stage. The root
// package re-exports it so callers never import internal packages.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes.
const (
	// Fatal: the whole load is aborted.
	CodeMalformedInput = "malformed_input"
	CodeEmptyDataset   = "empty_dataset"
	CodeTooLarge       = "too_large"

	// Entity level: the entity or one of its subfields is dropped or defaulted.
	CodeMissingRequired     = "missing_required_field"
	CodeInvalidType         = "invalid_field_type"
	CodeConflictingEncoding = "conflicting_encoding"
	CodeUnknownEnum         = "unknown_enum_value"
	CodeCardinality         = "cardinality_exceeded"
	CodeDuplicateName       = "duplicate_name"
	CodeDuplicateKey        = "duplicate_key"
	CodeDerivationSkipped   = "derivation_skipped"
)

// Kind names the entity an issue is attached to.
type Kind string

const (
	KindDataset Kind = "dataset"
	KindSystem  Kind = "system"
	KindStar    Kind = "star"
	KindPlanet  Kind = "planet"
	KindMoon    Kind = "moon"
)

// Outcome records what the engine did about an issue.
type Outcome string

const (
	OutcomeKept      Outcome = "kept"
	OutcomeDefaulted Outcome = "defaulted"
	OutcomeDropped   Outcome = "dropped"
	OutcomeTruncated Outcome = "truncated"
)

// Issue is a single diagnostic produced while loading a dataset.
type Issue struct {
	Path    string  `json:"path" yaml:"path"` // JSON Pointer into the input (for example: /systems/0/planets/2/aAU).
	Code    string  `json:"code" yaml:"code"`
	Message string  `json:"message" yaml:"message"`
	Kind    Kind    `json:"kind" yaml:"kind"`
	Entity  string  `json:"entity,omitempty" yaml:"entity,omitempty"` // Entity name when known.
	Field   string  `json:"field,omitempty" yaml:"field,omitempty"`   // Wire field name when the issue concerns a single field.
	Outcome Outcome `json:"outcome" yaml:"outcome"`
	Cause   error   `json:"-" yaml:"-"`
	// Params carries structured parameters (e.g., {"limit":16, "got":20})
	// for i18n and observability.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Issues is a collection of diagnostics that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. malformed_input at /
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Message != "" {
			fmt.Fprintf(b, ": %s", it.Message)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// ByCode returns the issues carrying the given code, in order.
func (iss Issues) ByCode(code string) Issues {
	var out Issues
	for _, it := range iss {
		if it.Code == code {
			out = append(out, it)
		}
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// IsFatalCode reports whether code aborts a whole load.
func IsFatalCode(code string) bool {
	switch code {
	case CodeMalformedInput, CodeEmptyDataset, CodeTooLarge:
		return true
	}
	return false
}

// Fatal builds the single-issue error returned when a load is aborted.
func Fatal(code, path, msg string, cause error) Issues {
	if path == "" {
		path = "/"
	}
	return Issues{{Path: path, Code: code, Message: msg, Kind: KindDataset, Outcome: OutcomeDropped, Cause: cause}}
}
