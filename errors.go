package starcat

import "github.com/mcs-education/starcat/internal/diag"

// Issue is a single diagnostic produced while loading a dataset.
type Issue = diag.Issue

// Issues is a collection of diagnostics that implements error.
type Issues = diag.Issues

// Kind names the entity an issue is attached to.
type Kind = diag.Kind

// Outcome records what the engine did about an issue.
type Outcome = diag.Outcome

// PathRef builds JSON Pointer paths.
type PathRef = diag.PathRef

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// Fatal: the load is aborted and the previously published dataset stays.
	CodeMalformedInput = diag.CodeMalformedInput
	CodeEmptyDataset   = diag.CodeEmptyDataset
	CodeTooLarge       = diag.CodeTooLarge

	// Entity level warnings.
	CodeMissingRequired     = diag.CodeMissingRequired
	CodeInvalidType         = diag.CodeInvalidType
	CodeConflictingEncoding = diag.CodeConflictingEncoding
	CodeUnknownEnum         = diag.CodeUnknownEnum
	CodeCardinality         = diag.CodeCardinality
	CodeDuplicateName       = diag.CodeDuplicateName
	CodeDuplicateKey        = diag.CodeDuplicateKey
	CodeDerivationSkipped   = diag.CodeDerivationSkipped
)

const (
	KindDataset = diag.KindDataset
	KindSystem  = diag.KindSystem
	KindStar    = diag.KindStar
	KindPlanet  = diag.KindPlanet
	KindMoon    = diag.KindMoon
)

const (
	OutcomeKept      = diag.OutcomeKept
	OutcomeDefaulted = diag.OutcomeDefaulted
	OutcomeDropped   = diag.OutcomeDropped
	OutcomeTruncated = diag.OutcomeTruncated
)

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues { return diag.AppendIssues(dst, more...) }

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) { return diag.AsIssues(err) }

// IsFatal reports whether err is a load-aborting error: an Issues value
// holding a single fatal issue.
func IsFatal(err error) bool {
	iss, ok := AsIssues(err)
	return ok && len(iss) == 1 && diag.IsFatalCode(iss[0].Code)
}

// IssueAt creates an Issue at the given path with provided code, message and params map.
// This is a convenience helper to improve readability at call sites with many parameters.
func IssueAt(p PathRef, code, msg string, params map[string]any) Issue {
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: params}
}
