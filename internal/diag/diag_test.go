package diag

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPathRef_Pointer(t *testing.T) {
	p := Root().Field("systems").Index(2).Field("a/b~c")
	if got := p.Pointer(); got != "/systems/2/a~1b~0c" {
		t.Fatalf("unexpected pointer: %s", got)
	}
	if Root().Pointer() != "/" {
		t.Fatalf("root must render as /")
	}
	if At("/systems/0").Index(1).Pointer() != "/systems/0/1" {
		t.Fatalf("At round trip failed")
	}
}

func TestPathRef_EmptyKey(t *testing.T) {
	if got := Root().Field("a").Field("").Pointer(); got != "/a/" {
		t.Fatalf("empty key must add a segment, got %s", got)
	}
	if got := Root().Field("").Field("b").Pointer(); got != "//b" {
		t.Fatalf("unexpected pointer: %s", got)
	}
	if got := At("/a//b").Index(0).Pointer(); got != "/a//b/0" {
		t.Fatalf("At must keep empty segments, got %s", got)
	}
}

func TestPathRef_ChainSafe(t *testing.T) {
	base := Root().Field("a")
	x := base.Field("x")
	y := base.Field("y")
	if x.Pointer() != "/a/x" || y.Pointer() != "/a/y" {
		t.Fatalf("siblings share storage: %s %s", x, y)
	}
}

func TestScope_Report(t *testing.T) {
	var sink Issues
	sc := NewScope(&sink, KindPlanet, "b", Root().Index(0).Field("planets").Index(1))
	sc.Report(CodeInvalidType, "ring.alpha", OutcomeDropped, "alpha must be in [0,1]", "got", 2.0)

	if len(sink) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(sink))
	}
	it := sink[0]
	if it.Path != "/0/planets/1/ring/alpha" {
		t.Fatalf("unexpected path: %s", it.Path)
	}
	if it.Kind != KindPlanet || it.Entity != "b" || it.Field != "ring.alpha" || it.Outcome != OutcomeDropped {
		t.Fatalf("unexpected issue: %+v", it)
	}
	if it.Params["got"] != 2.0 {
		t.Fatalf("expected params to carry got=2, got %v", it.Params)
	}
}

func TestScope_ZeroValueDiscards(t *testing.T) {
	var sc Scope
	sc.Report(CodeInvalidType, "x", OutcomeDropped, "ignored")
}

func TestIssues_ErrorSummary(t *testing.T) {
	var iss Issues
	for i := 0; i < 5; i++ {
		iss = AppendIssues(iss, Issue{Code: CodeMissingRequired, Path: fmt.Sprintf("/%d", i)})
	}
	msg := iss.Error()
	if !strings.HasPrefix(msg, "missing_required_field at /0") {
		t.Fatalf("unexpected message: %s", msg)
	}
	if !strings.Contains(msg, "(total 5)") {
		t.Fatalf("expected total count in %q", msg)
	}
}

func TestFatal_AsIssues(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Fatal(CodeMalformedInput, "", "bad", nil))
	iss, ok := AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("expected one issue, got %v", err)
	}
	if iss[0].Path != "/" || iss[0].Kind != KindDataset || !IsFatalCode(iss[0].Code) {
		t.Fatalf("unexpected fatal issue: %+v", iss[0])
	}
	if _, ok := AsIssues(errors.New("plain")); ok {
		t.Fatalf("plain errors must not convert")
	}
	if IsFatalCode(CodeDuplicateName) {
		t.Fatalf("duplicate_name is a warning")
	}
}

func TestIssues_ByCode(t *testing.T) {
	iss := Issues{{Code: CodeDuplicateName}, {Code: CodeCardinality}, {Code: CodeDuplicateName}}
	if n := len(iss.ByCode(CodeDuplicateName)); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}
