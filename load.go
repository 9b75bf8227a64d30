package starcat

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mcs-education/starcat/internal/build"
	"github.com/mcs-education/starcat/internal/diag"
	eng "github.com/mcs-education/starcat/internal/engine"
	"github.com/mcs-education/starcat/internal/normalize"
	"github.com/mcs-education/starcat/internal/validate"
	"github.com/mcs-education/starcat/model"
)

// Result is a successfully loaded dataset and the warnings collected on the
// way. Warnings keep input order.
type Result struct {
	Dataset  *model.Dataset
	Warnings Issues
}

// Load reads, normalizes, validates and builds one dataset. It either
// returns a Result (possibly with warnings) or a fatal Issues error holding
// exactly one issue. Errors from reading the source itself are returned
// wrapped, and ctx cancellation is checked between systems.
func Load(ctx context.Context, src Source, opts ...LoadOpt) (*Result, error) {
	opt := resolveLoadOpt(opts)
	data, err := src.Read(opt.MaxBytes)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return nil, diag.Fatal(CodeMalformedInput, "/", de.Error(), err)
		}
		return nil, fmt.Errorf("starcat: read %s: %w", src.Name(), err)
	}
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, diag.Fatal(CodeTooLarge, "/",
			fmt.Sprintf("input exceeds %d bytes", opt.MaxBytes), nil)
	}

	var warnings Issues
	v, err := decode(data, opt, &warnings)
	if err != nil {
		return nil, err
	}
	meta, extras, entries, err := normalize.Document(v, &warnings)
	if err != nil {
		return nil, err
	}

	ds := &model.Dataset{Meta: meta, Systems: make([]model.System, 0, len(entries)), Extras: extras}
	names := make(map[string]string, len(entries))
	bopt := build.Options{MaxBodies: opt.MaxBodies}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := normalize.System(e, &warnings)
		if !validate.System(rec, &warnings) {
			continue
		}
		if first, dup := names[rec.Name.Value]; dup {
			diag.NewScope(&warnings, KindSystem, rec.Name.Value, rec.Path).Report(
				CodeDuplicateName, "name", OutcomeDropped,
				fmt.Sprintf("system %q already defined at %s", rec.Name.Value, first),
				"name", rec.Name.Value, "first", first)
			continue
		}
		names[rec.Name.Value] = rec.Path.Pointer()
		ds.Systems = append(ds.Systems, build.System(rec, bopt, &warnings))
	}
	if len(ds.Systems) == 0 {
		return nil, diag.Fatal(CodeEmptyDataset, "/", "no valid system in dataset", nil)
	}
	return &Result{Dataset: ds, Warnings: warnings}, nil
}

// LoadBytes is Load over an in-memory document.
func LoadBytes(ctx context.Context, b []byte, opts ...LoadOpt) (*Result, error) {
	return Load(ctx, JSONBytes(b), opts...)
}

// LoadReader is Load over a reader.
func LoadReader(ctx context.Context, r io.Reader, opts ...LoadOpt) (*Result, error) {
	return Load(ctx, JSONReader(r), opts...)
}

func decode(data []byte, opt LoadOpt, warnings *Issues) (any, error) {
	eo := eng.EnforceOptions{MaxDepth: opt.MaxDepth}
	switch opt.Strictness.OnDuplicateKey {
	case Warn:
		eo.OnDuplicate = eng.DupWarn
		eo.IssueSink = func(si eng.SimpleIssue) {
			*warnings = append(*warnings, Issue{
				Path:    si.Path,
				Code:    si.Code,
				Message: si.Message,
				Kind:    KindDataset,
				Outcome: OutcomeKept,
			})
		}
	case Error:
		eo.OnDuplicate = eng.DupError
	}
	v, err := eng.DecodeAnyFromSource(eng.WrapWithEnforcement(eng.NewBytes(data), eo))
	if err != nil {
		return nil, toFatal(err)
	}
	return v, nil
}

// toFatal maps token engine errors to the single-issue fatal form.
func toFatal(err error) Issues {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return diag.Fatal(ie.Code, ie.Path, ie.Message, err)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return diag.Fatal(CodeMalformedInput, "/", "unexpected end of input", err)
	}
	return diag.Fatal(CodeMalformedInput, "/", "invalid JSON: "+err.Error(), err)
}
