package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/mcs-education/starcat"
	"github.com/mcs-education/starcat/i18n"
)

type fileReport struct {
	File        string          `json:"file" yaml:"file"`
	OK          bool            `json:"ok" yaml:"ok"`
	Systems     int             `json:"systems" yaml:"systems"`
	Bodies      int             `json:"bodies" yaml:"bodies"`
	Fingerprint string          `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Warnings    []starcat.Issue `json:"warnings" yaml:"warnings"`
	Fatal       *starcat.Issue  `json:"fatal,omitempty" yaml:"fatal,omitempty"`
	Error       string          `json:"error,omitempty" yaml:"error,omitempty"`
}

func newFileReport(path string, res *starcat.Result, err error, lang string) fileReport {
	rep := fileReport{File: path, Warnings: []starcat.Issue{}}
	if err != nil {
		if iss, ok := starcat.AsIssues(err); ok && starcat.IsFatal(err) {
			it := localize(iss[0], lang)
			rep.Fatal = &it
		} else {
			rep.Error = err.Error()
		}
		return rep
	}
	rep.OK = true
	rep.Systems = len(res.Dataset.Systems)
	rep.Bodies = res.Dataset.BodyCount()
	if fp, err := starcat.Fingerprint(res.Dataset); err == nil {
		rep.Fingerprint = fp
	}
	for _, it := range res.Warnings {
		rep.Warnings = append(rep.Warnings, localize(it, lang))
	}
	return rep
}

// localize replaces the message with the translated one for non-English
// output.
func localize(it starcat.Issue, lang string) starcat.Issue {
	if lang == "" || lang == "en" {
		return it
	}
	it.Message = i18n.T(it.Code, map[string]string{"field": it.Field})
	return it
}

func writeReports(w io.Writer, format string, reports []fileReport) error {
	switch format {
	case "json":
		enc := gojson.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(reports)
	default:
		for _, r := range reports {
			writeTextReport(w, r)
		}
		return nil
	}
}

func writeTextReport(w io.Writer, r fileReport) {
	switch {
	case r.Fatal != nil:
		fmt.Fprintf(w, "%s: FATAL %s at %s: %s\n", r.File, r.Fatal.Code, r.Fatal.Path, r.Fatal.Message)
		return
	case r.Error != "":
		fmt.Fprintf(w, "%s: ERROR %s\n", r.File, r.Error)
		return
	}
	fmt.Fprintf(w, "%s: ok (%d systems, %d bodies, %d warnings)\n", r.File, r.Systems, r.Bodies, len(r.Warnings))
	for _, it := range r.Warnings {
		subject := string(it.Kind)
		if it.Entity != "" {
			subject += fmt.Sprintf(" %q", it.Entity)
		}
		fmt.Fprintf(w, "  %s at %s [%s]: %s (%s)\n", it.Code, it.Path, subject, it.Message, it.Outcome)
	}
}

func writeSummary(w io.Writer, res *starcat.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYSTEM\tCATEGORY\tSTARS\tPLANETS\tMOONS\tHABITABLE ZONE (AU)")
	for i := range res.Dataset.Systems {
		sys := &res.Dataset.Systems[i]
		moons := sys.BodyCount() - len(sys.Planets)
		hz := "-"
		if z := sys.HabitableZone; z != nil {
			hz = fmt.Sprintf("%.3f..%.3f %s", z.InnerAU, z.OuterAU, z.Mode)
			if z.Override {
				hz += " (override)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", sys.Name, sys.Category, len(sys.Stars), len(sys.Planets), moons, hz)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if n := len(res.Warnings); n > 0 {
		fmt.Fprintf(w, "%d warnings (run validate for details)\n", n)
	}
	return nil
}
