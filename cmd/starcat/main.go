package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/mcs-education/starcat"
	"github.com/mcs-education/starcat/i18n"
	"github.com/mcs-education/starcat/internal/config"
	"github.com/mcs-education/starcat/internal/logger"
	"github.com/mcs-education/starcat/internal/reload"
	"github.com/mcs-education/starcat/internal/server"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "validate":
		return validateCmd(args[1:], stdout, stderr)
	case "summary":
		return summaryCmd(args[1:], stdout, stderr)
	case "serve":
		return serveCmd(args[1:], stderr)
	default:
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "starcat CLI\n\nUsage:\n  starcat validate [-format text|json|yaml] [-lang en|ja] [-config file] file...\n  starcat summary [-config file] file\n  starcat serve [-config file]\n\nNotes:\n  - Files ending in .yaml or .yml are read as YAML, everything else as JSON.\n  - validate exits 1 when any file fails to load.")
}

// loadConfig reads the optional config file and applies the language.
func loadConfig(path string, lang string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lang != "" {
		cfg.Lang = lang
	}
	i18n.SetLanguage(cfg.Lang)
	return cfg, nil
}

func validateCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var format, lang, cfgPath string
	fs.StringVar(&format, "format", "text", "output format: text, json or yaml")
	fs.StringVar(&lang, "lang", "", "message language: en or ja")
	fs.StringVar(&cfgPath, "config", "", "YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	if format != "text" && format != "json" && format != "yaml" {
		fmt.Fprintf(stderr, "unknown format %q\n", format)
		return 2
	}
	cfg, err := loadConfig(cfgPath, lang)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	ctx := context.Background()
	reports := make([]fileReport, 0, fs.NArg())
	code := 0
	for _, path := range fs.Args() {
		res, err := starcat.Load(ctx, starcat.FileSource(path), cfg.LoadOpt())
		rep := newFileReport(path, res, err, cfg.Lang)
		if !rep.OK {
			code = 1
		}
		reports = append(reports, rep)
	}
	if err := writeReports(stdout, format, reports); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	return code
}

func summaryCmd(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cfgPath string
	fs.StringVar(&cfgPath, "config", "", "YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	cfg, err := loadConfig(cfgPath, "")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	res, err := starcat.Load(context.Background(), starcat.FileSource(fs.Arg(0)), cfg.LoadOpt())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := writeSummary(stdout, res); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	return 0
}

func serveCmd(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cfgPath string
	fs.StringVar(&cfgPath, "config", "", "YAML config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := loadConfig(cfgPath, "")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := starcat.NewCatalog(starcat.WithLogger(slog.Default()), starcat.WithLoadOpt(cfg.LoadOpt()))
	if cfg.Dataset.Path != "" {
		src := starcat.FileSource(cfg.Dataset.Path)
		if _, err := cat.Load(ctx, src); err != nil {
			slog.Error("Initial dataset load failed", "path", cfg.Dataset.Path, "error", err)
		}
		if cfg.Reload.Enabled {
			r, err := reload.New(cat, src, cfg.Reload.Schedule)
			if err != nil {
				slog.Error("Failed to schedule reload", "error", err)
				return 1
			}
			r.Start(ctx)
			defer r.Stop()
		}
	}

	if err := server.New(cat, cfg).ListenAndServe(ctx); err != nil {
		slog.Error("HTTP server failed", "error", err)
		return 1
	}
	return 0
}
