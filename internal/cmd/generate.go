package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pothosware/grpothosgen/internal/codegen/filter"
	"github.com/pothosware/grpothosgen/internal/codegen/generator"
	"github.com/pothosware/grpothosgen/internal/log"
)

type Generate struct {
	Modules       []string `arg:"" name:"module" help:"Module names to generate, e.g. blocks or analog"`
	Prefix        string   `help:"Installation prefix of the scanned GNU Radio" required:"" env:"GRPOTHOSGEN_PREFIX"`
	Out           string   `help:"Output directory, or 'stdout'" default:"stdout" env:"GRPOTHOSGEN_OUT"`
	Log           string   `help:"Write the diagnostics stream to this file" env:"GRPOTHOSGEN_LOG"`
	Blocklist     string   `help:"JSON, YAML or TOML blocklist merged over the built-in one" type:"path" env:"GRPOTHOSGEN_BLOCKLIST"`
	Template      string   `help:"Registration template overriding the built-in one" type:"path" env:"GRPOTHOSGEN_TEMPLATE"`
	IncludeSubdir string   `help:"Directory below <prefix>/include holding module headers" default:"gnuradio" env:"GRPOTHOSGEN_INCLUDE_SUBDIR"`
	GrcDir        string   `name:"grc-dir" help:"GRC descriptor directory relative to the prefix" default:"share/gnuradio/grc/blocks" env:"GRPOTHOSGEN_GRC_DIR"`
	StrictTypes   bool     `help:"Fail a block when one parameter is bound with two different types" env:"GRPOTHOSGEN_STRICT_TYPES"`
	Color         string   `help:"Colourise diagnostics" default:"auto" enum:"auto,always,never" env:"GRPOTHOSGEN_COLOR"`
}

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return g.Execute(ctx, logger, rawLogger, os.Stderr)
}

// Execute generates every requested module, writing diagnostics to console.
func (g *Generate) Execute(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger, console io.Writer) error {
	if rawLogger == nil {
		rawLogger = log.NewRaw(nil)
	}
	if g.Log != "" {
		f, err := os.OpenFile(g.Log, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return &ConfigError{Err: fmt.Errorf("open diagnostics log: %w", err)}
		}
		defer f.Close()
		rawLogger = log.MultiRaw(rawLogger, log.NewRaw(f))
	}

	bl, err := filter.LoadBlocklist(g.Blocklist)
	if err != nil {
		return &ConfigError{Err: err}
	}

	diag := log.NewDiagnostics(console, log.ColorMode(g.Color), logger, rawLogger)
	gen := generator.New(generator.Options{
		Prefix:        g.Prefix,
		IncludeSubdir: g.IncludeSubdir,
		GRCDir:        g.GrcDir,
		OutDir:        g.Out,
		Template:      g.Template,
		Blocklist:     bl,
		StrictTypes:   g.StrictTypes,
	}, logger, diag)

	for _, module := range g.Modules {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := gen.Generate(ctx, module)
		if errors.Is(err, generator.ErrMissingPath) {
			return &ConfigError{Err: err}
		}
		if err != nil {
			return fmt.Errorf("generate %s: %w", module, err)
		}
		logger.Debug("Module done", "module", res.Module, "factories", res.Factories, "registrations", res.Registrations)
	}

	logger.Info("Generation finished",
		"modules", len(g.Modules),
		"warnings", diag.Count(log.KindWarning),
		"errors", diag.Count(log.KindError),
	)
	return nil
}
