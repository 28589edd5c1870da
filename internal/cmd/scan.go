package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pothosware/grpothosgen/internal/codegen/generator"
	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
	"github.com/pothosware/grpothosgen/internal/log"
)

type Scan struct {
	Modules       []string `arg:"" name:"module" help:"Module names to scan"`
	Prefix        string   `help:"Installation prefix of the scanned GNU Radio" required:"" env:"GRPOTHOSGEN_PREFIX"`
	Out           string   `help:"Directory receiving one JSON file per header, or 'stdout'" default:"stdout" env:"GRPOTHOSGEN_OUT"`
	IncludeSubdir string   `help:"Directory below <prefix>/include holding module headers" default:"gnuradio" env:"GRPOTHOSGEN_INCLUDE_SUBDIR"`
	GrcDir        string   `name:"grc-dir" help:"GRC descriptor directory relative to the prefix" default:"share/gnuradio/grc/blocks" env:"GRPOTHOSGEN_GRC_DIR"`
}

// Run is called by Kong when the scan command is executed.
func (s *Scan) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	return s.Execute(context.Background(), logger, rawLogger, os.Stdout, os.Stderr)
}

// Execute scans every module and dumps the parsed headers. With Out set to
// stdout the headers of all modules are written to stdout as one array.
func (s *Scan) Execute(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger, stdout, console io.Writer) error {
	diag := log.NewDiagnostics(console, log.ColorAuto, logger, rawLogger)
	gen := generator.New(generator.Options{
		Prefix:        s.Prefix,
		IncludeSubdir: s.IncludeSubdir,
		GRCDir:        s.GrcDir,
	}, logger, diag)

	var all []*scanner.Header
	for _, module := range s.Modules {
		md, err := gen.Scan(ctx, module)
		if errors.Is(err, generator.ErrMissingPath) {
			return &ConfigError{Err: err}
		}
		if err != nil {
			return fmt.Errorf("scan %s: %w", module, err)
		}
		if s.Out == generator.Stdout {
			all = append(all, md.Headers...)
			continue
		}
		for _, h := range md.Headers {
			dest := filepath.Join(s.Out, module, dumpName(gen.HeaderDir(module), h.Path))
			if err := writeJSON(dest, h); err != nil {
				return err
			}
			logger.Debug("Dumped header", "header", h.Path, "dest", dest)
		}
	}
	if s.Out != generator.Stdout {
		return nil
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if all == nil {
		all = []*scanner.Header{}
	}
	return enc.Encode(all)
}

// dumpName maps include/gnuradio/blocks/foo/bar.h onto foo_bar.json.
func dumpName(root, header string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	rel, err := filepath.Rel(root, header)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(header)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "_") + ".json"
}

func writeJSON(dest string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, append(data, '\n'), 0o644)
}
