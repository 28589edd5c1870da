// Package generator drives one generation pass per module: scan headers and
// descriptors, bind block classes, compose meta blocks and render the
// registration source.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/pothosware/grpothosgen/internal/codegen/blocks"
	"github.com/pothosware/grpothosgen/internal/codegen/common"
	"github.com/pothosware/grpothosgen/internal/codegen/filter"
	"github.com/pothosware/grpothosgen/internal/codegen/meta"
	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
	"github.com/pothosware/grpothosgen/internal/log"
)

// ErrMissingPath is returned when a required input directory does not exist.
var ErrMissingPath = errors.New("required path does not exist")

// Stdout selects standard output as the generation target.
const Stdout = "stdout"

// Options configures a Generator.
type Options struct {
	Prefix        string // Installation prefix of the scanned library
	IncludeSubdir string // Directory below <prefix>/include holding module headers
	GRCDir        string // Descriptor directory relative to the prefix
	OutDir        string // Output directory, or Stdout
	Template      string // Template file overriding the built-in one
	Blocklist     *filter.Blocklist
	StrictTypes   bool
}

// Result summarizes one generated module.
type Result struct {
	Module        string
	Output        string
	Written       bool
	Factories     int
	MetaFactories int
	Enums         int
	Registrations int
}

type Generator struct {
	opts   Options
	logger *slog.Logger
	report log.Reporter
	ranker common.Ranker
}

func New(opts Options, logger *slog.Logger, report log.Reporter) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{
		opts:   opts,
		logger: logger,
		report: report,
		ranker: common.NewRanker(),
	}
}

// IncludeRoot is the directory generated #include lines are relative to.
func (g *Generator) IncludeRoot() string {
	return filepath.Join(g.opts.Prefix, "include")
}

// HeaderDir is the header tree of module.
func (g *Generator) HeaderDir(module string) string {
	return filepath.Join(g.IncludeRoot(), g.opts.IncludeSubdir, module)
}

// DescriptorDir is the descriptor tree shared by all modules.
func (g *Generator) DescriptorDir() string {
	return filepath.Join(g.opts.Prefix, g.opts.GRCDir)
}

// CheckPaths verifies the input directories of module exist.
func (g *Generator) CheckPaths(module string) error {
	for _, dir := range []string{g.DescriptorDir(), g.HeaderDir(module)} {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingPath, dir)
		}
	}
	return nil
}

// Scan collects headers, enums and descriptors of module.
func (g *Generator) Scan(ctx context.Context, module string) (*meta.Metadata, error) {
	if err := g.CheckPaths(module); err != nil {
		return nil, err
	}
	md := &meta.Metadata{Module: module, Enums: meta.NewEnums()}

	g.logger.Debug("Scanning headers", "dir", g.HeaderDir(module))
	headers, err := scanner.ScanHeaders(ctx, g.HeaderDir(module), func(path string, err error) {
		g.report.Warning("Inspect %s failed with %v", path, err)
	})
	if err != nil {
		return nil, fmt.Errorf("scan headers: %w", err)
	}
	md.Headers = headers
	for _, h := range headers {
		md.Enums.Add(h)
	}
	g.logger.Info("Scanned headers", "module", module, "headers", len(headers), "enums", md.Enums.Len())

	g.logger.Debug("Loading descriptors", "dir", g.DescriptorDir())
	descs, err := scanner.LoadDescriptors(g.DescriptorDir(), module)
	if err != nil {
		return nil, fmt.Errorf("load descriptors: %w", err)
	}
	skipped := make([]string, 0, len(descs.Skipped))
	for p := range descs.Skipped {
		skipped = append(skipped, p)
	}
	sort.Strings(skipped)
	for _, p := range skipped {
		g.report.Warning("Descriptor %s skipped: %v", p, descs.Skipped[p])
	}
	md.Descriptors = descs
	g.logger.Info("Loaded descriptors", "module", module, "records", len(descs.Records))
	return md, nil
}

// Bind matches and unifies every bindable class of md and feeds the result
// into a new Assembler. Per-symbol and per-family failures are reported
// and skipped.
func (g *Generator) Bind(ctx context.Context, md *meta.Metadata, flt *filter.Filter) (*Assembler, error) {
	asm := NewAssembler(g.IncludeRoot(), md.Enums)
	u := &blocks.Unifier{
		Enums:       md.Enums,
		Methods:     flt,
		Ranker:      g.ranker,
		Report:      g.report,
		StrictTypes: g.opts.StrictTypes,
	}
	keys := md.Descriptors.Keys()

	groups := map[string][]blocks.Member{}
	for _, hdr := range md.Headers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, cls := range hdr.Classes {
			if !flt.IsBindable(cls) {
				continue
			}
			key, err := blocks.Match(cls, keys)
			if err != nil {
				g.report.Warning("%s: %v", md.Module, err)
				continue
			}
			fn, ok := blocks.FindFactory(cls, hdr)
			if !ok {
				g.report.Warning("%s: %v: %s", md.Module, blocks.ErrNoFactory, cls.QualifiedName())
				continue
			}
			rec := md.Descriptors.Records[key]
			f, d, err := u.Unify(cls, fn, u.BindableMethods(cls), rec, md.Descriptors.Categories[rec.Key])
			if err != nil {
				g.report.Warning("%s: %v", md.Module, err)
				continue
			}
			f.Header = hdr.Path
			groups[key] = append(groups[key], blocks.Member{Factory: f, Desc: d})
		}
	}

	families := make([]string, 0, len(groups))
	for k := range groups {
		families = append(families, k)
	}
	sort.Strings(families)

	c := &blocks.Composer{Ranker: g.ranker}
	for _, family := range families {
		members := groups[family]
		if len(members) == 1 {
			asm.AddBlock(members[0].Factory, members[0].Desc)
			continue
		}
		mf, d, err := c.Compose(family, md.Descriptors.Records[family], members)
		if err != nil {
			g.report.Error("%s: %v", md.Module, err)
			continue
		}
		asm.AddMeta(mf, d, members)
	}
	return asm, nil
}

// Generate runs the whole pass for module and writes the result.
func (g *Generator) Generate(ctx context.Context, module string) (*Result, error) {
	out := g.OutputPath(module)
	g.report.Header("grpothosgen begin: prefix=%s, target=%s, out=%s", g.opts.Prefix, module, out)

	flt := filter.New(g.opts.Blocklist, g.report)
	var asm *Assembler
	if !flt.TargetAllowed(module) {
		if err := g.CheckPaths(module); err != nil {
			return nil, err
		}
		asm = NewAssembler(g.IncludeRoot(), meta.NewEnums())
	} else {
		md, err := g.Scan(ctx, module)
		if err != nil {
			return nil, err
		}
		asm, err = g.Bind(ctx, md, flt)
		if err != nil {
			return nil, err
		}
	}

	model, err := asm.Model(module)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Module:        module,
		Output:        out,
		Factories:     len(model.Factories),
		MetaFactories: len(model.MetaFactories),
		Enums:         len(model.Enums),
		Registrations: len(model.Registrations),
	}
	g.report.Notice("%s: Total factories        %d", module, res.Factories)
	g.report.Notice("%s: Total meta-factories   %d", module, res.MetaFactories)
	g.report.Notice("%s: Total enumerations     %d", module, res.Enums)
	g.report.Notice("%s: Total registrations    %d", module, res.Registrations)

	body, err := Render(model, g.opts.Template)
	if err != nil {
		return nil, err
	}
	doc := Stamp(body)
	if out == Stdout {
		if _, err := os.Stdout.Write(doc); err != nil {
			return nil, fmt.Errorf("write output: %w", err)
		}
		res.Written = true
		return res, nil
	}
	res.Written, err = WriteIfChanged(out, doc)
	if err != nil {
		return nil, err
	}
	g.logger.Info("Generated registration", "module", module, "output", out, "written", res.Written)
	return res, nil
}

// OutputPath returns the file written for module, or Stdout.
func (g *Generator) OutputPath(module string) string {
	if g.opts.OutDir == "" || g.opts.OutDir == Stdout {
		return Stdout
	}
	return filepath.Join(g.opts.OutDir, module+"_registration.cpp")
}
