package generator

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pothosware/grpothosgen/internal/codegen/blocks"
	"github.com/pothosware/grpothosgen/internal/codegen/common"
	"github.com/pothosware/grpothosgen/internal/codegen/meta"
	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
)

// Model is everything the registration template renders.
type Model struct {
	Generator     string
	Module        string
	Headers       []string
	Enums         []Enum
	Factories     []*blocks.Factory
	MetaFactories []*blocks.MetaFactory
	Registrations []blocks.Registration
	Docs          []Doc
}

// Enum is a discovered enumeration with a unique C identifier.
type Enum struct {
	scanner.Enum
	ID string // e.g. "gr_fft_window_win_type"
}

// Doc is the serialized description registered under a block path.
type Doc struct {
	Path string
	JSON string
}

// Assembler accumulates bound blocks and meta blocks of one module.
type Assembler struct {
	includeRoot   string
	enums         *meta.Enums
	headers       map[string]bool
	factories     map[string]*blocks.Factory
	metas         map[string]*blocks.MetaFactory
	registrations map[string]blocks.Registration
	docs          map[string]*blocks.Desc
}

func NewAssembler(includeRoot string, enums *meta.Enums) *Assembler {
	return &Assembler{
		includeRoot:   includeRoot,
		enums:         enums,
		headers:       map[string]bool{},
		factories:     map[string]*blocks.Factory{},
		metas:         map[string]*blocks.MetaFactory{},
		registrations: map[string]blocks.Registration{},
		docs:          map[string]*blocks.Desc{},
	}
}

// AddBlock records a standalone block.
func (a *Assembler) AddBlock(f *blocks.Factory, d *blocks.Desc) {
	a.addFactory(f)
	a.registrations[f.Name] = blocks.Registration{Name: f.Name, Path: f.Path, Namespace: f.Namespace}
	a.docs[d.Path] = d
}

// AddMeta records a meta block. Its members keep their factories but are
// registered only through the meta factory.
func (a *Assembler) AddMeta(mf *blocks.MetaFactory, d *blocks.Desc, members []blocks.Member) {
	for _, m := range members {
		a.addFactory(m.Factory)
	}
	a.metas[mf.Name] = mf
	a.registrations[mf.Name] = blocks.Registration{Name: mf.Name, Path: mf.Path, Namespace: mf.Namespace}
	a.docs[d.Path] = d
}

func (a *Assembler) addFactory(f *blocks.Factory) {
	a.factories[f.Name] = f
	if f.Header != "" {
		a.headers[f.Header] = true
	}
}

// Model sorts and de-duplicates everything collected so far.
func (a *Assembler) Model(module string) (*Model, error) {
	m := &Model{
		Generator: common.GeneratorID(),
		Module:    module,
	}

	headers := map[string]bool{}
	for h := range a.headers {
		headers[a.includePath(h)] = true
	}
	for _, h := range a.enums.Headers() {
		headers[a.includePath(h)] = true
	}
	m.Headers = sortedKeys(headers)

	for _, e := range a.enums.All() {
		m.Enums = append(m.Enums, Enum{Enum: e, ID: cIdent(e.QualifiedName())})
	}
	for _, k := range sortedKeys(a.factories) {
		m.Factories = append(m.Factories, a.factories[k])
	}
	for _, k := range sortedKeys(a.metas) {
		m.MetaFactories = append(m.MetaFactories, a.metas[k])
	}
	for _, k := range sortedKeys(a.registrations) {
		m.Registrations = append(m.Registrations, a.registrations[k])
	}
	for _, p := range sortedKeys(a.docs) {
		js, err := a.docs[p].JSON()
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", p, err)
		}
		m.Docs = append(m.Docs, Doc{Path: p, JSON: js})
	}
	return m, nil
}

// includePath makes a header path relative to the include root.
func (a *Assembler) includePath(h string) string {
	if rel, err := filepath.Rel(a.includeRoot, h); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(h)
}

func cIdent(qualified string) string {
	return strings.ReplaceAll(qualified, "::", "_")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
