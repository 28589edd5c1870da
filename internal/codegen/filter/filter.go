// Package filter decides which scanned classes are bindable processing blocks.
package filter

import (
	"strings"

	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
	"github.com/pothosware/grpothosgen/internal/log"
)

// Filter applies a Blocklist and the base-class allowlist. Every rejection is
// reported; none of them fail the run.
type Filter struct {
	list   *Blocklist
	bases  map[string]bool
	report log.Reporter
}

// New creates a filter. A nil list uses the defaults.
func New(list *Blocklist, report log.Reporter) *Filter {
	if list == nil {
		list = Default()
	}
	f := &Filter{list: list, bases: map[string]bool{}, report: report}
	for _, b := range append(append([]string{}, DefaultBases...), list.Bases...) {
		b = strings.TrimPrefix(b, "gr::")
		f.bases[b] = true
		f.bases["gr::"+b] = true
	}
	return f
}

// TargetAllowed reports whether module may be scanned at all.
func (f *Filter) TargetAllowed(module string) bool {
	if why, ok := f.list.Targets[module]; ok {
		f.report.Blacklist("Blacklisted target: %s (%s)", module, why)
		return false
	}
	return true
}

// IsBindable reports whether cls is a processing block that should be bound.
func (f *Filter) IsBindable(cls scanner.Class) bool {
	fq := cls.QualifiedName()
	if why, ok := f.list.Classes[fq]; ok {
		f.report.Blacklist("Blacklisted class: %s (%s)", fq, why)
		return false
	}
	if why, ok := f.list.Namespaces[cls.Namespace]; ok {
		f.report.Blacklist("Blacklisted namespace: %s (%s)", cls.Namespace, why)
		return false
	}
	for _, b := range cls.Bases {
		if b.Access != "public" {
			f.report.Notice("Skipping %s: %s base %s", fq, b.Access, b.Name)
			return false
		}
		if f.bases[b.Name] {
			return true
		}
	}
	f.report.Notice("Skipping %s: no known block base", fq)
	return false
}

// MethodAllowed reports whether a method of cls may be bound.
func (f *Filter) MethodAllowed(cls scanner.Class, method string) bool {
	fq := cls.QualifiedName() + "::" + method
	if why, ok := f.list.Methods[fq]; ok {
		f.report.Blacklist("Blacklisted method: %s (%s)", fq, why)
		return false
	}
	return true
}
