package meta

import (
	"sort"

	"github.com/pothosware/grpothosgen/internal/codegen/common"
	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
)

// Metadata holds all scanned information needed for code generation of one
// module. Shared between the generator orchestrator and the block binder.
type Metadata struct {
	Module      string
	Headers     []*scanner.Header
	Descriptors *scanner.Descriptors
	Enums       *Enums
}

// Enums accumulates the enumerations discovered while scanning headers.
// It is append-only during the scan and read-only afterwards.
type Enums struct {
	list    []scanner.Enum
	seen    map[string]bool
	headers map[string]bool
}

func NewEnums() *Enums {
	return &Enums{
		seen:    map[string]bool{},
		headers: map[string]bool{},
	}
}

// Add records every enum declared in h. The header path is kept when at
// least one enum was found so the generated source can include it.
func (e *Enums) Add(h *scanner.Header) {
	for _, en := range h.Enums {
		q := en.QualifiedName()
		if e.seen[q] || len(en.Values) == 0 {
			continue
		}
		e.seen[q] = true
		e.list = append(e.list, en)
		e.headers[h.Path] = true
	}
}

// Len reports how many distinct enums were recorded.
func (e *Enums) Len() int {
	return len(e.list)
}

// All returns the enums sorted by name, then by qualified name.
func (e *Enums) All() []scanner.Enum {
	out := append([]scanner.Enum(nil), e.list...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].QualifiedName() < out[j].QualifiedName()
	})
	return out
}

// Headers returns the sorted paths of headers that declared enums.
func (e *Enums) Headers() []string {
	out := make([]string, 0, len(e.headers))
	for h := range e.headers {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Lookup finds the first recorded enum, in discovery order, whose name
// appears as an identifier inside the C++ type ctype.
func (e *Enums) Lookup(ctype string) (scanner.Enum, bool) {
	for _, en := range e.list {
		if common.ContainsIdent(ctype, en.Name) {
			return en, true
		}
	}
	return scanner.Enum{}, false
}
