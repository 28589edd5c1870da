// Package blocks reconciles scanned C++ block classes with their GRC
// descriptors into block descriptions, factories and meta factories.
package blocks

import (
	"encoding/json"
	"errors"
	"strings"
)

// MaxArgs is the largest number of arguments a bound callable may take.
const MaxArgs = 8

var (
	ErrNotFound     = errors.New("no descriptor match")
	ErrNoFactory    = errors.New("no factory function")
	ErrTooManyArgs  = errors.New("too many factory parameters")
	ErrTypeConflict = errors.New("parameter type conflict")
	ErrNoTypeParam  = errors.New("no type parameter")
	ErrBadMetaPath  = errors.New("meta block path has no type suffix")
)

// Call kinds.
const (
	Setter      = "setter"
	Initializer = "initializer"
)

// Preview modes.
const (
	PreviewEnable  = "enable"
	PreviewDisable = "disable"
	PreviewValid   = "valid"
)

// Option is one entry of a parameter's choice list.
type Option struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Param is a unified block parameter.
type Param struct {
	Key          string         `json:"key"`
	Name         string         `json:"name,omitempty"`
	Default      any            `json:"-"`
	HasDefault   bool           `json:"-"`
	Preview      string         `json:"preview,omitempty"`
	WidgetType   string         `json:"widgetType,omitempty"`
	WidgetKwargs map[string]any `json:"widgetKwargs,omitempty"`
	Options      []Option       `json:"options,omitempty"`
	Desc         []string       `json:"desc,omitempty"`
}

// MarshalJSON emits "default" whenever a default is set, including "" and false.
func (p Param) MarshalJSON() ([]byte, error) {
	type alias Param
	out := struct {
		alias
		Default *any `json:"default,omitempty"`
	}{alias: alias(p)}
	if p.HasDefault {
		d := p.Default
		out.Default = &d
	}
	return json.Marshal(out)
}

// SetDefault sets the default value.
func (p *Param) SetDefault(v any) {
	p.Default = v
	p.HasDefault = true
}

// ClearDefault removes the default so the GUI picks one.
func (p *Param) ClearDefault() {
	p.Default = nil
	p.HasDefault = false
}

func (p Param) clone() Param {
	out := p
	if p.WidgetKwargs != nil {
		out.WidgetKwargs = make(map[string]any, len(p.WidgetKwargs))
		for k, v := range p.WidgetKwargs {
			out.WidgetKwargs[k] = v
		}
	}
	out.Options = append([]Option(nil), p.Options...)
	out.Desc = append([]string(nil), p.Desc...)
	return out
}

// Call is a method invocation bound to parameter keys.
type Call struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
	Type string   `json:"type"`
}

// Desc is the block description serialized into the documentation registry.
type Desc struct {
	Path       string   `json:"path"`
	Keywords   []string `json:"keywords"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Params     []Param  `json:"params"`
	Calls      []Call   `json:"calls"`
	Args       []string `json:"args"`
	Docs       []string `json:"docs"`
}

// Clone returns a deep copy.
func (d *Desc) Clone() *Desc {
	out := *d
	out.Keywords = append([]string{}, d.Keywords...)
	out.Categories = append([]string{}, d.Categories...)
	out.Args = append([]string{}, d.Args...)
	out.Docs = append([]string{}, d.Docs...)
	out.Params = make([]Param, len(d.Params))
	for i, p := range d.Params {
		out.Params[i] = p.clone()
	}
	out.Calls = make([]Call, len(d.Calls))
	for i, c := range d.Calls {
		out.Calls[i] = Call{Name: c.Name, Args: append([]string{}, c.Args...), Type: c.Type}
	}
	return &out
}

// Param looks up a parameter by key.
func (d *Desc) Param(key string) (*Param, bool) {
	for i := range d.Params {
		if d.Params[i].Key == key {
			return &d.Params[i], true
		}
	}
	return nil, false
}

// JSON encodes the description without HTML escaping.
func (d *Desc) JSON() (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// Factory describes the generated wrapper around a block's make function.
type Factory struct {
	Namespace     string
	ClassName     string
	Name          string
	Path          string
	FunctionPath  string   // Fully qualified make function
	ExportedArgs  []string // Declarations in the generated factory signature
	InternalArgs  []string // Expressions passed to the make function
	ExportedTypes []string // C++ type of each exported argument
	Methods       []string // Methods registered as callables
	Probes        []string // Getters registered as probes
	Header        string
}

// Signature joins the exported arguments.
func (f *Factory) Signature() string {
	return strings.Join(f.ExportedArgs, ", ")
}

// Call joins the internal arguments.
func (f *Factory) Call() string {
	return strings.Join(f.InternalArgs, ", ")
}

// SubFactory is one dispatch entry of a meta factory.
type SubFactory struct {
	Name         string
	InternalArgs []string
}

// Call joins the argument conversions.
func (s SubFactory) Call() string {
	return strings.Join(s.InternalArgs, ", ")
}

// MetaFactory dispatches on a type tag to one of several factories.
type MetaFactory struct {
	Name         string
	Path         string
	Namespace    string
	TypeKey      string
	ExportedArgs []string
	SubFactories []SubFactory
}

// Signature joins the exported arguments.
func (m *MetaFactory) Signature() string {
	return strings.Join(m.ExportedArgs, ", ")
}

// Registration binds a registry path to a factory function.
type Registration struct {
	Name      string
	Path      string
	Namespace string
}
