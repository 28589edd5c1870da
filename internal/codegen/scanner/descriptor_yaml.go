package scanner

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlBlock struct {
	ID         string      `yaml:"id"`
	Label      string      `yaml:"label"`
	Category   string      `yaml:"category"`
	Parameters []yamlParam `yaml:"parameters"`
	Inputs     []yamlPort  `yaml:"inputs"`
	Outputs    []yamlPort  `yaml:"outputs"`
	Templates  struct {
		Make      string   `yaml:"make"`
		Callbacks []string `yaml:"callbacks"`
	} `yaml:"templates"`
}

type yamlParam struct {
	ID               string           `yaml:"id"`
	Label            string           `yaml:"label"`
	DType            string           `yaml:"dtype"`
	Default          any              `yaml:"default"`
	Hide             string           `yaml:"hide"`
	Options          []any            `yaml:"options"`
	OptionLabels     []any            `yaml:"option_labels"`
	OptionAttributes map[string][]any `yaml:"option_attributes"`
}

type yamlPort struct {
	Label        string `yaml:"label"`
	ID           string `yaml:"id"`
	Domain       string `yaml:"domain"`
	DType        string `yaml:"dtype"`
	Multiplicity any    `yaml:"multiplicity"`
	Optional     any    `yaml:"optional"`
}

func parseYAMLBlock(data []byte) (*Record, error) {
	var b yamlBlock
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("yaml block: %w", err)
	}
	rec := &Record{
		Key:  b.ID,
		Name: b.Label,
		Make: strings.TrimSpace(b.Templates.Make),
	}
	if b.Category != "" {
		rec.Categories = append(rec.Categories, b.Category)
	}
	for _, cb := range b.Templates.Callbacks {
		if cb = strings.TrimSpace(cb); cb != "" {
			rec.Callbacks = append(rec.Callbacks, cb)
		}
	}
	for _, p := range b.Parameters {
		pd := ParamDesc{
			Key:  p.ID,
			Name: p.Label,
			Type: p.DType,
			Hide: p.Hide,
		}
		if p.Default != nil {
			pd.Value = scalarString(p.Default)
			pd.HasValue = true
		}
		attrs := make([]string, 0, len(p.OptionAttributes))
		for a := range p.OptionAttributes {
			attrs = append(attrs, a)
		}
		sort.Strings(attrs)
		for i, o := range p.Options {
			opt := Option{Key: scalarString(o)}
			opt.Name = opt.Key
			if i < len(p.OptionLabels) {
				opt.Name = scalarString(p.OptionLabels[i])
			}
			for _, a := range attrs {
				if vals := p.OptionAttributes[a]; i < len(vals) {
					opt.Opts = append(opt.Opts, a+":"+scalarString(vals[i]))
				}
			}
			pd.Options = append(pd.Options, opt)
		}
		rec.Params = append(rec.Params, pd)
	}
	rec.Sinks = yamlPorts(b.Inputs, "in")
	rec.Sources = yamlPorts(b.Outputs, "out")
	return rec, nil
}

func yamlPorts(in []yamlPort, fallback string) []Port {
	var out []Port
	for _, p := range in {
		port := Port{
			Name:     p.Label,
			Type:     p.DType,
			Optional: isTruthy(scalarString(p.Optional)),
		}
		if port.Name == "" {
			port.Name = p.ID
		}
		if port.Name == "" {
			port.Name = fallback
		}
		if p.Domain == "message" {
			port.Type = "message"
		}
		if p.Multiplicity != nil {
			port.NPorts = scalarString(p.Multiplicity)
		}
		out = append(out, port)
	}
	return out
}

// parseYAMLTree walks a block tree of the form
//
//	'[Core]':
//	- Math Operators:
//	  - blocks_add_xx
func parseYAMLTree(data []byte, add func(block, category string)) error {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("yaml tree: %w", err)
	}
	names := make([]string, 0, len(root))
	for k := range root {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, n := range names {
		walkYAMLCat(root[n], []string{n}, add)
	}
	return nil
}

func walkYAMLCat(v any, path []string, add func(block, category string)) {
	items, ok := v.([]any)
	if !ok {
		return
	}
	for _, item := range items {
		switch t := item.(type) {
		case string:
			add(t, strings.Join(path, "/"))
		case map[string]any:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walkYAMLCat(t[k], append(append([]string{}, path...), k), add)
			}
		}
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(t)
	}
}
