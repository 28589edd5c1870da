package filter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// Blocklist names modules, namespaces, classes and methods that are never
// bound, each with a comment explaining why. Bases extends the allowlist of
// processing-block base classes.
type Blocklist struct {
	Targets    map[string]string `json:"targets" yaml:"targets" toml:"targets"`
	Namespaces map[string]string `json:"namespaces" yaml:"namespaces" toml:"namespaces"`
	Classes    map[string]string `json:"classes" yaml:"classes" toml:"classes"`
	Methods    map[string]string `json:"methods" yaml:"methods" toml:"methods"`
	Bases      []string          `json:"bases" yaml:"bases" toml:"bases"`
}

// DefaultBases are the processing-block base classes a bindable class must
// derive from publicly.
var DefaultBases = []string{"block", "sync_block", "sync_interpolator", "sync_decimator"}

// Default returns the built-in blocklist.
func Default() *Blocklist {
	return &Blocklist{
		Targets: map[string]string{
			"gnuradio-runtime": "no blocks here",
			"gnuradio-pmt":     "no blocks here",
			"gnuradio-qtgui":   "compiler errors with binding functions",
			"gnuradio-uhd":     "covered by the SDR plugins",
			"runtime":          "no blocks here",
			"pmt":              "no blocks here",
			"qtgui":            "compiler errors with binding functions",
			"uhd":              "covered by the SDR plugins",
		},
		Namespaces: map[string]string{},
		Classes: map[string]string{
			"gr::blocks::multiply_matrix_cc": "missing symbol at link time",
			"gr::blocks::multiply_matrix_ff": "runtime memory corruption",
			"gr::blocks::ctrlport_probe_c":   "not built by default",
		},
		Methods: map[string]string{},
	}
}

// Merge overlays o onto b. Entries in o replace entries of the same name.
func (b *Blocklist) Merge(o *Blocklist) {
	if o == nil {
		return
	}
	b.Targets = mergeMap(b.Targets, o.Targets)
	b.Namespaces = mergeMap(b.Namespaces, o.Namespaces)
	b.Classes = mergeMap(b.Classes, o.Classes)
	b.Methods = mergeMap(b.Methods, o.Methods)
	b.Bases = append(b.Bases, o.Bases...)
}

func mergeMap(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = map[string]string{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// LoadBlocklist reads a JSON, YAML or TOML blocklist file, chosen by
// extension, and merges it over the defaults. An empty path returns the
// defaults.
func LoadBlocklist(path string) (*Blocklist, error) {
	bl := Default()
	if path == "" {
		return bl, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blocklist: %w", err)
	}
	var user Blocklist
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &user)
	case ".toml":
		err = toml.Unmarshal(data, &user)
	case ".json":
		err = json.Unmarshal(data, &user)
	default:
		return nil, fmt.Errorf("blocklist %s: unsupported format", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse blocklist %s: %w", path, err)
	}
	bl.Merge(&user)
	return bl, nil
}
