package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Option is one choice of an enumerated descriptor parameter.
type Option struct {
	Name string   `json:"name"`           // Display label
	Key  string   `json:"key"`            // Value expression
	Opts []string `json:"opts,omitempty"` // Auxiliary "attr:value" annotations, e.g. "fcn:cc", "size:gr.sizeof_gr_complex"
}

// ParamDesc is a user-facing parameter declared by a descriptor.
type ParamDesc struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Value    string   `json:"value,omitempty"`
	HasValue bool     `json:"hasValue"`
	Hide     string   `json:"hide,omitempty"`
	Options  []Option `json:"options,omitempty"`
}

// Port is a sink or source declared by a descriptor.
type Port struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	NPorts   string `json:"nports,omitempty"` // Reference to the parameter holding the port count
	Optional bool   `json:"optional,omitempty"`
}

// Message reports whether the port carries messages instead of a stream.
func (p Port) Message() bool {
	return p.Type == "message"
}

// Record is the typed form of one block descriptor file.
type Record struct {
	Key        string      `json:"key"`
	Name       string      `json:"name"`
	Categories []string    `json:"categories,omitempty"`
	Make       string      `json:"make"`
	Params     []ParamDesc `json:"params"`
	Callbacks  []string    `json:"callbacks,omitempty"`
	Sinks      []Port      `json:"sinks,omitempty"`
	Sources    []Port      `json:"sources,omitempty"`
	File       string      `json:"file"`
}

// Param looks up a declared parameter by key.
func (r *Record) Param(key string) (*ParamDesc, bool) {
	for i := range r.Params {
		if r.Params[i].Key == key {
			return &r.Params[i], true
		}
	}
	return nil, false
}

// ParamKeys returns the declared parameter keys in declaration order.
func (r *Record) ParamKeys() []string {
	keys := make([]string, 0, len(r.Params))
	for _, p := range r.Params {
		keys = append(keys, p.Key)
	}
	return keys
}

// Descriptors is everything loaded from a descriptor directory for one module.
type Descriptors struct {
	Records    map[string]*Record  // file key -> record
	Categories map[string][]string // block key -> category paths from block trees
	Skipped    map[string]error    // file path -> load failure
}

// Keys returns the record keys in sorted order.
func (d *Descriptors) Keys() []string {
	keys := make([]string, 0, len(d.Records))
	for k := range d.Records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const (
	xmlExt       = ".xml"
	blockYAMLExt = ".block.yml"
	treeYAMLExt  = ".tree.yml"
)

// FileKey derives the record key from a descriptor file name.
func FileKey(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{blockYAMLExt, treeYAMLExt, xmlExt} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadDescriptors loads every descriptor of module found below dir: files
// named <module>_*.xml or <module>_*.block.yml, plus block trees
// (<module>_*.xml rooted at <cat>, <module>*.tree.yml).
func LoadDescriptors(dir, module string) (*Descriptors, error) {
	d := &Descriptors{
		Records:    map[string]*Record{},
		Categories: map[string][]string{},
		Skipped:    map[string]error{},
	}
	var paths []string
	err := filepath.WalkDir(dir, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			return nil
		}
		base := e.Name()
		switch {
		case strings.HasPrefix(base, module+"_") && (strings.HasSuffix(base, xmlExt) || strings.HasSuffix(base, blockYAMLExt)):
			paths = append(paths, path)
		case strings.HasPrefix(base, module) && strings.HasSuffix(base, treeYAMLExt):
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk descriptors: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			d.Skipped[path] = err
			continue
		}
		if err := d.add(path, data); err != nil {
			d.Skipped[path] = err
		}
	}
	return d, nil
}

func (d *Descriptors) add(path string, data []byte) error {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, treeYAMLExt):
		return parseYAMLTree(data, d.addCategory)
	case strings.HasSuffix(base, blockYAMLExt):
		rec, err := parseYAMLBlock(data)
		if err != nil {
			return err
		}
		d.addRecord(path, rec)
		return nil
	default:
		root, err := xmlRoot(data)
		if err != nil {
			return err
		}
		if root == "cat" {
			return parseXMLTree(data, d.addCategory)
		}
		rec, err := parseXMLBlock(data)
		if err != nil {
			return err
		}
		d.addRecord(path, rec)
		return nil
	}
}

func (d *Descriptors) addRecord(path string, rec *Record) {
	rec.File = path
	key := FileKey(path)
	if rec.Key == "" {
		rec.Key = key
	}
	d.Records[key] = rec
}

func (d *Descriptors) addCategory(blockKey, category string) {
	for _, c := range d.Categories[blockKey] {
		if c == category {
			return
		}
	}
	d.Categories[blockKey] = append(d.Categories[blockKey], category)
}
