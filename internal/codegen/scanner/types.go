package scanner

import "strings"

// Base is one entry of a class' base-specifier list.
type Base struct {
	Name    string `json:"name"`    // As written, e.g. "gr::sync_block"
	Access  string `json:"access"`  // "public", "protected" or "private"
	Virtual bool   `json:"virtual"` // Declared with the virtual keyword
}

// Param is a single function parameter.
type Param struct {
	Name    string `json:"name"`
	Type    string `json:"type"`              // Declared type without the name, e.g. "const std::vector<float> &"
	Default string `json:"default,omitempty"` // Default argument expression, if any
}

// Method is a public member function of a class.
type Method struct {
	Name        string  `json:"name"`
	Return      string  `json:"return,omitempty"` // Declared return type, empty for constructors
	Static      bool    `json:"static"`
	Virtual     bool    `json:"virtual"`
	Constructor bool    `json:"constructor"`
	Destructor  bool    `json:"destructor"`
	Params      []Param `json:"params"`
	Doc         string  `json:"doc,omitempty"`
}

// Function is a free function declared at namespace scope.
type Function struct {
	Name      string  `json:"name"`
	Namespace string  `json:"namespace"`
	Params    []Param `json:"params"`
	Doc       string  `json:"doc,omitempty"`
}

// Enum is an enumeration found in a header.
type Enum struct {
	Name      string   `json:"name"`
	Namespace string   `json:"namespace"` // Enclosing scope, e.g. "gr::fft::window"
	Scoped    bool     `json:"scoped"`    // enum class
	Values    []string `json:"values"`
	Header    string   `json:"header"`
}

// QualifiedName returns the enum type name including its scope.
func (e Enum) QualifiedName() string {
	return qualify(e.Namespace, e.Name)
}

// QualifiedValue returns the spelling of value v usable outside the enum scope.
func (e Enum) QualifiedValue(v string) string {
	if e.Scoped {
		return qualify(e.QualifiedName(), v)
	}
	return qualify(e.Namespace, v)
}

// Class is a class or struct declaration with a body.
type Class struct {
	Name      string   `json:"name"`
	Namespace string   `json:"namespace"` // e.g. "gr::blocks"
	Bases     []Base   `json:"bases"`
	Methods   []Method `json:"methods"` // Public methods only
	Doc       string   `json:"doc,omitempty"`
}

// QualifiedName returns namespace::name.
func (c Class) QualifiedName() string {
	return qualify(c.Namespace, c.Name)
}

// Header holds everything extracted from one header file.
type Header struct {
	Path      string     `json:"path"`
	Classes   []Class    `json:"classes"`
	Functions []Function `json:"functions"`
	Enums     []Enum     `json:"enums"`
}

func qualify(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "::" + name
}

// NamespaceSegments splits "gr::blocks" into its parts, dropping empty ones.
func NamespaceSegments(ns string) []string {
	var out []string
	for _, s := range strings.Split(ns, "::") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
