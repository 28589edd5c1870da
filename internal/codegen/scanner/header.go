package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// HeaderExtensions lists the file extensions treated as C++ headers.
var HeaderExtensions = []string{".h", ".hh", ".hpp"}

var apiDeclRe = regexp.MustCompile(`(?m)^\s*(?:class|struct)\s+([A-Z][A-Z0-9_]*)\s`)

// HeaderScanner extracts classes, free functions and enums from C++ headers
// using the tree-sitter C++ grammar. It is not safe for concurrent use.
type HeaderScanner struct {
	parser *sitter.Parser
}

// NewHeaderScanner creates a scanner with its own tree-sitter parser.
func NewHeaderScanner() *HeaderScanner {
	p := sitter.NewParser()
	p.SetLanguage(cpp.GetLanguage())
	return &HeaderScanner{parser: p}
}

// Close releases the underlying parser.
func (s *HeaderScanner) Close() {
	s.parser.Close()
}

// ScanFile reads and scans a single header.
func (s *HeaderScanner) ScanFile(ctx context.Context, path string) (*Header, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return s.Scan(ctx, path, src)
}

// Scan parses header source. path is only recorded, never opened.
func (s *HeaderScanner) Scan(ctx context.Context, path string, src []byte) (*Header, error) {
	src = stripAPIDecls(src)
	tree, err := s.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	w := &walker{src: src, h: &Header{Path: path}}
	w.scope(tree.RootNode(), nil)
	for i := range w.h.Enums {
		w.h.Enums[i].Header = path
	}
	return w.h, nil
}

// ScanHeaders scans every header below root in lexical path order.
// Files that fail to parse are reported through skip and left out.
func ScanHeaders(ctx context.Context, root string, skip func(path string, err error)) ([]*Header, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		for _, e := range HeaderExtensions {
			if ext == e {
				paths = append(paths, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk headers: %w", err)
	}
	sort.Strings(paths)

	s := NewHeaderScanner()
	defer s.Close()

	var out []*Header
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		h, err := s.ScanFile(ctx, abs)
		if err != nil {
			if skip != nil {
				skip(abs, err)
			}
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// stripAPIDecls removes export macros such as BLOCKS_API that sit between
// "class" and the class name; the grammar cannot see through them.
func stripAPIDecls(src []byte) []byte {
	seen := map[string]bool{}
	for _, m := range apiDeclRe.FindAllSubmatch(src, -1) {
		seen[string(m[1])] = true
	}
	if len(seen) == 0 {
		return src
	}
	toks := make([]string, 0, len(seen))
	for t := range seen {
		toks = append(toks, regexp.QuoteMeta(t))
	}
	sort.Strings(toks)
	re := regexp.MustCompile(`\b(?:` + strings.Join(toks, "|") + `)\b`)
	return re.ReplaceAll(src, nil)
}

type walker struct {
	src []byte
	h   *Header
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

// scope walks the named children of a translation unit, namespace body or
// preprocessor block.
func (w *walker) scope(n *sitter.Node, ns []string) {
	var doc []string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "comment":
			doc = append(doc, w.text(c))
			continue
		case "namespace_definition":
			inner := append(append([]string{}, ns...), NamespaceSegments(w.text(c.ChildByFieldName("name")))...)
			if body := c.ChildByFieldName("body"); body != nil {
				w.scope(body, inner)
			}
		case "linkage_specification":
			if body := c.ChildByFieldName("body"); body != nil {
				w.scope(body, ns)
			}
		case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif", "preproc_elifdef":
			w.scope(c, ns)
		case "class_specifier", "struct_specifier":
			w.class(c, ns, doc)
		case "enum_specifier":
			w.enum(c, ns, "")
		case "type_definition":
			if t := c.ChildByFieldName("type"); t != nil && t.Type() == "enum_specifier" {
				w.enum(t, ns, w.text(c.ChildByFieldName("declarator")))
			}
		case "declaration":
			w.declaration(c, ns, doc)
		}
		doc = nil
	}
}

func (w *walker) declaration(n *sitter.Node, ns []string, doc []string) {
	if t := n.ChildByFieldName("type"); t != nil {
		switch t.Type() {
		case "class_specifier", "struct_specifier":
			w.class(t, ns, doc)
			return
		case "enum_specifier":
			w.enum(t, ns, "")
			return
		}
	}
	fd := functionDeclarator(n.ChildByFieldName("declarator"))
	if fd == nil {
		return
	}
	name := fd.ChildByFieldName("declarator")
	if name == nil || name.Type() != "identifier" {
		return
	}
	w.h.Functions = append(w.h.Functions, Function{
		Name:      w.text(name),
		Namespace: strings.Join(ns, "::"),
		Params:    w.params(fd.ChildByFieldName("parameters")),
		Doc:       strings.Join(doc, "\n"),
	})
}

func (w *walker) class(n *sitter.Node, ns []string, doc []string) {
	nameNode := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	if nameNode == nil || body == nil {
		return
	}
	name := w.text(nameNode)
	if strings.ContainsAny(name, "<:") {
		return
	}

	access := "private"
	if n.Type() == "struct_specifier" {
		access = "public"
	}

	cls := Class{
		Name:      name,
		Namespace: strings.Join(ns, "::"),
		Doc:       strings.Join(doc, "\n"),
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.Type() == "base_class_clause" {
			cls.Bases = w.bases(c, access)
		}
	}

	inner := append(append([]string{}, ns...), name)
	current := access
	var pending []string
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "comment":
			pending = append(pending, w.text(c))
			continue
		case "access_specifier":
			current = strings.TrimSuffix(strings.TrimSpace(w.text(c)), ":")
		case "field_declaration", "declaration", "function_definition":
			if t := c.ChildByFieldName("type"); t != nil && t.Type() == "enum_specifier" {
				if current == "public" {
					w.enum(t, inner, "")
				}
				break
			}
			if current != "public" {
				break
			}
			if m, ok := w.method(c, name); ok {
				m.Doc = strings.Join(pending, "\n")
				cls.Methods = append(cls.Methods, m)
			}
		}
		pending = nil
	}
	w.h.Classes = append(w.h.Classes, cls)
}

func (w *walker) bases(n *sitter.Node, defaultAccess string) []Base {
	var out []Base
	access := defaultAccess
	virtual := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "access_specifier", "public", "protected", "private":
			access = strings.TrimSpace(w.text(c))
		case "virtual":
			virtual = true
		case "type_identifier", "qualified_identifier", "template_type":
			out = append(out, Base{Name: w.text(c), Access: access, Virtual: virtual})
		case ",":
			access = defaultAccess
			virtual = false
		}
	}
	return out
}

func (w *walker) method(n *sitter.Node, className string) (Method, bool) {
	fd := functionDeclarator(n.ChildByFieldName("declarator"))
	if fd == nil {
		return Method{}, false
	}
	nameNode := fd.ChildByFieldName("declarator")
	if nameNode == nil || nameNode.Type() == "operator_name" {
		return Method{}, false
	}
	m := Method{
		Name:   w.text(nameNode),
		Return: normalizeSpace(w.text(n.ChildByFieldName("type"))),
		Params: w.params(fd.ChildByFieldName("parameters")),
	}
	switch {
	case nameNode.Type() == "destructor_name" || strings.HasPrefix(m.Name, "~"):
		m.Destructor = true
	case m.Name == className && n.ChildByFieldName("type") == nil:
		m.Constructor = true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "storage_class_specifier":
			if w.text(c) == "static" {
				m.Static = true
			}
		case "virtual", "virtual_function_specifier":
			m.Virtual = true
		}
	}
	return m, true
}

func (w *walker) params(list *sitter.Node) []Param {
	if list == nil {
		return nil
	}
	var out []Param
	for i := 0; i < int(list.NamedChildCount()); i++ {
		c := list.NamedChild(i)
		if c == nil {
			continue
		}
		if c.Type() != "parameter_declaration" && c.Type() != "optional_parameter_declaration" {
			continue
		}
		decl := c.ChildByFieldName("declarator")
		if decl == nil {
			typ := normalizeSpace(w.text(c))
			if typ == "void" {
				continue
			}
			out = append(out, Param{Name: fmt.Sprintf("arg%d", len(out)), Type: typ})
			continue
		}
		name := w.text(declaratorName(decl))
		full := string(w.src[c.StartByte():decl.EndByte()])
		typ := full
		if idx := strings.LastIndex(full, name); name != "" && idx >= 0 {
			typ = full[:idx] + full[idx+len(name):]
		}
		p := Param{Name: name, Type: normalizeSpace(typ)}
		if p.Name == "" {
			p.Name = fmt.Sprintf("arg%d", len(out))
		}
		if def := c.ChildByFieldName("default_value"); def != nil {
			p.Default = w.text(def)
		}
		out = append(out, p)
	}
	return out
}

func (w *walker) enum(n *sitter.Node, ns []string, name string) {
	if name == "" {
		name = w.text(n.ChildByFieldName("name"))
	}
	body := n.ChildByFieldName("body")
	if name == "" || body == nil {
		return
	}
	e := Enum{Name: name, Namespace: strings.Join(ns, "::")}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && (c.Type() == "class" || c.Type() == "struct") {
			e.Scoped = true
		}
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		c := body.NamedChild(i)
		if c == nil || c.Type() != "enumerator" {
			continue
		}
		e.Values = append(e.Values, w.text(c.ChildByFieldName("name")))
	}
	w.h.Enums = append(w.h.Enums, e)
}

// functionDeclarator unwraps pointer and reference declarators down to the
// function declarator, or returns nil when n does not declare a function.
func functionDeclarator(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "function_declarator":
			return n
		case "pointer_declarator", "reference_declarator":
			next := n.ChildByFieldName("declarator")
			if next == nil && n.NamedChildCount() > 0 {
				next = n.NamedChild(int(n.NamedChildCount()) - 1)
			}
			n = next
		default:
			return nil
		}
	}
	return nil
}

// declaratorName finds the identifier a parameter declarator introduces.
func declaratorName(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "identifier", "field_identifier":
			return n
		}
		next := n.ChildByFieldName("declarator")
		if next == nil && n.NamedChildCount() > 0 {
			next = n.NamedChild(int(n.NamedChildCount()) - 1)
		}
		n = next
	}
	return nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
