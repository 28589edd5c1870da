package generator

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/template"

	"github.com/pothosware/grpothosgen/internal/codegen/common"
	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
)

//go:embed registration.tmpl.cpp
var registrationTemplate string

func tplFuncs() template.FuncMap {
	return template.FuncMap{
		"namespaces": scanner.NamespaceSegments,
		"reverse": func(s []string) []string {
			out := slices.Clone(s)
			slices.Reverse(out)
			return out
		},
		"hexEscape": hexEscape,
		"ident":     ident,
	}
}

// hexEscape writes every byte of s as a \xNN escape so arbitrary text can
// sit inside a C string literal.
func hexEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 4)
	for i := 0; i < len(s); i++ {
		fmt.Fprintf(&b, `\x%02x`, s[i])
	}
	return b.String()
}

// ident maps s onto a C identifier.
func ident(s string) string {
	b := []byte(s)
	for i, c := range b {
		if !common.IsIdentByte(c) {
			b[i] = '_'
		}
	}
	return string(b)
}

// Render executes the registration template, or the template stored at
// path when it is not empty.
func Render(m *Model, path string) ([]byte, error) {
	text := registrationTemplate
	name := "registration"
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
		text, name = string(data), path
	}
	tmpl, err := template.New(name).Funcs(tplFuncs()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, m); err != nil {
		return nil, fmt.Errorf("render %s: %w", m.Module, err)
	}
	return buf.Bytes(), nil
}
