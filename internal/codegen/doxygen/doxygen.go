// Package doxygen converts doxygen comment blocks into the small HTML subset
// shown in block documentation.
package doxygen

import (
	"regexp"
	"strings"
)

// Warner receives unrecognized-marker diagnostics.
type Warner interface {
	Warning(format string, args ...any)
}

var (
	escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

	commentPrefixes = []string{"/*!", "/**", "/*", "*/", "//!", "///", "//", "*"}

	emphasisRe = regexp.MustCompile(`\\(?:em|e|a)\s+(\S+)`)
	codeWordRe = regexp.MustCompile(`\\c\s+(\S+)`)
	noopRe     = regexp.MustCompile(`\\p\s+`)
	paramRe    = regexp.MustCompile(`^\\param(?:\[[a-z, ]*\])?\s+(\w+)\s*(.*)$`)
)

// ParamDoc is the text attached to one \param entry.
type ParamDoc struct {
	Name string
	Text string
}

// Transform converts raw comment text into markup lines. Leading and
// trailing blank lines are dropped. w may be nil.
func Transform(raw string, w Warner) []string {
	t := transformer{w: w}
	for _, line := range strings.Split(raw, "\n") {
		if out, ok := t.line(line); ok {
			t.out = append(t.out, out)
		}
	}
	if t.inList {
		t.out = append(t.out, "</ul>")
	}
	return trimBlank(t.out)
}

type transformer struct {
	w      Warner
	out    []string
	inList bool
	inXML  bool
	inHTML bool
}

func (t *transformer) line(raw string) (string, bool) {
	line := stripComment(raw)

	// a span starting right after list items ends the list
	if t.inList && !t.inXML && !t.inHTML &&
		(strings.HasPrefix(line, `\xmlonly`) || strings.HasPrefix(line, `\htmlonly`)) {
		t.inList = false
		t.out = append(t.out, "</ul>")
	}

	switch {
	case t.inXML:
		if strings.Contains(line, `\endxmlonly`) {
			t.inXML = false
		}
		return "", false
	case strings.HasPrefix(line, `\xmlonly`):
		t.inXML = !strings.Contains(line, `\endxmlonly`)
		return "", false
	case strings.HasPrefix(line, `\htmlonly`):
		line = strings.TrimSpace(strings.TrimPrefix(line, `\htmlonly`))
		t.inHTML = true
		if i := strings.Index(line, `\endhtmlonly`); i >= 0 {
			line = strings.TrimSpace(line[:i] + line[i+len(`\endhtmlonly`):])
			t.inHTML = false
		}
		if line == "" {
			return "", false
		}
		return line, true
	case t.inHTML:
		if i := strings.Index(line, `\endhtmlonly`); i >= 0 {
			t.inHTML = false
			line = strings.TrimSpace(line[:i] + line[i+len(`\endhtmlonly`):])
			if line == "" {
				return "", false
			}
		}
		return line, true
	}

	line = escaper.Replace(line)

	if strings.HasPrefix(line, `\ingroup`) {
		return "", false
	}
	for _, tag := range []string{`\brief`, `\details`} {
		line = trimMarker(line, tag)
	}

	isItem := hasMarker(line, `\li`)
	if isItem {
		line = "<li>" + trimMarker(line, `\li`) + "</li>"
	}
	switch {
	case isItem && !t.inList:
		t.inList = true
		line = "<ul>" + line
	case !isItem && t.inList:
		t.inList = false
		line = "</ul>" + line
	}

	switch {
	case hasMarker(line, `\b`):
		line = "<b>" + trimMarker(line, `\b`) + "</b>"
	case hasMarker(line, `\code`):
		line = "<code>" + trimMarker(line, `\code`)
	case hasMarker(line, `\endcode`):
		line = "</code>" + trimMarker(line, `\endcode`)
	case strings.HasPrefix(line, `\f[`):
		line = "<pre>" + strings.TrimPrefix(line, `\f[`)
	case strings.HasPrefix(line, `\f]`):
		line = "</pre>" + strings.TrimPrefix(line, `\f]`)
	case hasMarker(line, `\sa`):
		line = "<i>" + trimMarker(line, `\sa`) + "</i>"
	case hasMarker(line, `\see`):
		line = "<i>" + trimMarker(line, `\see`) + "</i>"
	case hasMarker(line, `\section`):
		line = "<h2>" + sectionTitle(trimMarker(line, `\section`)) + "</h2>"
	case hasMarker(line, `\subsection`):
		line = "<h3>" + sectionTitle(trimMarker(line, `\subsection`)) + "</h3>"
	case hasMarker(line, `\returns`):
		line = "<b>Returns:</b> " + trimMarker(line, `\returns`)
	case hasMarker(line, `\return`):
		line = "<b>Returns:</b> " + trimMarker(line, `\return`)
	default:
		if m := paramRe.FindStringSubmatch(line); m != nil {
			line = strings.TrimSpace("<b>" + m[1] + "</b> " + m[2])
		}
	}

	for strings.Count(line, `\f$`) >= 2 {
		line = strings.Replace(line, `\f$`, "<pre>", 1)
		line = strings.Replace(line, `\f$`, "</pre>", 1)
	}
	line = emphasisRe.ReplaceAllString(line, "<em>$1</em>")
	line = codeWordRe.ReplaceAllString(line, "<code>$1</code>")
	line = noopRe.ReplaceAllString(line, "")

	if strings.HasPrefix(line, `\`) && t.w != nil {
		t.w.Warning("doxygen: unknown field %s", line)
	}
	return line, true
}

// ParamDocs extracts the \param entries of a comment block in order.
// Continuation lines are appended until a blank line or another marker.
func ParamDocs(raw string) []ParamDoc {
	var out []ParamDoc
	open := false
	for _, l := range strings.Split(raw, "\n") {
		line := stripComment(l)
		if m := paramRe.FindStringSubmatch(line); m != nil {
			out = append(out, ParamDoc{Name: m[1], Text: escaper.Replace(m[2])})
			open = true
			continue
		}
		if !open {
			continue
		}
		if line == "" || strings.HasPrefix(line, `\`) {
			open = false
			continue
		}
		last := &out[len(out)-1]
		last.Text = strings.TrimSpace(last.Text + " " + escaper.Replace(line))
	}
	return out
}

func stripComment(raw string) string {
	line := strings.TrimSpace(raw)
	for _, p := range commentPrefixes {
		if strings.HasPrefix(line, p) {
			line = strings.TrimPrefix(line, p)
			break
		}
	}
	line = strings.TrimSuffix(strings.TrimSpace(line), "*/")
	return strings.TrimSpace(line)
}

// hasMarker reports whether line starts with marker as a whole word.
func hasMarker(line, marker string) bool {
	if !strings.HasPrefix(line, marker) {
		return false
	}
	rest := line[len(marker):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

func trimMarker(line, marker string) string {
	if !hasMarker(line, marker) {
		return line
	}
	return strings.TrimSpace(line[len(marker):])
}

// sectionTitle drops the section label: "intro Introduction" -> "Introduction".
func sectionTitle(s string) string {
	if f := strings.SplitN(s, " ", 2); len(f) == 2 {
		return strings.TrimSpace(f[1])
	}
	return s
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
