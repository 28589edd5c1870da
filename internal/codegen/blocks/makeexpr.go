package blocks

import (
	"sort"
	"strings"

	"github.com/pothosware/grpothosgen/internal/codegen/common"
)

// Make expressions are GRC templates such as
//
//	blocks.add_v$(type.fcn)($vlen)
//	self.add_ff = add_ff.make($nchan)
//	filter.fir_filter_${type}(${decim}, ${taps})
//
// Finding the call that receives the factory arguments is a heuristic: every
// balanced parenthesis group is a candidate, $( ) marker groups are not.
// Groups whose arity matches and that contain a marker win, preferring
// groups free of #if or % template conditionals, then the longest, then
// the rightmost.

type parenGroup struct {
	start, end  int // indices of '(' and ')'
	args        []string
	conditional bool
}

func (g parenGroup) hasMarker() bool {
	for _, a := range g.args {
		if strings.Contains(a, "$") {
			return true
		}
	}
	return false
}

// MakeKeys resolves the parameter key driving each of the arity arguments of
// the factory call in expr. Unresolved slots are "".
func MakeKeys(expr string, arity int) []string {
	keys := make([]string, arity)
	if arity == 0 {
		return keys
	}
	var exact, marked []parenGroup
	for _, g := range parenGroups(expr) {
		if !g.hasMarker() {
			continue
		}
		marked = append(marked, g)
		if len(g.args) == arity {
			exact = append(exact, g)
		}
	}
	pick := exact
	if len(pick) == 0 {
		pick = marked
	}
	if len(pick) == 0 {
		return keys
	}
	sort.SliceStable(pick, func(i, j int) bool {
		a, b := pick[i], pick[j]
		if a.conditional != b.conditional {
			return !a.conditional
		}
		if la, lb := a.end-a.start, b.end-b.start; la != lb {
			return la > lb
		}
		return a.start > b.start
	})
	for i, a := range pick[0].args {
		if i >= arity {
			break
		}
		keys[i], _ = MarkerName(a)
	}
	return keys
}

// CallbackKeys finds an invocation of method in callbacks whose argument
// count equals arity and returns the key of each argument.
func CallbackKeys(callbacks []string, method string, arity int) ([]string, bool) {
	for _, cb := range callbacks {
		for _, g := range invocations(cb, method) {
			if len(g.args) != arity {
				continue
			}
			keys := make([]string, arity)
			for i, a := range g.args {
				keys[i], _ = MarkerName(a)
			}
			return keys, true
		}
	}
	return nil, false
}

// MarkerName returns the parameter named by the first marker in s:
// $name, ${ name }, $name.attr or $(name).
func MarkerName(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '$' {
			continue
		}
		rest := s[i+1:]
		if rest != "" && (rest[0] == '{' || rest[0] == '(') {
			rest = strings.TrimLeft(rest[1:], " \t")
		}
		if name := common.LeadingIdent(rest); name != "" {
			return name, true
		}
	}
	return "", false
}

// invocations returns the argument groups of every call to name in s.
func invocations(s, name string) []parenGroup {
	var out []parenGroup
	groups := parenGroups(s)
	for off := 0; ; {
		i := strings.Index(s[off:], name)
		if i < 0 {
			return out
		}
		start := off + i
		end := start + len(name)
		off = start + 1
		if start > 0 && common.IsIdentByte(s[start-1]) {
			continue
		}
		j := end
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		if j >= len(s) || s[j] != '(' {
			continue
		}
		for _, g := range groups {
			if g.start == j {
				out = append(out, g)
			}
		}
	}
}

// parenGroups lists every balanced parenthesis group that is not a $( )
// marker, in order of their closing parenthesis.
func parenGroups(s string) []parenGroup {
	type open struct {
		at     int
		marker bool
	}
	var (
		stack []open
		out   []parenGroup
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(':
			stack = append(stack, open{at: i, marker: i > 0 && s[i-1] == '$'})
		case ')':
			if len(stack) == 0 {
				continue
			}
			o := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if o.marker {
				continue
			}
			body := s[o.at+1 : i]
			out = append(out, parenGroup{
				start:       o.at,
				end:         i,
				args:        splitArgs(body),
				conditional: isConditional(body),
			})
		}
	}
	return out
}

// splitArgs splits on commas outside nested brackets, braces and quotes.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var (
		out   []string
		depth int
		quote byte
		last  int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[last:]))
}

func isConditional(body string) bool {
	if strings.Contains(body, "#") {
		return true
	}
	for _, l := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(l), "%") {
			return true
		}
	}
	return false
}
