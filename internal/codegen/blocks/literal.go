package blocks

import (
	"encoding/json"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	hexRe     = regexp.MustCompile(`^-?0[xX][0-9a-fA-F]+$`)
	dottedRe  = regexp.MustCompile(`^[A-Za-z_]\w*(?:\.[A-Za-z_]\w*)+$`)
	wrapperRe = regexp.MustCompile(`^[A-Za-z_][\w.:]*\s*\((.*)\)$`)
)

// ParseLiteral converts a descriptor value expression into the default used
// by the block description:
//
//	True/False      -> bool
//	0x1F            -> "0x1F" (kept as text)
//	samp_rate       -> "rate"
//	3, 1.5, [1, 2]  -> the JSON value (integers as int)
//	"text"          -> "\"text\"" (quotes kept)
//	foo.BAR         -> "\"BAR\""
//	float(3)        -> literal of 3
//	anything else   -> quoted
func ParseLiteral(s string) any {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case s == "True":
		return true
	case s == "False":
		return false
	case hexRe.MatchString(s):
		return s
	case s == "samp_rate":
		return "rate"
	}
	if v, ok := parseJSON(s); ok {
		return v
	}
	if dottedRe.MatchString(s) {
		return quote(s[strings.LastIndex(s, ".")+1:])
	}
	if m := wrapperRe.FindStringSubmatch(s); m != nil {
		if args := splitArgs(m[1]); len(args) == 1 && args[0] != "" {
			return ParseLiteral(args[0])
		}
	}
	return quote(s)
}

func parseJSON(s string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		return s, true
	case json.Number:
		if i, err := strconv.Atoi(t.String()); err == nil {
			return i, true
		}
		return t, true
	}
	return v, true
}

// IsIntLiteral reports whether v is an integer produced by ParseLiteral.
func IsIntLiteral(v any) bool {
	_, ok := v.(int)
	return ok
}

func quote(s string) string {
	return `"` + s + `"`
}
