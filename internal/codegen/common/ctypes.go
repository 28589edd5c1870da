package common

import "strings"

// BareCType strips cv-qualifiers and reference markers from a parameter type
// so it can be named in a template argument.
// Examples: "const std::string &" -> "std::string", "float" -> "float".
func BareCType(ctype string) string {
	fields := strings.Fields(strings.ReplaceAll(ctype, "&", " "))
	out := fields[:0]
	for _, f := range fields {
		if f == "const" || f == "volatile" {
			continue
		}
		out = append(out, f)
	}
	s := strings.Join(out, " ")
	s = strings.ReplaceAll(s, " *", "*")
	s = strings.ReplaceAll(s, "< ", "<")
	return strings.ReplaceAll(s, " >", ">")
}

// NormalizeCType is the form used to decide whether two parameters sharing a
// key also share a type. Whitespace differences and the way a value is
// passed (by value or const reference) are ignored.
func NormalizeCType(ctype string) string {
	return strings.ReplaceAll(BareCType(ctype), " ", "")
}

// IsNarrowString reports whether ctype is a raw char pointer.
func IsNarrowString(ctype string) bool {
	n := NormalizeCType(ctype)
	return n == "char*" || n == "unsignedchar*" || n == "signedchar*"
}
