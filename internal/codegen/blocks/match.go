package blocks

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/pothosware/grpothosgen/internal/codegen/common"
	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
)

// CanonicalKey joins namespace and class name with underscores and drops
// the legacy "gr_" prefix: gr::blocks::add_ff => "blocks_add_ff".
func CanonicalKey(cls scanner.Class) string {
	segs := append(scanner.NamespaceSegments(cls.Namespace), cls.Name)
	return common.TrimLegacyPrefix(strings.Join(segs, "_"))
}

// Match finds the descriptor key for cls among keys.
//
// The canonical key and each of its shorter trailing forms (module prefix
// dropped, down to two segments or the bare class name) are tried for an exact
// match, longest first. Failing that, a key ending in a short type suffix
// such as _ff may match (a) a descriptor with a different type suffix and
// the same stem, or (b) a family descriptor equal to the stem. Short
// trailing words such as "and" look like suffixes too, so (b) does not
// require the family key to be unsuffixed.
// Keys are examined in sorted order.
func Match(cls scanner.Class, keys []string) (string, error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	set := make(map[string]bool, len(sorted))
	for _, k := range sorted {
		set[k] = true
	}

	tails := trailingForms(CanonicalKey(cls), len(common.SplitKey(cls.Name)))
	for _, t := range tails {
		if set[t] {
			return t, nil
		}
	}
	for _, t := range tails {
		stem, _, ok := common.TypeSuffix(t)
		if !ok {
			continue
		}
		for _, k := range sorted {
			if ks, _, kok := common.TypeSuffix(k); kok && slices.Equal(ks, stem) {
				return k, nil
			}
		}
		for _, k := range sorted {
			if slices.Equal(common.SplitKey(k), stem) {
				return k, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, cls.QualifiedName())
}

// trailingForms returns key and every suffix of it starting at a segment
// boundary, longest first, down to min(2, minSegs) segments:
// "a_b_c" => ["a_b_c", "b_c"]. The full key is always kept.
func trailingForms(key string, minSegs int) []string {
	if key == "" {
		return nil
	}
	segs := common.SplitKey(key)
	floor := min(2, max(minSegs, 1))
	out := []string{key}
	for i := 1; len(segs)-i >= floor; i++ {
		out = append(out, strings.Join(segs[i:], "_"))
	}
	return out
}

// EntityPath is the registry path of a bound class: namespace segments
// without the leading "gr", then the class name.
// gr::mymod::add_ff => "/mymod/add_ff".
func EntityPath(cls scanner.Class) string {
	segs := scanner.NamespaceSegments(cls.Namespace)
	if len(segs) > 0 && segs[0] == "gr" {
		segs = segs[1:]
	}
	return "/" + strings.Join(append(segs, cls.Name), "/")
}
