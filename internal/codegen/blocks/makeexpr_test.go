package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeKeys(t *testing.T) {
	tests := []struct {
		name  string
		expr  string
		arity int
		want  []string
	}{
		{"python style", "self.add_ff = add_ff.make($nchan)", 1, []string{"nchan"}},
		{"marker group skipped", "blocks.add_v$(type.fcn)($vlen)", 1, []string{"vlen"}},
		{"braced markers", "filter.fir_filter_${type}(${decim}, ${taps})", 2, []string{"decim", "taps"}},
		{"attribute marker", "blocks.copy($type.size)", 1, []string{"type"}},
		{"nested call", "blocks.foo(blocks.bar($a), $b)", 2, []string{"a", "b"}},
		{"prefers non-conditional", "f($a, $b)\ng(#if $x# $c, $d)", 2, []string{"a", "b"}},
		{"rightmost of equal groups", "a($x, $y) + b($p, $q)", 2, []string{"p", "q"}},
		{"longest wins", "longer($first, $second) + a($x, $y)", 2, []string{"first", "second"}},
		{"arity mismatch falls back", "f($a)", 2, []string{"a", ""}},
		{"no markers", "f(1)", 1, []string{""}},
		{"no args", "f()", 0, []string{}},
		{"quoted paren", `f(")", $a)`, 2, []string{"", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MakeKeys(tt.expr, tt.arity))
		})
	}
}

func TestCallbackKeys(t *testing.T) {
	cbs := []string{"reset_k($other)", "self.set_k($k)", "set_taps($taps, $ntaps)"}

	keys, ok := CallbackKeys(cbs, "set_k", 1)
	assert.True(t, ok)
	assert.Equal(t, []string{"k"}, keys)

	keys, ok = CallbackKeys(cbs, "set_taps", 2)
	assert.True(t, ok)
	assert.Equal(t, []string{"taps", "ntaps"}, keys)

	_, ok = CallbackKeys(cbs, "set_taps", 1)
	assert.False(t, ok)

	_, ok = CallbackKeys(cbs, "set", 1)
	assert.False(t, ok)
}

func TestMarkerName(t *testing.T) {
	for in, want := range map[string]string{
		"$name":       "name",
		"${ name }":   "name",
		"$(name)":     "name",
		"$name.attr":  "name",
		"2*$nchan":    "nchan",
		"int($value)": "value",
	} {
		got, ok := MarkerName(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := MarkerName("3")
	assert.False(t, ok)
	_, ok = MarkerName("$")
	assert.False(t, ok)
}
