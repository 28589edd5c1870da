package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
)

func TestEnumsAccumulate(t *testing.T) {
	e := NewEnums()
	e.Add(&scanner.Header{Path: "/inc/b.h", Enums: []scanner.Enum{
		{Name: "win_type", Namespace: "gr::fft::window", Values: []string{"WIN_HAMMING"}},
		{Name: "empty_t", Namespace: "gr::fft", Values: nil},
	}})
	e.Add(&scanner.Header{Path: "/inc/a.h", Enums: []scanner.Enum{
		{Name: "mode_t", Namespace: "gr::mymod", Values: []string{"FAST", "SLOW"}},
		{Name: "win_type", Namespace: "gr::fft::window", Values: []string{"WIN_HAMMING"}},
	}})
	e.Add(&scanner.Header{Path: "/inc/c.h"})

	assert.Equal(t, 2, e.Len())
	all := e.All()
	require.Len(t, all, 2)
	assert.Equal(t, "mode_t", all[0].Name)
	assert.Equal(t, "win_type", all[1].Name)
	assert.Equal(t, []string{"/inc/a.h", "/inc/b.h"}, e.Headers())
}

func TestEnumsLookup(t *testing.T) {
	e := NewEnums()
	e.Add(&scanner.Header{Path: "a.h", Enums: []scanner.Enum{
		{Name: "win_type", Namespace: "gr::fft::window", Values: []string{"WIN_HAMMING"}},
	}})

	en, ok := e.Lookup("gr::fft::window::win_type")
	require.True(t, ok)
	assert.Equal(t, "gr::fft::window::win_type", en.QualifiedName())

	_, ok = e.Lookup("const win_type_ext &")
	assert.False(t, ok)
	_, ok = e.Lookup("int")
	assert.False(t, ok)
}
