package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
)

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, "blocks_add_ff", CanonicalKey(scanner.Class{Namespace: "gr::blocks", Name: "add_ff"}))
	assert.Equal(t, "mod_block_ff", CanonicalKey(scanner.Class{Namespace: "mod", Name: "block_ff"}))
	assert.Equal(t, "add_ff", CanonicalKey(scanner.Class{Name: "add_ff"}))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		cls  scanner.Class
		keys []string
		want string
	}{
		{"exact", scanner.Class{Namespace: "gr::blocks", Name: "add_ff"}, []string{"blocks_add_ff", "blocks_add_cc"}, "blocks_add_ff"},
		{"module prefix dropped", scanner.Class{Namespace: "mod", Name: "block_ff"}, []string{"block_ff", "block_cc"}, "block_ff"},
		{"family fallback", scanner.Class{Namespace: "mod", Name: "block_ff"}, []string{"block"}, "block"},
		{"suffix swap", scanner.Class{Namespace: "gr::blocks", Name: "add_ff"}, []string{"blocks_sub_xx", "blocks_add_xx"}, "blocks_add_xx"},
		{"prefer full stem", scanner.Class{Namespace: "gr::blocks", Name: "add_ff"}, []string{"add_xx", "blocks_add_xx"}, "blocks_add_xx"},
		{"unsuffixed family with module", scanner.Class{Namespace: "gr::blocks", Name: "and_bb"}, []string{"blocks_and", "blocks_or"}, "blocks_and"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.cls, tt.keys)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchIdempotent(t *testing.T) {
	cls := scanner.Class{Namespace: "gr::digital", Name: "costas_loop_cc"}
	keys := []string{"digital_costas_loop_xx", "digital_costas_loop_yy", "digital_mpsk_receiver_cc"}
	first, err := Match(cls, keys)
	require.NoError(t, err)
	second, err := Match(cls, keys)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "digital_costas_loop_xx", first)

	// key order does not matter
	third, err := Match(cls, []string{keys[2], keys[1], keys[0]})
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestMatchNotFound(t *testing.T) {
	_, err := Match(scanner.Class{Namespace: "gr::blocks", Name: "foo_bar"}, []string{"baz", "blocks_other"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "gr::blocks::foo_bar")
}

func TestMatchSingleSegmentTail(t *testing.T) {
	_, err := Match(scanner.Class{Namespace: "gr::blocks", Name: "file_sink"}, []string{"sink", "source"})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := Match(scanner.Class{Namespace: "gr::blocks", Name: "file_sink"}, []string{"sink", "file_sink"})
	require.NoError(t, err)
	assert.Equal(t, "file_sink", got)

	got, err = Match(scanner.Class{Namespace: "gr::blocks", Name: "throttle"}, []string{"throttle"})
	require.NoError(t, err)
	assert.Equal(t, "throttle", got)
}

func TestTrailingForms(t *testing.T) {
	assert.Equal(t, []string{"blocks_file_sink", "file_sink"}, trailingForms("blocks_file_sink", 2))
	assert.Equal(t, []string{"blocks_throttle", "throttle"}, trailingForms("blocks_throttle", 1))
	assert.Equal(t, []string{"add_ff"}, trailingForms("add_ff", 2))
	assert.Equal(t, []string{"throttle"}, trailingForms("throttle", 1))
	assert.Empty(t, trailingForms("", 1))
}

func TestEntityPath(t *testing.T) {
	assert.Equal(t, "/mymod/add_ff", EntityPath(scanner.Class{Namespace: "gr::mymod", Name: "add_ff"}))
	assert.Equal(t, "/fft/window/win", EntityPath(scanner.Class{Namespace: "gr::fft::window", Name: "win"}))
	assert.Equal(t, "/add_ff", EntityPath(scanner.Class{Name: "add_ff"}))
}
