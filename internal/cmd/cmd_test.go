package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"

	"github.com/pothosware/grpothosgen/internal/codegen/generator"
	"github.com/pothosware/grpothosgen/internal/codegen/scanner"
	"github.com/pothosware/grpothosgen/internal/log"
	mocks "github.com/pothosware/grpothosgen/internal/testing"
)

const delayHeader = `#pragma once
namespace gr {
namespace mymod {

class MYMOD_API delay : public sync_block
{
public:
    typedef std::shared_ptr<delay> sptr;
    static sptr make(int delay);
    virtual void set_dly(int d) = 0;
};

} // namespace mymod
} // namespace gr
`

const delayXML = `<?xml version="1.0"?>
<block>
  <name>Delay</name>
  <key>mymod_delay</key>
  <category>Misc</category>
  <make>mymod.delay($delay)</make>
  <callback>set_dly($delay)</callback>
  <param><name>Delay</name><key>delay</key><value>0</value><type>int</type></param>
</block>
`

func prefixTree(t *testing.T) string {
	t.Helper()
	prefix := t.TempDir()
	mocks.WriteTree(t, prefix, map[string]string{
		"include/gnuradio/mymod/delay.h":            delayHeader,
		"share/gnuradio/grc/blocks/mymod_delay.xml": delayXML,
	})
	return prefix
}

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func newGenerate(prefix, out string) *Generate {
	return &Generate{
		Modules:       []string{"mymod"},
		Prefix:        prefix,
		Out:           out,
		IncludeSubdir: "gnuradio",
		GrcDir:        "share/gnuradio/grc/blocks",
		Color:         "never",
	}
}

func TestGenerateWritesOutputAndLog(t *testing.T) {
	prefix := prefixTree(t)
	out := t.TempDir()
	g := newGenerate(prefix, out)
	g.Log = filepath.Join(t.TempDir(), "diag.log")

	var console bytes.Buffer
	require.NoError(t, g.Execute(context.Background(), discard(), nil, &console))

	src, err := os.ReadFile(filepath.Join(out, "mymod_registration.cpp"))
	require.NoError(t, err)
	assert.Contains(t, string(src), `register__delay("/mymod/delay"`)
	assert.Contains(t, string(src), `registerCallable("set_dly"`)

	assert.Contains(t, console.String(), "grpothosgen begin: prefix=")
	assert.NotContains(t, console.String(), "\x1b[")

	raw, err := os.ReadFile(g.Log)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\nI: mymod: Total factories        1\n")
}

func TestGenerateLogKeepsBoundRawLogger(t *testing.T) {
	g := newGenerate(prefixTree(t), t.TempDir())
	g.Log = filepath.Join(t.TempDir(), "diag.log")

	var bound bytes.Buffer
	require.NoError(t, g.Execute(context.Background(), discard(), log.NewRaw(&bound), &bytes.Buffer{}))

	own, err := os.ReadFile(g.Log)
	require.NoError(t, err)
	assert.Contains(t, bound.String(), "I: mymod: Total factories        1\n")
	assert.Equal(t, bound.String(), string(own))
}

func TestGenerateMissingPrefix(t *testing.T) {
	g := newGenerate(filepath.Join(t.TempDir(), "nope"), generator.Stdout)
	err := g.Execute(context.Background(), discard(), nil, &bytes.Buffer{})
	var cfg *ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, ExitConfig, cfg.ExitCode())
}

func TestGenerateBadBlocklist(t *testing.T) {
	g := newGenerate(prefixTree(t), t.TempDir())
	g.Blocklist = filepath.Join(t.TempDir(), "missing.yaml")
	err := g.Execute(context.Background(), discard(), nil, &bytes.Buffer{})
	var cfg *ConfigError
	assert.ErrorAs(t, err, &cfg)
}

func TestGenerateBlocklistSkipsClass(t *testing.T) {
	prefix := prefixTree(t)
	out := t.TempDir()
	bl := filepath.Join(t.TempDir(), "blocklist.yaml")
	require.NoError(t, os.WriteFile(bl, []byte("classes:\n  gr::mymod::delay: broken\n"), 0o644))

	g := newGenerate(prefix, out)
	g.Blocklist = bl
	var console bytes.Buffer
	require.NoError(t, g.Execute(context.Background(), discard(), log.NewRaw(nil), &console))
	assert.Contains(t, console.String(), "Blacklisted class: gr::mymod::delay (broken)")

	src, err := os.ReadFile(filepath.Join(out, "mymod_registration.cpp"))
	require.NoError(t, err)
	assert.NotContains(t, string(src), "register__delay")
}

func TestScanDumpsHeaders(t *testing.T) {
	prefix := prefixTree(t)
	out := t.TempDir()
	s := &Scan{
		Modules:       []string{"mymod"},
		Prefix:        prefix,
		Out:           out,
		IncludeSubdir: "gnuradio",
		GrcDir:        "share/gnuradio/grc/blocks",
	}
	require.NoError(t, s.Execute(context.Background(), discard(), nil, &bytes.Buffer{}, &bytes.Buffer{}))

	data, err := os.ReadFile(filepath.Join(out, "mymod", "delay.json"))
	require.NoError(t, err)
	var h scanner.Header
	require.NoError(t, json.Unmarshal(data, &h))
	require.Len(t, h.Classes, 1)
	assert.Equal(t, "delay", h.Classes[0].Name)
	assert.Equal(t, "gr::mymod", h.Classes[0].Namespace)
}

func TestScanToStdout(t *testing.T) {
	s := &Scan{
		Modules:       []string{"mymod"},
		Prefix:        prefixTree(t),
		Out:           generator.Stdout,
		IncludeSubdir: "gnuradio",
		GrcDir:        "share/gnuradio/grc/blocks",
	}
	var stdout bytes.Buffer
	require.NoError(t, s.Execute(context.Background(), discard(), nil, &stdout, &bytes.Buffer{}))
	var hs []scanner.Header
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &hs))
	assert.Len(t, hs, 1)
}

func TestDumpName(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, "foo_bar.json", dumpName(root, filepath.Join(root, "foo", "bar.h")))
	assert.Equal(t, "baz.json", dumpName(root, filepath.Join(t.TempDir(), "baz.hpp")))
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "generate.yaml")
	c := &ConfigInit{Command: "generate", Format: "yml", Output: dest}
	require.NoError(t, c.Run())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "stdout", got["out"])
	assert.Equal(t, "gnuradio", got["include_subdir"])
	assert.Equal(t, "share/gnuradio/grc/blocks", got["grc_dir"])
	assert.Equal(t, false, got["strict_types"])
	assert.NotContains(t, got, "modules")

	assert.Error(t, c.Run(), "existing file without --force")
	c.Force = true
	assert.NoError(t, c.Run())
}

func TestConfigInitFormats(t *testing.T) {
	for _, f := range []string{"json", "toml"} {
		t.Run(f, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "scan."+f)
			require.NoError(t, (&ConfigInit{Command: "scan", Format: f, Output: dest}).Run())
			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			assert.Contains(t, string(data), "include_subdir")
		})
	}
	assert.Error(t, (&ConfigInit{Command: "scan", Format: "ini"}).Run())
	assert.Error(t, (&ConfigInit{Command: "serve", Format: "json", Output: filepath.Join(t.TempDir(), "x.json")}).Run())
}

func TestFlagName(t *testing.T) {
	typ := reflect.TypeOf(Generate{})
	f, _ := typ.FieldByName("IncludeSubdir")
	assert.Equal(t, "include_subdir", flagName(f))
	f, _ = typ.FieldByName("GrcDir")
	assert.Equal(t, "grc_dir", flagName(f))
	f, _ = typ.FieldByName("StrictTypes")
	assert.Equal(t, "strict_types", flagName(f))
}
