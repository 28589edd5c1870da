package generator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pothosware/grpothosgen/internal/codegen/filter"
	"github.com/pothosware/grpothosgen/internal/log"
	mocks "github.com/pothosware/grpothosgen/internal/testing"
)

const addHeader = `#pragma once
#include <gnuradio/sync_block.h>

namespace gr {
namespace mymod {

enum mode_t { MODE_FAST, MODE_SLOW };

/*!
 * \brief Adds channels together.
 */
class MYMOD_API add_ff : virtual public gr::sync_block
{
public:
    typedef std::shared_ptr<add_ff> sptr;

    /*!
     * \param nchan number of channels
     */
    static sptr make(int nchan);

    virtual void set_k(float k) = 0;
    virtual float k() const = 0;
};

} // namespace mymod
} // namespace gr
`

const multHeader = `#pragma once
#include <gnuradio/sync_block.h>

namespace gr {
namespace mymod {

class MYMOD_API mult_ff : public sync_block
{
public:
    typedef std::shared_ptr<mult_ff> sptr;
    static sptr make(float k, int vlen);
};

class MYMOD_API mult_cc : public sync_block
{
public:
    typedef std::shared_ptr<mult_cc> sptr;
    static sptr make(gr_complex k, int vlen);
};

} // namespace mymod
} // namespace gr
`

const miscHeader = `#pragma once
namespace gr {
namespace mymod {

class helper
{
public:
    void run();
};

class MYMOD_API orphan_ff : public sync_block
{
public:
    typedef std::shared_ptr<orphan_ff> sptr;
    static sptr make();
};

} // namespace mymod
} // namespace gr
`

const addXML = `<?xml version="1.0"?>
<block>
  <name>Add</name>
  <key>add_ff</key>
  <category>Math Operators</category>
  <make>self.add_ff = add_ff.make($nchan)</make>
  <param>
    <name>Num Channels</name>
    <key>nchan</key>
    <value>1</value>
    <type>int</type>
  </param>
  <sink><name>in</name><type>float</type></sink>
  <source><name>out</name><type>float</type></source>
</block>
`

const multXML = `<?xml version="1.0"?>
<block>
  <name>Multiply Const</name>
  <key>mymod_mult_xx</key>
  <category>Math Operators</category>
  <make>mymod.mult_$(type.fcn)($k, $vlen)</make>
  <param>
    <name>IO Type</name>
    <key>type</key>
    <type>enum</type>
    <option><name>Complex</name><key>complex</key><opt>fcn:cc</opt></option>
    <option><name>Float</name><key>float</key><opt>fcn:ff</opt></option>
  </param>
  <param>
    <name>Constant</name>
    <key>k</key>
    <value>1</value>
    <type>raw</type>
  </param>
  <param>
    <name>Vec Length</name>
    <key>vlen</key>
    <value>1</value>
    <type>int</type>
  </param>
</block>
`

func fixture(t *testing.T) string {
	t.Helper()
	prefix := t.TempDir()
	mocks.WriteTree(t, prefix, map[string]string{
		"include/gnuradio/mymod/add_ff.h":                 addHeader,
		"include/gnuradio/mymod/mult.h":                   multHeader,
		"include/gnuradio/mymod/misc.h":                   miscHeader,
		"share/gnuradio/grc/blocks/mymod_add_ff.xml":      addXML,
		"share/gnuradio/grc/blocks/mymod_mult_xx.xml":     multXML,
		"share/gnuradio/grc/blocks/other_thing.xml":       addXML,
		"share/gnuradio/grc/blocks/mymod_broken_block.xml": "<block><name>",
	})
	return prefix
}

func options(prefix, out string) Options {
	return Options{
		Prefix:        prefix,
		IncludeSubdir: "gnuradio",
		GRCDir:        filepath.Join("share", "gnuradio", "grc", "blocks"),
		OutDir:        out,
		Blocklist:     &filter.Blocklist{},
	}
}

func TestGenerate(t *testing.T) {
	prefix := fixture(t)
	out := t.TempDir()
	rep := &mocks.Recorder{}
	g := New(options(prefix, out), nil, rep)

	res, err := g.Generate(context.Background(), "mymod")
	require.NoError(t, err)
	assert.True(t, res.Written)
	assert.Equal(t, 3, res.Factories)
	assert.Equal(t, 1, res.MetaFactories)
	assert.Equal(t, 1, res.Enums)
	assert.Equal(t, 2, res.Registrations)
	assert.Equal(t, filepath.Join(out, "mymod_registration.cpp"), res.Output)

	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	src := string(data)

	assert.True(t, strings.HasPrefix(src, stampPrefix))
	assert.Contains(t, src, "#include <gnuradio/mymod/add_ff.h>\n#include <gnuradio/mymod/mult.h>\n")
	assert.NotContains(t, src, "misc.h")
	assert.Contains(t, src, "factory__add_ff(int nchan)")
	assert.Contains(t, src, "auto __orig_block = gr::mymod::add_ff::make(nchan);")
	assert.Contains(t, src, `registerCallable("k", Pothos::Callable(&gr::mymod::add_ff::k)`)
	assert.Contains(t, src, `registerProbe("k", "k_triggered", "probe_k");`)
	assert.Contains(t, src, "factory__mymod_mult_xx(const std::string &type, const Pothos::Object &a0, const Pothos::Object &a1)")
	assert.Contains(t, src, `if (type == "mult_ff") return factory__mult_ff(a0.convert<float>(), a1.convert<int>());`)
	assert.Contains(t, src, `if (type == "mult_cc") return factory__mult_cc(a0.convert<gr_complex>(), a1.convert<int>());`)
	assert.Contains(t, src, `static Pothos::BlockRegistry register__add_ff("/mymod/add_ff", &gr::mymod::factory__add_ff);`)
	assert.Contains(t, src, `static Pothos::BlockRegistry register__mymod_mult_xx("/mymod/mult", &gr::mymod::factory__mymod_mult_xx);`)
	assert.NotContains(t, src, "register__mult_ff")
	assert.Contains(t, src, "static gr::mymod::mode_t string_to_gr_mymod_mode_t(const std::string &s)")
	assert.Contains(t, src, `if (s == "MODE_SLOW") return gr::mymod::MODE_SLOW;`)
	assert.Contains(t, src, `"/object/convert/gr_enums/int_to_gr_mymod_mode_t"`)
	assert.Contains(t, src, `Pothos::PluginRegistry::add("/blocks/docs/mymod/add_ff", std::string("\x7b`)
	assert.Contains(t, src, `"/blocks/docs/mymod/mult"`)
	assert.Contains(t, src, "} //namespace mymod\n} //namespace gr")

	assert.True(t, rep.Has(log.KindNotice, "method add_ff::set_k not used in GRC add_ff"))
	assert.True(t, rep.Has(log.KindWarning, "gr::mymod::orphan_ff"))
	assert.True(t, rep.Has(log.KindWarning, "mymod_broken_block.xml skipped"))
	assert.True(t, rep.Has(log.KindNotice, "Skipping gr::mymod::helper"))
	assert.True(t, rep.Has(log.KindNotice, "mymod: Total factories        3"))
	assert.Empty(t, rep.Of(log.KindError))

	// an unchanged document is not rewritten
	res, err = g.Generate(context.Background(), "mymod")
	require.NoError(t, err)
	assert.False(t, res.Written)
}

func TestBindSingleEntity(t *testing.T) {
	prefix := fixture(t)
	rep := &mocks.Recorder{}
	g := New(options(prefix, Stdout), nil, rep)

	md, err := g.Scan(context.Background(), "mymod")
	require.NoError(t, err)
	asm, err := g.Bind(context.Background(), md, filter.New(&filter.Blocklist{}, rep))
	require.NoError(t, err)

	d, ok := asm.docs["/mymod/add_ff"]
	require.True(t, ok)
	assert.Equal(t, []string{"nchan"}, d.Args)
	assert.Empty(t, d.Calls)
	require.Len(t, d.Params, 1)
	assert.Equal(t, []string{"number of channels"}, d.Params[0].Desc)

	m, ok := asm.docs["/mymod/mult"]
	require.True(t, ok)
	assert.Equal(t, []string{"type", "k", "vlen"}, m.Args)
}

func TestGenerateBlockedTarget(t *testing.T) {
	prefix := fixture(t)
	out := t.TempDir()
	rep := &mocks.Recorder{}
	opts := options(prefix, out)
	opts.Blocklist = &filter.Blocklist{Targets: map[string]string{"mymod": "not ready"}}

	res, err := New(opts, nil, rep).Generate(context.Background(), "mymod")
	require.NoError(t, err)
	assert.Zero(t, res.Factories)
	assert.Zero(t, res.Registrations)
	assert.True(t, rep.Has(log.KindBlacklist, "Blacklisted target: mymod (not ready)"))

	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "factory__")
}

func TestGenerateMissingPaths(t *testing.T) {
	prefix := t.TempDir()
	_, err := New(options(prefix, Stdout), nil, &mocks.Recorder{}).Generate(context.Background(), "mymod")
	assert.ErrorIs(t, err, ErrMissingPath)
}

func TestGenerateCustomTemplate(t *testing.T) {
	prefix := fixture(t)
	out := t.TempDir()
	tmpl := filepath.Join(t.TempDir(), "custom.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte("{{range .Registrations}}{{.Path}}\n{{end}}"), 0o644))

	opts := options(prefix, out)
	opts.Template = tmpl
	res, err := New(opts, nil, &mocks.Recorder{}).Generate(context.Background(), "mymod")
	require.NoError(t, err)

	data, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	_, body, _ := strings.Cut(string(data), "\n")
	assert.Equal(t, "/mymod/add_ff\n/mymod/mult\n", body)
}

func TestOutputPath(t *testing.T) {
	g := New(Options{}, nil, &mocks.Recorder{})
	assert.Equal(t, Stdout, g.OutputPath("blocks"))
	g = New(Options{OutDir: "gen"}, nil, &mocks.Recorder{})
	assert.Equal(t, filepath.Join("gen", "blocks_registration.cpp"), g.OutputPath("blocks"))
}
