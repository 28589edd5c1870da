package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addXML = `<?xml version="1.0"?>
<block>
  <name>Add</name>
  <key>blocks_add_xx</key>
  <category>Math Operators</category>
  <import>from gnuradio import blocks</import>
  <make>blocks.add_v$(type.fcn)($vlen)</make>
  <callback>set_k($k)</callback>
  <param>
    <name>IO Type</name>
    <key>type</key>
    <type>enum</type>
    <option><name>Complex</name><key>complex</key><opt>fcn:cc</opt></option>
    <option><name>Float</name><key>float</key><opt>fcn:ff</opt></option>
  </param>
  <param>
    <name>Vec Length</name>
    <key>vlen</key>
    <value>1</value>
    <type>int</type>
    <hide>part</hide>
  </param>
  <sink>
    <name>in</name>
    <type>$type</type>
    <nports>$num_inputs</nports>
  </sink>
  <source>
    <name>out</name>
    <type>$type</type>
  </source>
</block>
`

const treeXML = `<?xml version="1.0"?>
<cat>
  <name>[Core]</name>
  <cat>
    <name>Math Operators</name>
    <block>blocks_add_xx</block>
  </cat>
</cat>
`

const copyYAML = `id: blocks_copy
label: Copy
category: '[Core]/Stream Operators'
parameters:
- id: type
  label: Type
  dtype: enum
  options: [complex, float]
  option_labels: [Complex, Float]
  option_attributes:
    size: [gr.sizeof_gr_complex, gr.sizeof_float]
  hide: part
- id: vlen
  label: Vector Length
  dtype: int
  default: 1
inputs:
- domain: stream
  dtype: ${ type }
- domain: message
  id: en
  optional: true
outputs:
- domain: stream
  dtype: ${ type }
  multiplicity: ${ num_outputs }
templates:
  imports: from gnuradio import blocks
  make: blocks.copy(${type.size}*${vlen})
  callbacks:
  - set_enabled(${enabled})
file_format: 1
`

const treeYAML = `'[Core]':
- Stream Operators:
  - blocks_copy
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDescriptors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blocks_add_xx.xml", addXML)
	writeFile(t, dir, "blocks_block_tree.xml", treeXML)
	writeFile(t, dir, "blocks_copy.block.yml", copyYAML)
	writeFile(t, dir, "blocks.tree.yml", treeYAML)
	writeFile(t, dir, "filter_fir.xml", addXML)
	writeFile(t, dir, "blocks_broken.xml", "<block><name>")

	d, err := LoadDescriptors(dir, "blocks")
	require.NoError(t, err)

	assert.Equal(t, []string{"blocks_add_xx", "blocks_copy"}, d.Keys())
	assert.Contains(t, d.Skipped, filepath.Join(dir, "blocks_broken.xml"))

	add := d.Records["blocks_add_xx"]
	assert.Equal(t, "Add", add.Name)
	assert.Equal(t, "blocks.add_v$(type.fcn)($vlen)", add.Make)
	assert.Equal(t, []string{"set_k($k)"}, add.Callbacks)
	assert.Equal(t, []string{"Math Operators"}, add.Categories)
	require.Len(t, add.Params, 2)
	assert.Equal(t, []string{"fcn:cc"}, add.Params[0].Options[0].Opts)
	assert.False(t, add.Params[0].HasValue)
	assert.True(t, add.Params[1].HasValue)
	assert.Equal(t, "1", add.Params[1].Value)
	assert.Equal(t, "part", add.Params[1].Hide)
	require.Len(t, add.Sinks, 1)
	assert.Equal(t, "$num_inputs", add.Sinks[0].NPorts)

	cp := d.Records["blocks_copy"]
	assert.Equal(t, "blocks.copy(${type.size}*${vlen})", cp.Make)
	require.Len(t, cp.Params, 2)
	assert.Equal(t, "Complex", cp.Params[0].Options[0].Name)
	assert.Equal(t, "complex", cp.Params[0].Options[0].Key)
	assert.Equal(t, []string{"size:gr.sizeof_gr_complex"}, cp.Params[0].Options[0].Opts)
	assert.Equal(t, "1", cp.Params[1].Value)
	require.Len(t, cp.Sinks, 2)
	assert.True(t, cp.Sinks[1].Message())
	assert.True(t, cp.Sinks[1].Optional)
	assert.Equal(t, "${ num_outputs }", cp.Sources[0].NPorts)

	assert.Equal(t, []string{"[Core]/Math Operators"}, d.Categories["blocks_add_xx"])
	assert.Equal(t, []string{"[Core]/Stream Operators"}, d.Categories["blocks_copy"])
}

func TestFileKey(t *testing.T) {
	assert.Equal(t, "blocks_copy", FileKey("/x/blocks_copy.block.yml"))
	assert.Equal(t, "blocks_add_xx", FileKey("blocks_add_xx.xml"))
}
