package inspect_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasmedit/inspect"
	"github.com/wippyai/wasmedit/wasm"
)

// sample has one imported function, one exported defined function with a
// nested if/else, and a custom section.
func sample(t *testing.T) *wasm.Module {
	t.Helper()
	m := &wasm.Module{}
	ti := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}})
	m.AddImport(wasm.Import{Module: "env", Name: "log",
		Desc: wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: wasm.NewValue(ti)}})
	fn := m.AddFunction(&wasm.Code{
		Locals: []wasm.Local{{Count: 2, Type: wasm.ValI64}},
		Body: wasm.Instrs(
			wasm.LocalGet(0),
			wasm.IfElse(wasm.BlockEmpty,
				[]wasm.Instr{wasm.LocalGet(0), wasm.Call(m.Refs.New(0))},
				[]wasm.Instr{wasm.Op(wasm.OpNop)}),
		),
	}, ti)
	m.AddExport("run", wasm.KindFunc, fn)
	m.AppendSection(wasm.NewCustomSection("name", []byte{0}))

	decoded, err := wasm.Decode(m.Encode())
	require.NoError(t, err)
	return decoded
}

func TestSummarize(t *testing.T) {
	m := sample(t)
	s, err := inspect.Summarize(m)
	require.NoError(t, err)

	var names []string
	for _, sec := range s.Sections {
		names = append(names, sec.Name)
		assert.GreaterOrEqual(t, sec.Start, 8)
		assert.Greater(t, sec.End, sec.Start)
	}
	assert.Equal(t, []string{"type", "import", "function", "export", "code", "custom"}, names)
	assert.Equal(t, "name", s.Sections[5].Custom)
	assert.True(t, s.Sections[5].Opaque)

	// sections tile the module after the header
	for i := 1; i < len(s.Sections); i++ {
		assert.Equal(t, s.Sections[i-1].End, s.Sections[i].Start)
	}

	require.Len(t, s.Funcs, 2)
	assert.True(t, s.Funcs[0].Imported)
	assert.Equal(t, "env.log", s.Funcs[0].Import)
	assert.Zero(t, s.Funcs[0].Instrs)

	run := s.Funcs[1]
	assert.Equal(t, uint32(1), run.Index)
	assert.Equal(t, []string{"run"}, run.Exports)
	assert.Equal(t, 2, run.Locals)
	assert.Equal(t, 5, run.Instrs)
	assert.Equal(t, "(i32) -> ()", run.Type.String())
}

func TestWriteSummary(t *testing.T) {
	s, err := inspect.Summarize(sample(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, inspect.WriteSummary(&buf, s))
	out := buf.String()
	assert.Contains(t, out, "custom \"name\"")
	assert.Contains(t, out, "import env.log")
	assert.Contains(t, out, "export \"run\"")
	assert.Contains(t, out, "0x8-")
}

func TestListing(t *testing.T) {
	m := sample(t)
	lines, err := inspect.Listing(m, 1)
	require.NoError(t, err)

	var texts []string
	for _, l := range lines {
		texts = append(texts, strings.Repeat(" ", l.Depth)+l.Text)
	}
	assert.Equal(t, []string{
		"local 2 x i64",
		"local.get 0",
		"if",
		" local.get 0",
		" call 0",
		"else",
		" nop",
		"end",
		"end",
	}, texts)

	assert.Positive(t, lines[1].Start)
	assert.Equal(t, -1, lines[7].Start)

	_, err = inspect.Listing(m, 0)
	assert.Error(t, err)
}

func TestWriteListing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, inspect.WriteListing(&buf, sample(t), 1))
	assert.Contains(t, buf.String(), "    local.get 0\n")
	assert.True(t, strings.HasSuffix(buf.String(), "end\n"))
}
