package wasm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasmedit/wasm"
)

func importFunc(module, name string, typeIdx uint32) wasm.Import {
	return wasm.Import{
		Module: module,
		Name:   name,
		Desc:   wasm.ImportDesc{Kind: wasm.KindFunc, TypeIdx: wasm.NewValue(typeIdx)},
	}
}

func TestAddFunction_IndicesFollowImports(t *testing.T) {
	m := &wasm.Module{}
	ti := m.AddType(wasm.FuncType{})
	m.Sections = append(m.Sections, &wasm.ImportSection{Imports: []wasm.Import{
		importFunc("env", "a", ti),
		{Module: "env", Name: "mem", Desc: wasm.ImportDesc{Kind: wasm.KindMemory, Memory: &wasm.MemoryType{}}},
		importFunc("env", "b", ti),
	}})

	var got []uint32
	for i := 0; i < 3; i++ {
		got = append(got, m.AddFunction(&wasm.Code{}, ti))
	}
	assert.Equal(t, []uint32{2, 3, 4}, got)
	assert.Equal(t, uint32(5), m.NumFuncs())
}

func TestAddType_NoDeduplication(t *testing.T) {
	m := &wasm.Module{}
	sig := wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}}
	assert.Equal(t, uint32(0), m.AddType(sig))
	assert.Equal(t, uint32(1), m.AddType(sig))
	assert.Len(t, m.Types(), 2)
}

func TestAddGlobal_CountsImportedGlobals(t *testing.T) {
	m := &wasm.Module{}
	m.Sections = append(m.Sections, &wasm.ImportSection{Imports: []wasm.Import{
		{Module: "env", Name: "g", Desc: wasm.ImportDesc{Kind: wasm.KindGlobal, Global: &wasm.GlobalType{Type: wasm.ValI32}}},
	}})
	idx := m.AddGlobal(wasm.Global{
		Type: wasm.GlobalType{Type: wasm.ValI32, Mutable: true},
		Init: wasm.NewValue(wasm.Instrs(wasm.I32Const(0))),
	})
	assert.Equal(t, uint32(1), idx)
}

func TestAddData(t *testing.T) {
	m, err := wasm.Decode(append(header(),
		0x05, 0x03, 0x01, 0x00, 0x01,
		0x0c, 0x01, 0x00,
	))
	require.NoError(t, err)

	start, end := m.AddData(16, []byte("hello"))
	assert.Equal(t, uint32(16), start)
	assert.Equal(t, uint32(21), end)

	again, err := wasm.Decode(m.Encode())
	require.NoError(t, err)
	data := wasm.FindSection[*wasm.DataSection](again)
	require.NotNil(t, data)
	assert.Equal(t, []byte("hello"), data.Segments[0].Bytes)

	count := again.Sections[1].(*wasm.UnknownSection)
	assert.Equal(t, wasm.SectionDataCount, count.Tag)
	assert.Equal(t, []byte{0x01}, count.Payload)
}

func TestNewSectionsKeepCanonicalOrder(t *testing.T) {
	m, err := wasm.Decode(append(header(),
		0x00, 0x02, 0x01, 'a',
		0x05, 0x03, 0x01, 0x00, 0x01,
		0x07, 0x01, 0x00,
	))
	require.NoError(t, err)

	ti := m.AddType(wasm.FuncType{})
	m.AddFunction(&wasm.Code{}, ti)
	m.AddGlobal(wasm.Global{Type: wasm.GlobalType{Type: wasm.ValI32}, Init: wasm.NewValue(wasm.Instrs(wasm.I32Const(0)))})

	var ids []byte
	for _, s := range m.Sections {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []byte{
		wasm.SectionCustom, wasm.SectionType, wasm.SectionFunction, wasm.SectionMemory,
		wasm.SectionGlobal, wasm.SectionExport, wasm.SectionCode,
	}, ids)
}

func TestLookups(t *testing.T) {
	m, err := wasm.Decode(sampleModule)
	require.NoError(t, err)

	ft, err := m.FuncType(0)
	require.NoError(t, err)
	assert.Equal(t, []wasm.ValType{wasm.ValI32}, ft.Params)
	assert.Equal(t, []wasm.ValType{wasm.ValI32}, ft.Results)

	_, err = m.FuncType(1)
	assert.Error(t, err)

	assert.True(t, m.IsFuncExported(0))
	assert.False(t, m.IsFuncExported(1))

	idx, ok := m.ExportedFunc("f")
	assert.True(t, ok)
	assert.Equal(t, uint32(0), idx)

	locals, err := m.FuncLocals(0)
	require.NoError(t, err)
	assert.Equal(t, []wasm.ValType{wasm.ValI32}, locals)

	_, ok = m.FindImport("fd_write")
	assert.False(t, ok)
	assert.True(t, m.HasMemory())
	assert.NotNil(t, m.FindCustomSection("x"))
}

func TestFindImport_SkipsNonFunctions(t *testing.T) {
	m := &wasm.Module{}
	m.Sections = append(m.Sections, &wasm.ImportSection{Imports: []wasm.Import{
		{Module: "env", Name: "memory", Desc: wasm.ImportDesc{Kind: wasm.KindMemory, Memory: &wasm.MemoryType{}}},
		importFunc("env", "log", 0),
		importFunc("wasi_snapshot_preview1", "fd_write", 1),
	}})
	idx, ok := m.FindImport("fd_write")
	require.True(t, ok)
	assert.Equal(t, uint32(1), idx)
}

func TestFlattenLocals(t *testing.T) {
	got := wasm.FlattenLocals([]wasm.Local{
		{Count: 2, Type: wasm.ValI32},
		{Count: 0, Type: wasm.ValF32},
		{Count: 1, Type: wasm.ValI64},
	})
	assert.Equal(t, []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI64}, got)
}

func TestFuncRefs(t *testing.T) {
	var refs wasm.FuncRefs
	a := refs.New(3)
	b := refs.New(3)
	c := refs.New(7)

	assert.Equal(t, 2, refs.Retarget(3, 4))
	assert.Equal(t, uint32(4), refs.Get(a))
	assert.Equal(t, uint32(4), refs.Get(b))

	assert.Equal(t, 1, refs.Shift(5, 2))
	assert.Equal(t, uint32(9), refs.Get(c))
	assert.Equal(t, uint32(4), refs.Get(a))

	assert.Panics(t, func() { refs.Get(wasm.FuncRef(99)) })
}

func TestBuildFromScratch(t *testing.T) {
	m := &wasm.Module{}
	ti := m.AddType(wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}})
	assert.Equal(t, uint32(0), m.AddImport(importFunc("env", "f", ti)))
	assert.Equal(t, uint32(0), m.AddMemory(wasm.MemoryType{Limits: wasm.Limits{Min: wasm.NewValue[uint32](1)}}))
	fn := m.AddFunction(&wasm.Code{Body: wasm.Instrs(wasm.I32Const(7))}, ti)
	m.AddExport("seven", wasm.KindFunc, fn)

	again, err := wasm.Decode(m.Encode())
	require.NoError(t, err)

	idx, ok := again.ExportedFunc("seven")
	require.True(t, ok)
	assert.Equal(t, uint32(1), idx)
	require.Len(t, again.Memories(), 1)
	assert.Equal(t, uint32(1), again.Memories()[0].Limits.Min.Value)
	assert.Equal(t, uint32(1), again.NumImportedFuncs())
}
