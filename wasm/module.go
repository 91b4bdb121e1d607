package wasm

import (
	"fmt"

	"github.com/wippyai/wasmedit/errors"
)

// Module is a decoded or constructed module: its sections in order and the
// arena that backs call targets. Index spaces are derived from the
// sections on every query, never cached.
type Module struct {
	Sections []Section
	Refs     FuncRefs
}

// FindSection returns the first section of type T, or the zero value.
func FindSection[T Section](m *Module) T {
	t, _ := lookupSection[T](m)
	return t
}

func lookupSection[T Section](m *Module) (T, bool) {
	for _, s := range m.Sections {
		if t, ok := s.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// ensureSection returns the first section of type T, creating it with mk
// at its canonical position when absent. Existing sections never move.
func ensureSection[T Section](m *Module, mk func() T) T {
	if s, ok := lookupSection[T](m); ok {
		return s
	}
	s := mk()
	m.insertSection(s)
	return s
}

func (m *Module) insertSection(s Section) {
	rank := sectionRank(s.ID())
	at := len(m.Sections)
	for i, existing := range m.Sections {
		if existing.ID() == SectionCustom {
			continue
		}
		if sectionRank(existing.ID()) > rank {
			at = i
			break
		}
	}
	m.Sections = append(m.Sections, nil)
	copy(m.Sections[at+1:], m.Sections[at:])
	m.Sections[at] = s
}

// AppendSection adds s after every existing section.
func (m *Module) AppendSection(s Section) {
	m.Sections = append(m.Sections, s)
}

// Types returns the type section entries.
func (m *Module) Types() []FuncType {
	if s := FindSection[*TypeSection](m); s != nil {
		return s.Types
	}
	return nil
}

// Imports returns the import section entries.
func (m *Module) Imports() []Import {
	if s := FindSection[*ImportSection](m); s != nil {
		return s.Imports
	}
	return nil
}

// Exports returns the export section entries.
func (m *Module) Exports() []Export {
	if s := FindSection[*ExportSection](m); s != nil {
		return s.Exports
	}
	return nil
}

// Codes returns the defined function bodies.
func (m *Module) Codes() []*Code {
	if s := FindSection[*CodeSection](m); s != nil {
		return s.Funcs
	}
	return nil
}

func (m *Module) countImports(kind byte) uint32 {
	var n uint32
	for _, imp := range m.Imports() {
		if imp.Desc.Kind == kind {
			n++
		}
	}
	return n
}

// NumImportedFuncs returns how many function indices imports occupy.
func (m *Module) NumImportedFuncs() uint32 { return m.countImports(KindFunc) }

// NumImportedGlobals returns how many global indices imports occupy.
func (m *Module) NumImportedGlobals() uint32 { return m.countImports(KindGlobal) }

// NumFuncs returns the size of the function index space.
func (m *Module) NumFuncs() uint32 {
	n := m.NumImportedFuncs()
	if s := FindSection[*FuncSection](m); s != nil {
		n += uint32(len(s.TypeIdxs))
	}
	return n
}

// Memories returns the memories the module defines, imports excluded.
func (m *Module) Memories() []MemoryType {
	if s := FindSection[*MemorySection](m); s != nil {
		return s.Memories
	}
	return nil
}

// HasMemory reports whether the module defines or imports a memory.
func (m *Module) HasMemory() bool {
	if s := FindSection[*MemorySection](m); s != nil && len(s.Memories) > 0 {
		return true
	}
	return m.countImports(KindMemory) > 0
}

// AddType appends a signature and returns its index. Identical signatures
// are not merged.
func (m *Module) AddType(ft FuncType) uint32 {
	s := ensureSection(m, func() *TypeSection { return &TypeSection{} })
	s.Types = append(s.Types, ft)
	return uint32(len(s.Types) - 1)
}

// AddFunction appends a body and its type index in lock-step and returns
// the function index, which counts imported functions first.
func (m *Module) AddFunction(code *Code, typeIdx uint32) uint32 {
	fs := ensureSection(m, func() *FuncSection { return &FuncSection{} })
	cs := ensureSection(m, func() *CodeSection { return &CodeSection{} })
	fs.TypeIdxs = append(fs.TypeIdxs, typeIdx)
	cs.Funcs = append(cs.Funcs, code)
	return m.NumImportedFuncs() + uint32(len(fs.TypeIdxs)-1)
}

// AddMemory declares a memory and returns its index in the memory index
// space.
func (m *Module) AddMemory(mt MemoryType) uint32 {
	s := ensureSection(m, func() *MemorySection { return &MemorySection{} })
	s.Memories = append(s.Memories, mt)
	return m.countImports(KindMemory) + uint32(len(s.Memories)-1)
}

// AddImport appends an import and returns its index in the index space of
// its kind. Adding a function import renumbers every defined function, so
// it belongs before any function is added or referenced.
func (m *Module) AddImport(imp Import) uint32 {
	s := ensureSection(m, func() *ImportSection { return &ImportSection{} })
	s.Imports = append(s.Imports, imp)
	return m.countImports(imp.Desc.Kind) - 1
}

// AddExport appends an export.
func (m *Module) AddExport(name string, kind byte, idx uint32) {
	s := ensureSection(m, func() *ExportSection { return &ExportSection{} })
	s.Exports = append(s.Exports, Export{Name: name, Kind: kind, Index: NewValue(idx)})
}

// AddGlobal appends a global and returns its index in the global index
// space.
func (m *Module) AddGlobal(g Global) uint32 {
	s := ensureSection(m, func() *GlobalSection { return &GlobalSection{} })
	s.Globals = append(s.Globals, g)
	return m.NumImportedGlobals() + uint32(len(s.Globals)-1)
}

// AddData appends an active data segment at offset and returns the
// [start, end) address range it initializes. A data count section, if
// present, is kept in agreement.
func (m *Module) AddData(offset int32, data []byte) (uint32, uint32) {
	s := ensureSection(m, func() *DataSection { return &DataSection{} })
	s.Segments = append(s.Segments, DataSegment{
		Offset: NewValue(Instrs(I32Const(offset))),
		Bytes:  data,
	})
	for _, sec := range m.Sections {
		if u, ok := sec.(*UnknownSection); ok && u.Tag == SectionDataCount {
			u.Payload = AppendU32(nil, uint32(len(s.Segments)))
		}
	}
	start := uint32(offset)
	return start, start + uint32(len(data))
}

// FuncType resolves the signature of a function index.
func (m *Module) FuncType(funcIdx uint32) (FuncType, error) {
	typeIdx, ok := m.funcTypeIdx(funcIdx)
	if !ok {
		return FuncType{}, errors.OutOfBounds(errors.PhaseTransform, []string{"func"}, int(funcIdx), int(m.NumFuncs()))
	}
	types := m.Types()
	if int(typeIdx) >= len(types) {
		return FuncType{}, errors.OutOfBounds(errors.PhaseTransform, []string{"type"}, int(typeIdx), len(types))
	}
	return types[typeIdx], nil
}

func (m *Module) funcTypeIdx(funcIdx uint32) (uint32, bool) {
	var i uint32
	for _, imp := range m.Imports() {
		if imp.Desc.Kind != KindFunc {
			continue
		}
		if i == funcIdx {
			return imp.Desc.TypeIdx.Value, true
		}
		i++
	}
	fs := FindSection[*FuncSection](m)
	if fs == nil || funcIdx-i >= uint32(len(fs.TypeIdxs)) {
		return 0, false
	}
	return fs.TypeIdxs[funcIdx-i], true
}

// Code returns the body of a defined function.
func (m *Module) Code(funcIdx uint32) (*Code, error) {
	imported := m.NumImportedFuncs()
	codes := m.Codes()
	if funcIdx < imported {
		return nil, errors.InvalidInput(errors.PhaseTransform, fmt.Sprintf("function %d is imported", funcIdx))
	}
	if int(funcIdx-imported) >= len(codes) {
		return nil, errors.OutOfBounds(errors.PhaseTransform, []string{"func"}, int(funcIdx), int(imported)+len(codes))
	}
	return codes[funcIdx-imported], nil
}

// FuncLocals returns one value type per declared local of a defined
// function, parameters excluded.
func (m *Module) FuncLocals(funcIdx uint32) ([]ValType, error) {
	code, err := m.Code(funcIdx)
	if err != nil {
		return nil, err
	}
	return code.FlattenLocals(), nil
}

// IsFuncExported reports whether a function index is exported.
func (m *Module) IsFuncExported(funcIdx uint32) bool {
	for _, e := range m.Exports() {
		if e.Kind == KindFunc && e.Index.Value == funcIdx {
			return true
		}
	}
	return false
}

// ExportedFunc returns the index of the function exported under name.
func (m *Module) ExportedFunc(name string) (uint32, bool) {
	for _, e := range m.Exports() {
		if e.Kind == KindFunc && e.Name == name {
			return e.Index.Value, true
		}
	}
	return 0, false
}

// FindImport returns the function index of the function import with the
// given field name.
func (m *Module) FindImport(name string) (uint32, bool) {
	var i uint32
	for _, imp := range m.Imports() {
		if imp.Desc.Kind != KindFunc {
			continue
		}
		if imp.Name == name {
			return i, true
		}
		i++
	}
	return 0, false
}

// FindCustomSection returns the first custom section with the given name.
func (m *Module) FindCustomSection(name string) *UnknownSection {
	for _, s := range m.Sections {
		if u, ok := s.(*UnknownSection); ok && u.Tag == SectionCustom && u.CustomName() == name {
			return u
		}
	}
	return nil
}
