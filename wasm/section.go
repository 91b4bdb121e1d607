package wasm

import "fmt"

// Section is one top-level chunk of a module. Size spans the section's
// length prefix in the source and is recomputed on encode.
type Section interface {
	ID() byte
	SizeField() Value[uint32]
}

type TypeSection struct {
	Types []FuncType
	Size  Value[uint32]
}

type ImportSection struct {
	Imports []Import
	Size    Value[uint32]
}

// FuncSection maps each defined function to its type index.
type FuncSection struct {
	TypeIdxs []uint32
	Size     Value[uint32]
}

type TableSection struct {
	Tables []TableType
	Size   Value[uint32]
}

type MemorySection struct {
	Memories []MemoryType
	Size     Value[uint32]
}

type GlobalSection struct {
	Globals []Global
	Size    Value[uint32]
}

type ExportSection struct {
	Exports []Export
	Size    Value[uint32]
}

// CodeSection holds function bodies by pointer so that edits made while
// walking a body are visible to the section.
type CodeSection struct {
	Funcs []*Code
	Size  Value[uint32]
}

type DataSection struct {
	Segments []DataSegment
	Size     Value[uint32]
}

// UnknownSection is any section this package does not interpret (custom,
// start, element, data count). Its payload passes through untouched.
type UnknownSection struct {
	Payload []byte
	Size    Value[uint32]
	Tag     byte
}

func (*TypeSection) ID() byte      { return SectionType }
func (*ImportSection) ID() byte    { return SectionImport }
func (*FuncSection) ID() byte      { return SectionFunction }
func (*TableSection) ID() byte     { return SectionTable }
func (*MemorySection) ID() byte    { return SectionMemory }
func (*GlobalSection) ID() byte    { return SectionGlobal }
func (*ExportSection) ID() byte    { return SectionExport }
func (*CodeSection) ID() byte      { return SectionCode }
func (*DataSection) ID() byte      { return SectionData }
func (s *UnknownSection) ID() byte { return s.Tag }

func (s *TypeSection) SizeField() Value[uint32]    { return s.Size }
func (s *ImportSection) SizeField() Value[uint32]  { return s.Size }
func (s *FuncSection) SizeField() Value[uint32]    { return s.Size }
func (s *TableSection) SizeField() Value[uint32]   { return s.Size }
func (s *MemorySection) SizeField() Value[uint32]  { return s.Size }
func (s *GlobalSection) SizeField() Value[uint32]  { return s.Size }
func (s *ExportSection) SizeField() Value[uint32]  { return s.Size }
func (s *CodeSection) SizeField() Value[uint32]    { return s.Size }
func (s *DataSection) SizeField() Value[uint32]    { return s.Size }
func (s *UnknownSection) SizeField() Value[uint32] { return s.Size }

// CustomName returns the name of a custom section, or "" for any other
// unknown section.
func (s *UnknownSection) CustomName() string {
	if s.Tag != SectionCustom {
		return ""
	}
	return readName(s.Payload)
}

// CustomData returns the bytes of a custom section that follow its name.
func (s *UnknownSection) CustomData() []byte {
	if s.Tag != SectionCustom {
		return nil
	}
	n, size, err := ReadU32(s.Payload)
	if err != nil || uint64(size)+uint64(n) > uint64(len(s.Payload)) {
		return nil
	}
	return s.Payload[size+int(n):]
}

// NewCustomSection builds a custom section with the given name and data.
func NewCustomSection(name string, data []byte) *UnknownSection {
	payload := AppendU32(nil, uint32(len(name)))
	payload = append(payload, name...)
	payload = append(payload, data...)
	return &UnknownSection{Tag: SectionCustom, Payload: payload}
}

func readName(payload []byte) string {
	n, size, err := ReadU32(payload)
	if err != nil || uint64(size)+uint64(n) > uint64(len(payload)) {
		return ""
	}
	return string(payload[size : size+int(n)])
}

// SectionName returns the conventional name of a section id.
func SectionName(id byte) string {
	switch id {
	case SectionCustom:
		return "custom"
	case SectionType:
		return "type"
	case SectionImport:
		return "import"
	case SectionFunction:
		return "function"
	case SectionTable:
		return "table"
	case SectionMemory:
		return "memory"
	case SectionGlobal:
		return "global"
	case SectionExport:
		return "export"
	case SectionStart:
		return "start"
	case SectionElement:
		return "element"
	case SectionCode:
		return "code"
	case SectionData:
		return "data"
	case SectionDataCount:
		return "datacount"
	default:
		return fmt.Sprintf("section(%d)", id)
	}
}

// sectionRank orders non-custom sections as the binary format requires.
// The data count section sits between element and code.
func sectionRank(id byte) int {
	switch id {
	case SectionDataCount:
		return int(SectionElement) + 1
	case SectionCode, SectionData:
		return int(id) + 1
	default:
		return int(id)
	}
}
