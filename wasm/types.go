package wasm

import (
	"fmt"
	"strings"
)

// ValType is a WebAssembly value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return fmt.Sprintf("valtype(0x%02x)", byte(v))
	}
}

func validValType(b byte) bool {
	switch ValType(b) {
	case ValI32, ValI64, ValF32, ValF64:
		return true
	}
	return false
}

// BlockType is the single-byte result type of a block, loop or if:
// BlockEmpty or one value type.
type BlockType byte

// Result returns the value type a block yields, if any.
func (b BlockType) Result() (ValType, bool) {
	if b == BlockEmpty {
		return 0, false
	}
	return ValType(b), true
}

func (b BlockType) String() string {
	if b == BlockEmpty {
		return ""
	}
	return ValType(b).String()
}

// FuncType represents a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two signatures are structurally identical.
func (f FuncType) Equal(o FuncType) bool {
	if len(f.Params) != len(o.Params) || len(f.Results) != len(o.Results) {
		return false
	}
	for i := range f.Params {
		if f.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range f.Results {
		if f.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}

func (f FuncType) String() string {
	return "(" + joinTypes(f.Params) + ") -> (" + joinTypes(f.Results) + ")"
}

func joinTypes(ts []ValType) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

// Limits bounds a memory or table. Min is patchable in place.
type Limits struct {
	Max *uint32
	Min Value[uint32]
}

// MemoryType describes a linear memory.
type MemoryType struct {
	Limits Limits
}

// TableType describes a table: element reference type plus limits.
type TableType struct {
	Limits   Limits
	ElemType byte
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	Type    ValType
	Mutable bool
}

// Global is a module-defined global with its initializer.
type Global struct {
	Init Value[Expr]
	Type GlobalType
}

// ImportDesc is the imported entity. Exactly one field applies, chosen by Kind.
type ImportDesc struct {
	Table   *TableType
	Memory  *MemoryType
	Global  *GlobalType
	TypeIdx Value[uint32]
	Kind    byte
}

// Import is one entry of the import section.
type Import struct {
	Module string
	Name   string
	Desc   ImportDesc
}

// Export is one entry of the export section.
type Export struct {
	Name  string
	Index Value[uint32]
	Kind  byte
}

// Local is one run of identically typed locals.
type Local struct {
	Count uint32
	Type  ValType
}

// Code is one function body. Size spans the body's length prefix.
type Code struct {
	Locals []Local
	Body   Expr
	Size   Value[uint32]
}

// FlattenLocals expands the run-length encoded locals into one entry per
// local slot.
func (c *Code) FlattenLocals() []ValType {
	return FlattenLocals(c.Locals)
}

// FlattenLocals expands run-length encoded locals into one entry per slot.
func FlattenLocals(locals []Local) []ValType {
	var n uint32
	for _, l := range locals {
		n += l.Count
	}
	out := make([]ValType, 0, n)
	for _, l := range locals {
		for i := uint32(0); i < l.Count; i++ {
			out = append(out, l.Type)
		}
	}
	return out
}

// DataSegment is an active data segment for memory 0. The offset is always
// a single i32.const.
type DataSegment struct {
	Offset Value[Expr]
	Bytes  []byte
}

// ComputeOffset returns the literal base address of the segment.
func (d DataSegment) ComputeOffset() (int32, error) {
	return constI32(d.Offset.Value)
}

func constI32(e Expr) (int32, error) {
	if len(e) != 1 || e[0].Value.Opcode != OpI32Const {
		return 0, fmt.Errorf("offset expression is not a single i32.const")
	}
	return e[0].Value.Imm.(I32Imm).Value, nil
}
