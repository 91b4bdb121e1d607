package wasm

import (
	"fmt"

	"github.com/wippyai/wasmedit/wasm/internal/binary"
)

// Encode regenerates the whole binary from the tree. Every length prefix
// is recomputed from the encoded body and written as a minimal LEB128.
// Source ranges are ignored.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)
	for _, s := range m.Sections {
		w.Byte(s.ID())
		w.WriteSized(m.encodeSectionBody(s))
	}
	return w.Bytes()
}

func (m *Module) encodeSectionBody(s Section) []byte {
	w := binary.NewWriter()
	switch s := s.(type) {
	case *TypeSection:
		w.WriteU32(uint32(len(s.Types)))
		for _, ft := range s.Types {
			w.Byte(FuncTypeByte)
			writeValTypes(w, ft.Params)
			writeValTypes(w, ft.Results)
		}
	case *ImportSection:
		w.WriteU32(uint32(len(s.Imports)))
		for _, imp := range s.Imports {
			w.WriteName(imp.Module)
			w.WriteName(imp.Name)
			w.Byte(imp.Desc.Kind)
			switch imp.Desc.Kind {
			case KindFunc:
				w.WriteU32(imp.Desc.TypeIdx.Value)
			case KindTable:
				w.Byte(imp.Desc.Table.ElemType)
				writeLimits(w, imp.Desc.Table.Limits)
			case KindMemory:
				writeLimits(w, imp.Desc.Memory.Limits)
			case KindGlobal:
				writeGlobalType(w, *imp.Desc.Global)
			default:
				panic(fmt.Sprintf("wasm: import kind 0x%02x", imp.Desc.Kind))
			}
		}
	case *FuncSection:
		w.WriteU32(uint32(len(s.TypeIdxs)))
		for _, idx := range s.TypeIdxs {
			w.WriteU32(idx)
		}
	case *TableSection:
		w.WriteU32(uint32(len(s.Tables)))
		for _, t := range s.Tables {
			w.Byte(t.ElemType)
			writeLimits(w, t.Limits)
		}
	case *MemorySection:
		w.WriteU32(uint32(len(s.Memories)))
		for _, mem := range s.Memories {
			writeLimits(w, mem.Limits)
		}
	case *GlobalSection:
		w.WriteU32(uint32(len(s.Globals)))
		for _, g := range s.Globals {
			writeGlobalType(w, g.Type)
			m.writeExpr(w, g.Init.Value)
		}
	case *ExportSection:
		w.WriteU32(uint32(len(s.Exports)))
		for _, e := range s.Exports {
			w.WriteName(e.Name)
			w.Byte(e.Kind)
			w.WriteU32(e.Index.Value)
		}
	case *CodeSection:
		w.WriteU32(uint32(len(s.Funcs)))
		for _, code := range s.Funcs {
			w.WriteSized(m.EncodeCode(code))
		}
	case *DataSection:
		w.WriteU32(uint32(len(s.Segments)))
		for _, seg := range s.Segments {
			w.WriteU32(0)
			m.writeExpr(w, seg.Offset.Value)
			w.WriteU32(uint32(len(seg.Bytes)))
			w.WriteBytes(seg.Bytes)
		}
	case *UnknownSection:
		w.WriteBytes(s.Payload)
	default:
		panic(fmt.Sprintf("wasm: cannot encode section %T", s))
	}
	return w.Bytes()
}

// EncodeCode encodes a function body without its length prefix.
func (m *Module) EncodeCode(code *Code) []byte {
	w := binary.NewWriter()
	w.WriteU32(uint32(len(code.Locals)))
	for _, l := range code.Locals {
		w.WriteU32(l.Count)
		w.Byte(byte(l.Type))
	}
	m.writeExpr(w, code.Body)
	return w.Bytes()
}

// EncodeInstr encodes one instruction, including nested bodies and their
// end opcodes.
func (m *Module) EncodeInstr(in Instr) []byte {
	w := binary.NewWriter()
	m.writeInstr(w, in)
	return w.Bytes()
}

func writeValTypes(w *binary.Writer, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

func writeLimits(w *binary.Writer, l Limits) {
	if l.Max != nil {
		w.Byte(LimitsHasMax)
		w.WriteU32(l.Min.Value)
		w.WriteU32(*l.Max)
		return
	}
	w.Byte(LimitsNoMax)
	w.WriteU32(l.Min.Value)
}

func writeGlobalType(w *binary.Writer, g GlobalType) {
	w.Byte(byte(g.Type))
	if g.Mutable {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

func (m *Module) writeExpr(w *binary.Writer, e Expr) {
	m.writeBody(w, e)
	w.Byte(OpEnd)
}

func (m *Module) writeBody(w *binary.Writer, e Expr) {
	for _, v := range e {
		m.writeInstr(w, v.Value)
	}
}

// immOf asserts the immediate type of an instruction. A mismatch means a
// pass built a malformed instruction.
func immOf[T any](in Instr) T {
	imm, ok := in.Imm.(T)
	if !ok {
		var want T
		panic(fmt.Sprintf("wasm: %s has immediate %T, want %T", OpName(in.Opcode), in.Imm, want))
	}
	return imm
}

func (m *Module) writeInstr(w *binary.Writer, in Instr) {
	kind := opcodes[in.Opcode].imm
	if kind == immInvalid {
		panic(fmt.Sprintf("wasm: cannot encode opcode 0x%02x", in.Opcode))
	}
	w.Byte(in.Opcode)

	switch kind {
	case immNone:
	case immBlock:
		imm := immOf[BlockImm](in)
		w.Byte(byte(imm.Type))
		m.writeExpr(w, imm.Body)
	case immIf:
		imm := immOf[IfImm](in)
		w.Byte(byte(imm.Type))
		m.writeBody(w, imm.Then)
		if imm.HasElse || len(imm.Else) > 0 {
			w.Byte(OpElse)
			m.writeBody(w, imm.Else)
		}
		w.Byte(OpEnd)
	case immLabel:
		w.WriteU32(immOf[LabelImm](in).Depth)
	case immBrTable:
		imm := immOf[BrTableImm](in)
		w.WriteU32(uint32(len(imm.Labels)))
		for _, l := range imm.Labels {
			w.WriteU32(l)
		}
		w.WriteU32(imm.Default)
	case immCall:
		w.WriteU32(m.Refs.Get(immOf[CallImm](in).Func))
	case immCallIndirect:
		imm := immOf[CallIndirectImm](in)
		w.WriteU32(imm.TypeIdx)
		w.WriteU32(imm.TableIdx)
	case immIndex:
		w.WriteU32(immOf[IndexImm](in).Index)
	case immMemArg:
		imm := immOf[MemArg](in)
		w.WriteU32(imm.Align)
		w.WriteU32(imm.Offset)
	case immMemIdx:
		w.Byte(immOf[MemIdxImm](in).Mem)
	case immI32:
		w.WriteS32(immOf[I32Imm](in).Value)
	case immI64:
		w.WriteS64(immOf[I64Imm](in).Value)
	case immF32:
		w.WriteU32LE(immOf[F32Imm](in).Bits)
	case immF64:
		w.WriteU64LE(immOf[F64Imm](in).Bits)
	case immMisc:
		imm := immOf[MiscImm](in)
		w.WriteU32(imm.Sub)
		for _, o := range imm.Operands {
			w.WriteU32(o)
		}
	}
}
