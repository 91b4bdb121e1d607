package wasm

import (
	"fmt"
	"math"
	"strings"
)

// Instr is a single instruction. Imm holds the typed immediate for the
// opcode, or nil for opcodes without one. Block, Loop and If own their
// nested bodies; the terminating end and else opcodes are implicit.
type Instr struct {
	Imm    any
	Opcode byte
}

// Expr is an instruction sequence without its trailing end.
type Expr []Value[Instr]

// Immediate types

// BlockImm is the immediate of block and loop.
type BlockImm struct {
	Body Expr
	Type BlockType
}

// IfImm is the immediate of if. HasElse is kept separately so that an
// empty else arm survives a round trip.
type IfImm struct {
	Then    Expr
	Else    Expr
	Type    BlockType
	HasElse bool
}

// LabelImm is the branch depth of br and br_if.
type LabelImm struct {
	Depth uint32
}

// BrTableImm is the immediate of br_table.
type BrTableImm struct {
	Labels  []uint32
	Default uint32
}

// CallImm is the target of call, resolved through the module's FuncRefs.
type CallImm struct {
	Func FuncRef
}

// CallIndirectImm is the immediate of call_indirect.
type CallIndirectImm struct {
	TypeIdx  uint32
	TableIdx uint32
}

// IndexImm is a local, global or table index.
type IndexImm struct {
	Index uint32
}

// MemArg is the alignment and offset of a load or store.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// MemIdxImm is the reserved memory byte of memory.size and memory.grow.
type MemIdxImm struct {
	Mem byte
}

type I32Imm struct{ Value int32 }
type I64Imm struct{ Value int64 }

// F32Imm keeps the raw bits so that NaN payloads survive.
type F32Imm struct{ Bits uint32 }

// F64Imm keeps the raw bits so that NaN payloads survive.
type F64Imm struct{ Bits uint64 }

// MiscImm is a 0xFC-prefixed instruction and its u32 operands.
type MiscImm struct {
	Operands []uint32
	Sub      uint32
}

// Constructors

// Op builds an instruction without immediates.
func Op(op byte) Instr {
	if opcodes[op].imm != immNone {
		panic(fmt.Sprintf("wasm: %s needs an immediate", OpName(op)))
	}
	return Instr{Opcode: op}
}

// Unreachable, Return and Drop build the immediate-free control and
// parametric instructions.
func Unreachable() Instr { return Instr{Opcode: OpUnreachable} }
func Return() Instr      { return Instr{Opcode: OpReturn} }
func Drop() Instr        { return Instr{Opcode: OpDrop} }

// Block builds a block of the given type around body.
func Block(bt BlockType, body ...Instr) Instr {
	return Instr{Opcode: OpBlock, Imm: BlockImm{Type: bt, Body: Instrs(body...)}}
}

// Loop builds a loop of the given type around body.
func Loop(bt BlockType, body ...Instr) Instr {
	return Instr{Opcode: OpLoop, Imm: BlockImm{Type: bt, Body: Instrs(body...)}}
}

// If builds an if without an else arm.
func If(bt BlockType, then ...Instr) Instr {
	return Instr{Opcode: OpIf, Imm: IfImm{Type: bt, Then: Instrs(then...)}}
}

// IfElse builds an if with both arms.
func IfElse(bt BlockType, then, els []Instr) Instr {
	return Instr{Opcode: OpIf, Imm: IfImm{Type: bt, Then: Instrs(then...), Else: Instrs(els...), HasElse: true}}
}

// Br and BrIf branch to the label depth levels out.
func Br(depth uint32) Instr   { return Instr{Opcode: OpBr, Imm: LabelImm{Depth: depth}} }
func BrIf(depth uint32) Instr { return Instr{Opcode: OpBrIf, Imm: LabelImm{Depth: depth}} }

// Call calls the function ref resolves to at encode time.
func Call(ref FuncRef) Instr { return Instr{Opcode: OpCall, Imm: CallImm{Func: ref}} }

// LocalGet, LocalSet, LocalTee, GlobalGet and GlobalSet access the local
// or global at idx.
func LocalGet(idx uint32) Instr  { return Instr{Opcode: OpLocalGet, Imm: IndexImm{Index: idx}} }
func LocalSet(idx uint32) Instr  { return Instr{Opcode: OpLocalSet, Imm: IndexImm{Index: idx}} }
func LocalTee(idx uint32) Instr  { return Instr{Opcode: OpLocalTee, Imm: IndexImm{Index: idx}} }
func GlobalGet(idx uint32) Instr { return Instr{Opcode: OpGlobalGet, Imm: IndexImm{Index: idx}} }
func GlobalSet(idx uint32) Instr { return Instr{Opcode: OpGlobalSet, Imm: IndexImm{Index: idx}} }

// I32Load and I32Store access memory 0 at the given alignment exponent
// and static offset.
func I32Load(align, offset uint32) Instr {
	return Instr{Opcode: OpI32Load, Imm: MemArg{Align: align, Offset: offset}}
}

func I32Store(align, offset uint32) Instr {
	return Instr{Opcode: OpI32Store, Imm: MemArg{Align: align, Offset: offset}}
}

// MemoryGrow and MemorySize operate on memory 0.
func MemoryGrow() Instr { return Instr{Opcode: OpMemoryGrow, Imm: MemIdxImm{}} }
func MemorySize() Instr { return Instr{Opcode: OpMemorySize, Imm: MemIdxImm{}} }

// I32Const, I64Const, F32Const and F64Const push a constant.
func I32Const(v int32) Instr { return Instr{Opcode: OpI32Const, Imm: I32Imm{Value: v}} }
func I64Const(v int64) Instr { return Instr{Opcode: OpI64Const, Imm: I64Imm{Value: v}} }

func F32Const(v float32) Instr {
	return Instr{Opcode: OpF32Const, Imm: F32Imm{Bits: math.Float32bits(v)}}
}

func F64Const(v float64) Instr {
	return Instr{Opcode: OpF64Const, Imm: F64Imm{Bits: math.Float64bits(v)}}
}

// Instrs wraps constructed instructions into an expression with empty
// source ranges.
func Instrs(in ...Instr) Expr {
	out := make(Expr, len(in))
	for i, instr := range in {
		out[i] = NewValue(instr)
	}
	return out
}

// ZeroValue returns the i32.const/i64.const/f32.const/f64.const that
// pushes v of the given type.
func ZeroValue(t ValType, v int32) Instr {
	switch t {
	case ValI64:
		return I64Const(int64(v))
	case ValF32:
		return F32Const(float32(v))
	case ValF64:
		return F64Const(float64(v))
	default:
		return I32Const(v)
	}
}

// IsBlock reports whether the instruction owns nested bodies.
func (i Instr) IsBlock() bool {
	return i.Opcode == OpBlock || i.Opcode == OpLoop || i.Opcode == OpIf
}

// Name returns the mnemonic of the instruction.
func (i Instr) Name() string {
	if i.Opcode == OpPrefixMisc {
		if imm, ok := i.Imm.(MiscImm); ok {
			if name, ok := miscNames[imm.Sub]; ok {
				return name
			}
		}
	}
	return OpName(i.Opcode)
}

func (i Instr) String() string {
	return Format(i, nil)
}

// Format renders a single instruction in text form without its nested
// bodies. When refs is non-nil call targets are resolved to indices.
func Format(i Instr, refs *FuncRefs) string {
	var b strings.Builder
	b.WriteString(i.Name())
	switch imm := i.Imm.(type) {
	case BlockImm:
		if imm.Type != BlockEmpty {
			fmt.Fprintf(&b, " (result %s)", imm.Type)
		}
	case IfImm:
		if imm.Type != BlockEmpty {
			fmt.Fprintf(&b, " (result %s)", imm.Type)
		}
	case LabelImm:
		fmt.Fprintf(&b, " %d", imm.Depth)
	case BrTableImm:
		for _, l := range imm.Labels {
			fmt.Fprintf(&b, " %d", l)
		}
		fmt.Fprintf(&b, " %d", imm.Default)
	case CallImm:
		if refs != nil {
			fmt.Fprintf(&b, " %d", refs.Get(imm.Func))
		} else {
			fmt.Fprintf(&b, " ref#%d", imm.Func)
		}
	case CallIndirectImm:
		fmt.Fprintf(&b, " (type %d)", imm.TypeIdx)
		if imm.TableIdx != 0 {
			fmt.Fprintf(&b, " (table %d)", imm.TableIdx)
		}
	case IndexImm:
		fmt.Fprintf(&b, " %d", imm.Index)
	case MemArg:
		if imm.Offset != 0 {
			fmt.Fprintf(&b, " offset=%d", imm.Offset)
		}
		fmt.Fprintf(&b, " align=%d", uint32(1)<<imm.Align)
	case I32Imm:
		fmt.Fprintf(&b, " %d", imm.Value)
	case I64Imm:
		fmt.Fprintf(&b, " %d", imm.Value)
	case F32Imm:
		fmt.Fprintf(&b, " %v", math.Float32frombits(imm.Bits))
	case F64Imm:
		fmt.Fprintf(&b, " %v", math.Float64frombits(imm.Bits))
	case MiscImm:
		for _, o := range imm.Operands {
			fmt.Fprintf(&b, " %d", o)
		}
	}
	return b.String()
}
