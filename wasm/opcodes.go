package wasm

import "fmt"

type immKind uint8

const (
	immInvalid immKind = iota
	immNone
	immBlock
	immIf
	immLabel
	immBrTable
	immCall
	immCallIndirect
	immIndex
	immMemArg
	immMemIdx
	immI32
	immI64
	immF32
	immF64
	immMisc
)

type opInfo struct {
	name string
	imm  immKind
}

// opcodes drives decoding, encoding and printing. A zero entry is an
// opcode this package does not understand.
var opcodes [256]opInfo

var miscNames = map[uint32]string{
	0x00: "i32.trunc_sat_f32_s",
	0x01: "i32.trunc_sat_f32_u",
	0x02: "i32.trunc_sat_f64_s",
	0x03: "i32.trunc_sat_f64_u",
	0x04: "i64.trunc_sat_f32_s",
	0x05: "i64.trunc_sat_f32_u",
	0x06: "i64.trunc_sat_f64_s",
	0x07: "i64.trunc_sat_f64_u",
	0x08: "memory.init",
	0x09: "data.drop",
	0x0A: "memory.copy",
	0x0B: "memory.fill",
}

// miscArity is the number of u32 operands following each misc sub-opcode.
var miscArity = map[uint32]int{
	MiscMemoryInit: 2,
	MiscDataDrop:   1,
	MiscMemoryCopy: 2,
	MiscMemoryFill: 1,
}

func init() {
	set := func(op byte, name string, imm immKind) {
		opcodes[op] = opInfo{name: name, imm: imm}
	}

	set(OpUnreachable, "unreachable", immNone)
	set(OpNop, "nop", immNone)
	set(OpBlock, "block", immBlock)
	set(OpLoop, "loop", immBlock)
	set(OpIf, "if", immIf)
	set(OpBr, "br", immLabel)
	set(OpBrIf, "br_if", immLabel)
	set(OpBrTable, "br_table", immBrTable)
	set(OpReturn, "return", immNone)
	set(OpCall, "call", immCall)
	set(OpCallIndirect, "call_indirect", immCallIndirect)

	set(OpDrop, "drop", immNone)
	set(OpSelect, "select", immNone)

	set(OpLocalGet, "local.get", immIndex)
	set(OpLocalSet, "local.set", immIndex)
	set(OpLocalTee, "local.tee", immIndex)
	set(OpGlobalGet, "global.get", immIndex)
	set(OpGlobalSet, "global.set", immIndex)
	set(OpTableGet, "table.get", immIndex)
	set(OpTableSet, "table.set", immIndex)

	for i, name := range memoryOpNames {
		set(0x28+byte(i), name, immMemArg)
	}
	set(OpMemorySize, "memory.size", immMemIdx)
	set(OpMemoryGrow, "memory.grow", immMemIdx)

	set(OpI32Const, "i32.const", immI32)
	set(OpI64Const, "i64.const", immI64)
	set(OpF32Const, "f32.const", immF32)
	set(OpF64Const, "f64.const", immF64)

	for i, name := range numericOpNames {
		set(OpI32Eqz+byte(i), name, immNone)
	}

	set(OpPrefixMisc, "misc", immMisc)
}

var memoryOpNames = [...]string{
	"i32.load", "i64.load", "f32.load", "f64.load",
	"i32.load8_s", "i32.load8_u", "i32.load16_s", "i32.load16_u",
	"i64.load8_s", "i64.load8_u", "i64.load16_s", "i64.load16_u",
	"i64.load32_s", "i64.load32_u",
	"i32.store", "i64.store", "f32.store", "f64.store",
	"i32.store8", "i32.store16", "i64.store8", "i64.store16", "i64.store32",
}

// numericOpNames covers the contiguous immediate-free range 0x45-0xC4.
var numericOpNames = [...]string{
	"i32.eqz", "i32.eq", "i32.ne", "i32.lt_s", "i32.lt_u", "i32.gt_s", "i32.gt_u",
	"i32.le_s", "i32.le_u", "i32.ge_s", "i32.ge_u",
	"i64.eqz", "i64.eq", "i64.ne", "i64.lt_s", "i64.lt_u", "i64.gt_s", "i64.gt_u",
	"i64.le_s", "i64.le_u", "i64.ge_s", "i64.ge_u",
	"f32.eq", "f32.ne", "f32.lt", "f32.gt", "f32.le", "f32.ge",
	"f64.eq", "f64.ne", "f64.lt", "f64.gt", "f64.le", "f64.ge",
	"i32.clz", "i32.ctz", "i32.popcnt", "i32.add", "i32.sub", "i32.mul",
	"i32.div_s", "i32.div_u", "i32.rem_s", "i32.rem_u", "i32.and", "i32.or",
	"i32.xor", "i32.shl", "i32.shr_s", "i32.shr_u", "i32.rotl", "i32.rotr",
	"i64.clz", "i64.ctz", "i64.popcnt", "i64.add", "i64.sub", "i64.mul",
	"i64.div_s", "i64.div_u", "i64.rem_s", "i64.rem_u", "i64.and", "i64.or",
	"i64.xor", "i64.shl", "i64.shr_s", "i64.shr_u", "i64.rotl", "i64.rotr",
	"f32.abs", "f32.neg", "f32.ceil", "f32.floor", "f32.trunc", "f32.nearest",
	"f32.sqrt", "f32.add", "f32.sub", "f32.mul", "f32.div", "f32.min", "f32.max",
	"f32.copysign",
	"f64.abs", "f64.neg", "f64.ceil", "f64.floor", "f64.trunc", "f64.nearest",
	"f64.sqrt", "f64.add", "f64.sub", "f64.mul", "f64.div", "f64.min", "f64.max",
	"f64.copysign",
	"i32.wrap_i64", "i32.trunc_f32_s", "i32.trunc_f32_u", "i32.trunc_f64_s",
	"i32.trunc_f64_u", "i64.extend_i32_s", "i64.extend_i32_u", "i64.trunc_f32_s",
	"i64.trunc_f32_u", "i64.trunc_f64_s", "i64.trunc_f64_u",
	"f32.convert_i32_s", "f32.convert_i32_u", "f32.convert_i64_s",
	"f32.convert_i64_u", "f32.demote_f64",
	"f64.convert_i32_s", "f64.convert_i32_u", "f64.convert_i64_s",
	"f64.convert_i64_u", "f64.promote_f32",
	"i32.reinterpret_f32", "i64.reinterpret_f64", "f32.reinterpret_i32",
	"f64.reinterpret_i64",
	"i32.extend8_s", "i32.extend16_s", "i64.extend8_s", "i64.extend16_s",
	"i64.extend32_s",
}

// OpName returns the text-format mnemonic of an opcode.
func OpName(op byte) string {
	if name := opcodes[op].name; name != "" {
		return name
	}
	return fmt.Sprintf("<0x%02x>", op)
}

// KnownOpcode reports whether op can be decoded and encoded.
func KnownOpcode(op byte) bool {
	return opcodes[op].imm != immInvalid
}
