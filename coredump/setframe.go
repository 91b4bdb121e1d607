package coredump

import "github.com/wippyai/wasmedit/wasm"

const (
	countOffset = 0
	nextOffset  = 4
	headerSize  = 8
	frameHeader = 8
	word        = 4
	alignWord   = 2 // log2(4)
)

// addSetFrame adds set_frame for n values: (funcidx, v0 .. vn-1) -> ().
// It appends one frame at the next frame offset and bumps the header.
func addSetFrame(m *wasm.Module, n int) uint32 {
	params := make([]wasm.ValType, n+1)
	for i := range params {
		params[i] = wasm.ValI32
	}
	typeIdx := m.AddType(wasm.FuncType{Params: params})
	base := uint32(n + 1)

	body := []wasm.Instr{
		wasm.I32Const(nextOffset),
		wasm.I32Load(alignWord, 0),
		wasm.LocalTee(base),
		wasm.Op(wasm.OpI32Eqz),
		wasm.If(wasm.BlockEmpty,
			wasm.I32Const(headerSize),
			wasm.LocalSet(base),
		),

		wasm.LocalGet(base),
		wasm.LocalGet(0),
		wasm.I32Store(alignWord, 0),

		wasm.LocalGet(base),
		wasm.I32Const(int32(n)),
		wasm.I32Store(alignWord, word),
	}
	for i := 0; i < n; i++ {
		body = append(body,
			wasm.LocalGet(base),
			wasm.LocalGet(uint32(i+1)),
			wasm.I32Store(alignWord, uint32(frameHeader+word*i)),
		)
	}
	body = append(body,
		wasm.I32Const(countOffset),
		wasm.I32Const(countOffset),
		wasm.I32Load(alignWord, 0),
		wasm.I32Const(1),
		wasm.Op(wasm.OpI32Add),
		wasm.I32Store(alignWord, 0),

		wasm.I32Const(nextOffset),
		wasm.LocalGet(base),
		wasm.I32Const(int32(frameHeader+word*n)),
		wasm.Op(wasm.OpI32Add),
		wasm.I32Store(alignWord, 0),
	)

	return m.AddFunction(&wasm.Code{
		Locals: []wasm.Local{{Count: 1, Type: wasm.ValI32}},
		Body:   wasm.Instrs(body...),
	}, typeIdx)
}

// addUnreachableShim adds a () -> () function raising the unwinding flag.
func addUnreachableShim(m *wasm.Module, isUnwinding uint32) uint32 {
	typeIdx := m.AddType(wasm.FuncType{})
	return m.AddFunction(&wasm.Code{
		Body: wasm.Instrs(wasm.I32Const(1), wasm.GlobalSet(isUnwinding)),
	}, typeIdx)
}

// toI32 converts the value of type t on top of the stack to i32 without
// trapping.
func toI32(t wasm.ValType) []wasm.Instr {
	switch t {
	case wasm.ValI64:
		return []wasm.Instr{wasm.Op(wasm.OpI32WrapI64)}
	case wasm.ValF32:
		return []wasm.Instr{wasm.Op(wasm.OpI32ReinterpretF32)}
	case wasm.ValF64:
		return []wasm.Instr{wasm.Op(wasm.OpI64ReinterpretF64), wasm.Op(wasm.OpI32WrapI64)}
	default:
		return nil
	}
}
