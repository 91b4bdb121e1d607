package wasm

import (
	"github.com/wippyai/wasmedit/wasm/internal/binary"
)

// LEB128 helpers for callers outside this package that need to produce or
// inspect raw bytes, such as the coredump writer.

// AppendU32 appends the minimal unsigned LEB128 encoding of v.
func AppendU32(dst []byte, v uint32) []byte {
	w := binary.NewWriter()
	w.WriteU32(v)
	return append(dst, w.Bytes()...)
}

// AppendS32 appends the minimal signed LEB128 encoding of v.
func AppendS32(dst []byte, v int32) []byte {
	w := binary.NewWriter()
	w.WriteS32(v)
	return append(dst, w.Bytes()...)
}

// ReadU32 decodes an unsigned LEB128 value from the front of data and
// returns it with the number of bytes consumed.
func ReadU32(data []byte) (uint32, int, error) {
	r := binary.NewReader(data)
	v, err := r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	return v, r.Offset(), nil
}

// U32Size returns the length of the minimal LEB128 encoding of v.
func U32Size(v uint32) int {
	return binary.U32Size(v)
}
