// Package wasi builds the guest-side pieces needed to print from an
// instrumented module through wasi_snapshot_preview1.fd_write.
package wasi

import (
	"encoding/binary"

	"github.com/wippyai/wasmedit/wasm"
)

const (
	// Module is the import module name of WASI preview 1.
	Module = "wasi_snapshot_preview1"
	// FdWrite is the import name of fd_write.
	FdWrite = "fd_write"
	// Stdout is the file descriptor fd_write prints to.
	Stdout = 1
	// IovecSize is the size of one iovec: base pointer and length.
	IovecSize = 8
)

// FdWriteType is the signature of fd_write(fd, iovs, iovs_len, nwritten) -> errno.
func FdWriteType() wasm.FuncType {
	return wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI32},
	}
}

// FindFdWrite returns the function index of the fd_write import, if any.
func FindFdWrite(m *wasm.Module) (uint32, bool) {
	var idx uint32
	for _, imp := range m.Imports() {
		if imp.Desc.Kind != wasm.KindFunc {
			continue
		}
		if imp.Module == Module && imp.Name == FdWrite {
			return idx, true
		}
		idx++
	}
	return m.FindImport(FdWrite)
}

// Str lays out a single iovec followed by text, for placement at offset in
// linear memory. The iovec points right past itself.
func Str(offset uint32, text string) []byte {
	out := make([]byte, IovecSize, IovecSize+len(text))
	binary.LittleEndian.PutUint32(out[0:], offset+IovecSize)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(text)))
	return append(out, text...)
}

// Print returns the instructions that write the iovec at iovs to stdout.
// The byte count lands at nwritten and the errno is dropped.
func Print(fdWrite wasm.FuncRef, iovs, nwritten uint32) []wasm.Instr {
	return []wasm.Instr{
		wasm.I32Const(Stdout),
		wasm.I32Const(int32(iovs)),
		wasm.I32Const(1),
		wasm.I32Const(int32(nwritten)),
		wasm.Call(fdWrite),
		wasm.Drop(),
	}
}
