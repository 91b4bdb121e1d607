package coredump

import (
	"github.com/wippyai/wasmedit/errors"
	"github.com/wippyai/wasmedit/wasm"
)

// RecordSection names the custom section holding the raw record in a
// coredump file.
const RecordSection = "core0"

// WriteFile packs a memory snapshot into a coredump file: a module with a
// core0 custom section holding the raw record, followed by one data
// segment that restores the whole memory at address 0.
func WriteFile(mem []byte) ([]byte, error) {
	rec, err := ReadRecord(mem)
	if err != nil {
		return nil, err
	}
	end := rec.End
	if end == 0 {
		end = headerSize
	}

	m := &wasm.Module{}
	m.AppendSection(wasm.NewCustomSection(RecordSection, append([]byte(nil), mem[:end]...)))
	m.AddMemory(wasm.MemoryType{Limits: wasm.Limits{Min: wasm.NewValue(pages(len(mem)))}})
	m.AddData(0, mem)
	return m.Encode(), nil
}

// ReadFile extracts the record from a file written by WriteFile.
func ReadFile(bin []byte) (*Record, error) {
	m, err := wasm.Decode(bin)
	if err != nil {
		return nil, err
	}
	s := m.FindCustomSection(RecordSection)
	if s == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "custom section", RecordSection)
	}
	return ReadRecord(s.CustomData())
}

func pages(n int) uint32 {
	return uint32((n + wasm.PageSize - 1) / wasm.PageSize)
}
