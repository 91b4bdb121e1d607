package coredump_test

import (
	"encoding/binary"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasmedit/coredump"
	"github.com/wippyai/wasmedit/errors"
	"github.com/wippyai/wasmedit/wasm"
)

func words(ws ...uint32) []byte {
	out := make([]byte, 4*len(ws))
	for i, w := range ws {
		binary.LittleEndian.PutUint32(out[4*i:], w)
	}
	return out
}

func TestReadRecord(t *testing.T) {
	tests := []struct {
		name string
		mem  []byte
		want []coredump.Frame
		kind errors.Kind
	}{
		{
			name: "empty",
			mem:  words(0, 0),
		},
		{
			name: "two frames",
			mem:  append(words(2, 36, 3, 2, 10, 11, 5, 1, 20), 0xff, 0xff),
			want: []coredump.Frame{
				{FuncIdx: 3, Values: []uint32{10, 11}},
				{FuncIdx: 5, Values: []uint32{20}},
			},
		},
		{
			name: "short header",
			mem:  []byte{1, 0, 0},
			kind: errors.KindTruncated,
		},
		{
			name: "frame past end",
			mem:  words(1, 0, 3),
			kind: errors.KindOutOfBounds,
		},
		{
			name: "values past end",
			mem:  words(1, 28, 3, 5, 1),
			kind: errors.KindOutOfBounds,
		},
		{
			name: "next offset disagrees",
			mem:  words(1, 40, 3, 1, 10),
			kind: errors.KindInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := coredump.ReadRecord(tt.mem)
			if tt.kind != "" {
				assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: tt.kind}), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Frames)
		})
	}
}

func TestWriteFile(t *testing.T) {
	mem := make([]byte, wasm.PageSize)
	copy(mem, words(1, 20, 7, 1, 42))
	mem[100] = 0xab

	bin, err := coredump.WriteFile(mem)
	require.NoError(t, err)

	m, err := wasm.Decode(bin)
	require.NoError(t, err)
	core := m.FindCustomSection(coredump.RecordSection)
	require.NotNil(t, core)
	assert.Equal(t, mem[:20], core.CustomData())

	require.Len(t, m.Memories(), 1)
	assert.Equal(t, uint32(1), m.Memories()[0].Limits.Min.Value)
	data := wasm.FindSection[*wasm.DataSection](m)
	require.NotNil(t, data)
	assert.Equal(t, mem, data.Segments[0].Bytes)

	rec, err := coredump.ReadFile(bin)
	require.NoError(t, err)
	assert.Equal(t, []coredump.Frame{{FuncIdx: 7, Values: []uint32{42}}}, rec.Frames)
}

func TestReadFile_MissingSection(t *testing.T) {
	m := &wasm.Module{}
	_, err := coredump.ReadFile(m.Encode())
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotFound}))
}
