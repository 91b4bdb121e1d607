package coredump

import (
	"encoding/binary"
	"fmt"

	"github.com/wippyai/wasmedit/errors"
)

// Frame is one recorded function activation.
type Frame struct {
	Values  []uint32
	FuncIdx uint32
}

// Record is the stack left in memory by an instrumented module.
type Record struct {
	// Frames are ordered innermost first.
	Frames []Frame
	// End is the next frame offset from the header, 0 if nothing was
	// recorded.
	End uint32
}

// ReadRecord decodes the record at the start of mem.
func ReadRecord(mem []byte) (*Record, error) {
	if len(mem) < headerSize {
		return nil, errors.Truncated(errors.PhaseLoad, len(mem), fmt.Errorf("memory holds %d bytes", len(mem)))
	}
	le := binary.LittleEndian
	count := le.Uint32(mem[countOffset:])
	rec := &Record{End: le.Uint32(mem[nextOffset:])}

	pos := uint64(headerSize)
	for i := uint32(0); i < count; i++ {
		if pos+frameHeader > uint64(len(mem)) {
			return nil, frameError(i, pos, "frame header past end of memory")
		}
		f := Frame{FuncIdx: le.Uint32(mem[pos:])}
		n := uint64(le.Uint32(mem[pos+word:]))
		pos += frameHeader
		if pos+n*word > uint64(len(mem)) {
			return nil, frameError(i, pos, fmt.Sprintf("%d values past end of memory", n))
		}
		f.Values = make([]uint32, n)
		for j := range f.Values {
			f.Values[j] = le.Uint32(mem[pos:])
			pos += word
		}
		rec.Frames = append(rec.Frames, f)
	}

	if count > 0 && uint64(rec.End) != pos {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Offset(nextOffset).
			Detail("next frame offset %d does not match the end of frame %d at %d", rec.End, count-1, pos).
			Build()
	}
	return rec, nil
}

func frameError(i uint32, pos uint64, detail string) error {
	return errors.New(errors.PhaseLoad, errors.KindOutOfBounds).
		Path(fmt.Sprintf("frame[%d]", i)).
		Offset(int(pos)).
		Detail("%s", detail).
		Build()
}

// FuncIdxs returns the recorded function indices, innermost first.
func (r *Record) FuncIdxs() []uint32 {
	out := make([]uint32, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = f.FuncIdx
	}
	return out
}
