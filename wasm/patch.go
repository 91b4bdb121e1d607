package wasm

import (
	"fmt"

	"github.com/wippyai/wasmedit/errors"
	"github.com/wippyai/wasmedit/wasm/internal/binary"
)

// Patcher edits a copy of the original input in place, one Value at a
// time. Offsets are always given in original-buffer coordinates; the
// patcher shifts them past earlier edits, so enclosing size fields can be
// fixed up after the value they contain.
type Patcher struct {
	buf   []byte
	edits []patchEdit
}

type patchEdit struct {
	start, end int
	delta      int
}

// NewPatcher starts patching a copy of buf.
func NewPatcher(buf []byte) *Patcher {
	return &Patcher{buf: append([]byte(nil), buf...)}
}

// Bytes returns the patched buffer.
func (p *Patcher) Bytes() []byte {
	return p.buf
}

func (p *Patcher) translate(off int) int {
	for _, e := range p.edits {
		if e.end <= off {
			off += e.delta
		}
	}
	return off
}

// Replace substitutes the original range [start, end) with repl and
// returns the change in length. Ranges may not overlap earlier edits.
func (p *Patcher) Replace(start, end int, repl []byte) (int, error) {
	if start < 0 || end < start || p.translate(end) > len(p.buf) {
		return 0, errors.New(errors.PhasePatch, errors.KindOutOfBounds).
			Offset(start).Detail("range [%d, %d) outside of input", start, end).Build()
	}
	if err := p.checkOverlap(start, end); err != nil {
		return 0, err
	}

	s := p.translate(start)
	e := s + (end - start)
	out := make([]byte, 0, len(p.buf)-(e-s)+len(repl))
	out = append(out, p.buf[:s]...)
	out = append(out, repl...)
	out = append(out, p.buf[e:]...)
	p.buf = out

	delta := len(repl) - (end - start)
	p.edits = append(p.edits, patchEdit{start: start, end: end, delta: delta})
	return delta, nil
}

func (p *Patcher) checkOverlap(start, end int) error {
	for _, e := range p.edits {
		if start < e.end && e.start < end {
			return errors.New(errors.PhasePatch, errors.KindOverlap).
				Offset(start).Detail("range [%d, %d) overlaps edited range [%d, %d)", start, end, e.start, e.end).Build()
		}
	}
	return nil
}

// PatchU32 re-encodes v as n. The bytes under v's range must still decode
// to v.Value, which catches values taken from a different buffer.
func (p *Patcher) PatchU32(v Value[uint32], n uint32) (int, error) {
	if !v.HasSpan() {
		return 0, errors.InvalidInput(errors.PhasePatch, "value has no source range; re-encode the module instead")
	}
	if err := p.checkOverlap(v.Start, v.End); err != nil {
		return 0, err
	}
	s := p.translate(v.Start)
	if s+v.Len() > len(p.buf) {
		return 0, errors.New(errors.PhasePatch, errors.KindOutOfBounds).
			Offset(v.Start).Detail("value range [%d, %d) outside of input", v.Start, v.End).Build()
	}
	r := binary.NewReader(p.buf[s : s+v.Len()])
	cur, err := r.ReadU32()
	if err != nil || cur != v.Value || r.Len() != 0 {
		return 0, errors.New(errors.PhasePatch, errors.KindInvalidData).
			Offset(v.Start).Detail("bytes at [%d, %d) do not encode %d", v.Start, v.End, v.Value).Build()
	}

	w := binary.NewWriter()
	w.WriteU32(n)
	return p.Replace(v.Start, v.End, w.Bytes())
}

// PatchSize adds delta to a length prefix. Zero deltas leave it untouched.
func (p *Patcher) PatchSize(size Value[uint32], delta int) (int, error) {
	if delta == 0 {
		return 0, nil
	}
	n := int64(size.Value) + int64(delta)
	if n < 0 || n > int64(^uint32(0)) {
		return 0, errors.New(errors.PhasePatch, errors.KindOverflow).
			Offset(size.Start).Detail("size %d%+d out of range", size.Value, delta).Build()
	}
	return p.PatchU32(size, uint32(n))
}

// UpdateValue replaces v in buf with the encoding of n and returns the new
// buffer with the signed change in length. Enclosing size fields are the
// caller's to fix, using offsets re-derived from the returned buffer.
func UpdateValue(buf []byte, v Value[uint32], n uint32) ([]byte, int, error) {
	p := NewPatcher(buf)
	delta, err := p.PatchU32(v, n)
	if err != nil {
		return nil, 0, err
	}
	return p.Bytes(), delta, nil
}

// SetInitialMemory rewrites the initial page count of the first defined
// memory and of every imported memory directly in buf, fixing the
// enclosing section sizes. m must be the decoding of buf.
func SetInitialMemory(buf []byte, m *Module, pages uint32) ([]byte, error) {
	p := NewPatcher(buf)
	patched := 0

	if ms := FindSection[*MemorySection](m); ms != nil && len(ms.Memories) > 0 {
		limits := ms.Memories[0].Limits
		if err := checkMax(limits, pages, "memory 0"); err != nil {
			return nil, err
		}
		delta, err := p.PatchU32(limits.Min, pages)
		if err != nil {
			return nil, err
		}
		if _, err := p.PatchSize(ms.Size, delta); err != nil {
			return nil, err
		}
		patched++
	}

	if is := FindSection[*ImportSection](m); is != nil {
		total := 0
		for _, imp := range is.Imports {
			if imp.Desc.Kind != KindMemory {
				continue
			}
			limits := imp.Desc.Memory.Limits
			if err := checkMax(limits, pages, imp.Module+"."+imp.Name); err != nil {
				return nil, err
			}
			delta, err := p.PatchU32(limits.Min, pages)
			if err != nil {
				return nil, err
			}
			total += delta
			patched++
		}
		if _, err := p.PatchSize(is.Size, total); err != nil {
			return nil, err
		}
	}

	if patched == 0 {
		return nil, errors.NotFound(errors.PhasePatch, "memory", "0")
	}
	return p.Bytes(), nil
}

func checkMax(l Limits, pages uint32, what string) error {
	if l.Max != nil && pages > *l.Max {
		return errors.InvalidInput(errors.PhasePatch,
			fmt.Sprintf("%s: initial size %d exceeds maximum %d", what, pages, *l.Max))
	}
	return nil
}
