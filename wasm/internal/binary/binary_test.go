package binary

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Offset() != i {
			t.Errorf("offset before read %d: got %d, want %d", i, r.Offset(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	if r.Len() != 0 {
		t.Errorf("Len: got %d, want 0", r.Len())
	}

	_, err := r.ReadByte()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderReadBytes(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	r := NewReader(data)

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}
	got[0] = 0xff
	if data[0] != 0x01 {
		t.Error("ReadBytes must return a copy")
	}

	if _, err := r.ReadBytes(10); err == nil {
		t.Error("expected error for reading past end")
	}
	if r.Offset() != 3 {
		t.Errorf("failed read must not advance: offset %d", r.Offset())
	}
}

func TestReaderSub(t *testing.T) {
	r := NewReader([]byte{0xaa, 0x01, 0x02, 0x03, 0xbb})
	if _, err := r.ReadByte(); err != nil {
		t.Fatal(err)
	}

	sub, err := r.Sub(3)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if sub.Offset() != 1 {
		t.Errorf("sub offset: got %d, want 1", sub.Offset())
	}
	if r.Offset() != 4 {
		t.Errorf("parent offset: got %d, want 4", r.Offset())
	}

	if _, err := sub.ReadBytes(3); err != nil {
		t.Fatalf("sub ReadBytes: %v", err)
	}
	if sub.Offset() != 4 {
		t.Errorf("sub offset after read: got %d, want 4", sub.Offset())
	}
	// the sub-reader must not see the parent's trailing byte
	if _, err := sub.ReadByte(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("sub read past boundary: got %v", err)
	}

	if _, err := r.Sub(2); err == nil {
		t.Error("Sub beyond end should fail")
	}
}

func TestReaderReadU32(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
		{[]byte{0x81, 0x80, 0x00}, 1}, // padded encodings are accepted
	}

	for _, tt := range tests {
		r := NewReader(tt.encoded)
		got, err := r.ReadU32()
		if err != nil {
			t.Errorf("ReadU32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadU32(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadU32Overflow(t *testing.T) {
	tests := [][]byte{
		{0x80, 0x80, 0x80, 0x80, 0x80, 0x01},
		{0xff, 0xff, 0xff, 0xff, 0x1f},
	}
	for _, data := range tests {
		_, err := NewReader(data).ReadU32()
		if !errors.Is(err, ErrOverflow) {
			t.Errorf("ReadU32(%v): expected ErrOverflow, got %v", data, err)
		}
	}
}

func TestReaderReadS32(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0xbf, 0x7f}, -65},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x78}, math.MinInt32},
	}

	for _, tt := range tests {
		got, err := NewReader(tt.encoded).ReadS32()
		if err != nil {
			t.Errorf("ReadS32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadS32(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadS64(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
	}

	for _, tt := range tests {
		got, err := NewReader(tt.encoded).ReadS64()
		if err != nil {
			t.Errorf("ReadS64(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadS64(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadName(t *testing.T) {
	w := NewWriter()
	w.WriteName("hello")

	got, err := NewReader(w.Bytes()).ReadName()
	if err != nil {
		t.Fatalf("ReadName: %v", err)
	}
	if got != "hello" {
		t.Errorf("ReadName: got %q, want %q", got, "hello")
	}

	_, err = NewReader([]byte{0x02, 0xff, 0xfe}).ReadName()
	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestReaderFixedWidth(t *testing.T) {
	w := NewWriter()
	w.WriteU32LE(0x04030201)
	w.WriteF32(1.5)
	w.WriteF64(-2.25)

	r := NewReader(w.Bytes())
	u, err := r.ReadU32LE()
	if err != nil || u != 0x04030201 {
		t.Fatalf("ReadU32LE: got 0x%08x, %v", u, err)
	}
	f32, err := r.ReadF32()
	if err != nil || f32 != 1.5 {
		t.Fatalf("ReadF32: got %v, %v", f32, err)
	}
	f64, err := r.ReadF64()
	if err != nil || f64 != -2.25 {
		t.Fatalf("ReadF64: got %v, %v", f64, err)
	}
	if _, err := r.ReadU32LE(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestWriterWriteU32(t *testing.T) {
	tests := []struct {
		want  []byte
		value uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.WriteU32(tt.value)
		if !bytes.Equal(w.Bytes(), tt.want) {
			t.Errorf("WriteU32(%d): got %v, want %v", tt.value, w.Bytes(), tt.want)
		}
		if U32Size(tt.value) != len(tt.want) {
			t.Errorf("U32Size(%d): got %d, want %d", tt.value, U32Size(tt.value), len(tt.want))
		}
	}
}

func TestWriterWriteS64(t *testing.T) {
	tests := []struct {
		want  []byte
		value int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0xbf, 0x7f}, -65},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.WriteS64(tt.value)
		if !bytes.Equal(w.Bytes(), tt.want) {
			t.Errorf("WriteS64(%d): got %v, want %v", tt.value, w.Bytes(), tt.want)
		}
	}
}

func TestWriterWriteSized(t *testing.T) {
	w := NewWriter()
	w.WriteSized(bytes.Repeat([]byte{0xaa}, 130))
	got := w.Bytes()
	if !bytes.Equal(got[:2], []byte{0x82, 0x01}) {
		t.Errorf("length prefix: got %v", got[:2])
	}
	if len(got) != 132 {
		t.Errorf("Len: got %d, want 132", len(got))
	}
}

// Every value decodes back to itself and the encoding has no redundant
// continuation bytes.
func TestLEB128Minimal(t *testing.T) {
	u32s := []uint32{0, 1, 63, 64, 127, 128, 16383, 16384, 1<<21 - 1, 1 << 21, 1<<28 - 1, 1 << 28, math.MaxUint32}
	for _, v := range u32s {
		w := NewWriter()
		w.WriteU32(v)
		enc := w.Bytes()
		if len(enc) > 1 && enc[len(enc)-1] == 0x00 {
			t.Errorf("WriteU32(%d) not minimal: %x", v, enc)
		}
		got, err := NewReader(enc).ReadU32()
		if err != nil || got != v {
			t.Errorf("u32 %d: got %d, %v", v, got, err)
		}
	}

	s64s := []int64{0, 1, -1, 63, -64, 64, -65, 8191, -8192, math.MaxInt32, math.MinInt32, math.MaxInt64, math.MinInt64}
	for _, v := range s64s {
		w := NewWriter()
		w.WriteS64(v)
		enc := w.Bytes()
		if len(enc) > 1 {
			last, prev := enc[len(enc)-1], enc[len(enc)-2]
			if (last == 0x00 && prev&0x40 == 0) || (last == 0x7f && prev&0x40 != 0) {
				t.Errorf("WriteS64(%d) not minimal: %x", v, enc)
			}
		}
		got, err := NewReader(enc).ReadS64()
		if err != nil || got != v {
			t.Errorf("s64 %d: got %d, %v", v, got, err)
		}
	}

	for _, v := range []int32{0, -1, 64, -65, math.MaxInt32, math.MinInt32} {
		w := NewWriter()
		w.WriteS32(v)
		got, err := NewReader(w.Bytes()).ReadS32()
		if err != nil || got != v {
			t.Errorf("s32 %d: got %d, %v", v, got, err)
		}
	}
}
