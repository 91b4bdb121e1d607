package wasm

import (
	stderrors "errors"
	"io"

	"github.com/wippyai/wasmedit/errors"
	"github.com/wippyai/wasmedit/wasm/internal/binary"
)

// Decode parses a binary module. Every patchable scalar records the byte
// range it came from; sections this package does not interpret are kept
// verbatim. Any malformed or unsupported construct fails the whole decode.
func Decode(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32LE()
	if err != nil || magic != Magic {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Offset(0).Detail("invalid magic number").Build()
	}
	version, err := r.ReadU32LE()
	if err != nil || version != Version {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Offset(4).Value(version).Detail("unsupported version %d", version).Build()
	}

	m := &Module{}
	d := &decoder{m: m}
	for r.Len() > 0 {
		sec, err := d.readSection(r)
		if err != nil {
			return nil, err
		}
		m.Sections = append(m.Sections, sec)
	}
	return m, nil
}

type decoder struct {
	m       *Module
	section string
}

// wrap turns a reader failure into a decode error at off.
func (d *decoder) wrap(off int, err error) error {
	var we *errors.Error
	if stderrors.As(err, &we) {
		return err
	}
	kind := errors.KindInvalidData
	switch {
	case stderrors.Is(err, io.ErrUnexpectedEOF):
		kind = errors.KindTruncated
	case stderrors.Is(err, binary.ErrOverflow):
		kind = errors.KindOverflow
	}
	return errors.New(errors.PhaseDecode, kind).
		Section(d.section).Offset(off).Cause(err).Build()
}

func (d *decoder) errorf(kind errors.Kind, off int, format string, args ...any) error {
	return errors.New(errors.PhaseDecode, kind).
		Section(d.section).Offset(off).Detail(format, args...).Build()
}

func (d *decoder) readSection(r *binary.Reader) (Section, error) {
	id, err := r.ReadByte()
	if err != nil {
		return nil, d.wrap(r.Offset(), err)
	}
	d.section = SectionName(id)

	size, err := d.readU32Value(r)
	if err != nil {
		return nil, err
	}
	body, err := r.Sub(int(size.Value))
	if err != nil {
		return nil, d.errorf(errors.KindTruncated, size.End,
			"section declares %d bytes, %d remain", size.Value, r.Len())
	}

	var sec Section
	switch id {
	case SectionType:
		sec, err = d.typeSection(body, size)
	case SectionImport:
		sec, err = d.importSection(body, size)
	case SectionFunction:
		sec, err = d.funcSection(body, size)
	case SectionTable:
		sec, err = d.tableSection(body, size)
	case SectionMemory:
		sec, err = d.memorySection(body, size)
	case SectionGlobal:
		sec, err = d.globalSection(body, size)
	case SectionExport:
		sec, err = d.exportSection(body, size)
	case SectionCode:
		sec, err = d.codeSection(body, size)
	case SectionData:
		sec, err = d.dataSection(body, size)
	default:
		return &UnknownSection{Tag: id, Size: size, Payload: body.ReadRemaining()}, nil
	}
	if err != nil {
		return nil, err
	}
	if body.Len() != 0 {
		return nil, d.errorf(errors.KindInvalidData, body.Offset(), "%d trailing bytes", body.Len())
	}
	return sec, nil
}

func (d *decoder) readU32Value(r *binary.Reader) (Value[uint32], error) {
	start := r.Offset()
	v, err := r.ReadU32()
	if err != nil {
		return Value[uint32]{}, d.wrap(r.Offset(), err)
	}
	return Value[uint32]{Value: v, Start: start, End: r.Offset()}, nil
}

func (d *decoder) readU32(r *binary.Reader) (uint32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, d.wrap(r.Offset(), err)
	}
	return v, nil
}

// readCount reads a vector length. Every element takes at least one byte,
// so a count larger than what is left is truncated input.
func (d *decoder) readCount(r *binary.Reader) (int, error) {
	off := r.Offset()
	n, err := d.readU32(r)
	if err != nil {
		return 0, err
	}
	if int(n) > r.Len() {
		return 0, d.errorf(errors.KindTruncated, off, "vector of %d entries in %d bytes", n, r.Len())
	}
	return int(n), nil
}

func (d *decoder) readName(r *binary.Reader) (string, error) {
	s, err := r.ReadName()
	if err != nil {
		return "", d.wrap(r.Offset(), err)
	}
	return s, nil
}

func (d *decoder) readValType(r *binary.Reader) (ValType, error) {
	off := r.Offset()
	b, err := r.ReadByte()
	if err != nil {
		return 0, d.wrap(off, err)
	}
	if !validValType(b) {
		return 0, d.errorf(errors.KindUnsupported, off, "value type 0x%02x", b)
	}
	return ValType(b), nil
}

func (d *decoder) readValTypes(r *binary.Reader) ([]ValType, error) {
	n, err := d.readCount(r)
	if err != nil {
		return nil, err
	}
	out := make([]ValType, n)
	for i := range out {
		if out[i], err = d.readValType(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *decoder) typeSection(r *binary.Reader, size Value[uint32]) (*TypeSection, error) {
	n, err := d.readCount(r)
	if err != nil {
		return nil, err
	}
	sec := &TypeSection{Size: size, Types: make([]FuncType, 0, n)}
	for i := 0; i < n; i++ {
		off := r.Offset()
		form, err := r.ReadByte()
		if err != nil {
			return nil, d.wrap(off, err)
		}
		if form != FuncTypeByte {
			return nil, d.errorf(errors.KindUnsupported, off, "type form 0x%02x", form)
		}
		var ft FuncType
		if ft.Params, err = d.readValTypes(r); err != nil {
			return nil, err
		}
		if ft.Results, err = d.readValTypes(r); err != nil {
			return nil, err
		}
		sec.Types = append(sec.Types, ft)
	}
	return sec, nil
}

func (d *decoder) readLimits(r *binary.Reader) (Limits, error) {
	off := r.Offset()
	flag, err := r.ReadByte()
	if err != nil {
		return Limits{}, d.wrap(off, err)
	}
	if flag != LimitsNoMax && flag != LimitsHasMax {
		return Limits{}, d.errorf(errors.KindUnsupported, off, "limits flag 0x%02x", flag)
	}
	var l Limits
	if l.Min, err = d.readU32Value(r); err != nil {
		return Limits{}, err
	}
	if flag == LimitsHasMax {
		max, err := d.readU32(r)
		if err != nil {
			return Limits{}, err
		}
		l.Max = &max
	}
	return l, nil
}

func (d *decoder) readTableType(r *binary.Reader) (TableType, error) {
	off := r.Offset()
	elem, err := r.ReadByte()
	if err != nil {
		return TableType{}, d.wrap(off, err)
	}
	if elem != RefFunc && elem != RefExtern {
		return TableType{}, d.errorf(errors.KindUnsupported, off, "table element type 0x%02x", elem)
	}
	limits, err := d.readLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: elem, Limits: limits}, nil
}

func (d *decoder) readGlobalType(r *binary.Reader) (GlobalType, error) {
	t, err := d.readValType(r)
	if err != nil {
		return GlobalType{}, err
	}
	off := r.Offset()
	mut, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, d.wrap(off, err)
	}
	if mut > 1 {
		return GlobalType{}, d.errorf(errors.KindInvalidData, off, "mutability flag 0x%02x", mut)
	}
	return GlobalType{Type: t, Mutable: mut == 1}, nil
}

func (d *decoder) importSection(r *binary.Reader, size Value[uint32]) (*ImportSection, error) {
	n, err := d.readCount(r)
	if err != nil {
		return nil, err
	}
	sec := &ImportSection{Size: size, Imports: make([]Import, 0, n)}
	for i := 0; i < n; i++ {
		var imp Import
		if imp.Module, err = d.readName(r); err != nil {
			return nil, err
		}
		if imp.Name, err = d.readName(r); err != nil {
			return nil, err
		}
		off := r.Offset()
		kind, err := r.ReadByte()
		if err != nil {
			return nil, d.wrap(off, err)
		}
		imp.Desc.Kind = kind
		switch kind {
		case KindFunc:
			imp.Desc.TypeIdx, err = d.readU32Value(r)
		case KindTable:
			var t TableType
			t, err = d.readTableType(r)
			imp.Desc.Table = &t
		case KindMemory:
			var l Limits
			l, err = d.readLimits(r)
			imp.Desc.Memory = &MemoryType{Limits: l}
		case KindGlobal:
			var g GlobalType
			g, err = d.readGlobalType(r)
			imp.Desc.Global = &g
		default:
			return nil, d.errorf(errors.KindUnsupported, off, "import kind 0x%02x", kind)
		}
		if err != nil {
			return nil, err
		}
		sec.Imports = append(sec.Imports, imp)
	}
	return sec, nil
}

func (d *decoder) funcSection(r *binary.Reader, size Value[uint32]) (*FuncSection, error) {
	n, err := d.readCount(r)
	if err != nil {
		return nil, err
	}
	sec := &FuncSection{Size: size, TypeIdxs: make([]uint32, n)}
	for i := range sec.TypeIdxs {
		if sec.TypeIdxs[i], err = d.readU32(r); err != nil {
			return nil, err
		}
	}
	return sec, nil
}

func (d *decoder) tableSection(r *binary.Reader, size Value[uint32]) (*TableSection, error) {
	n, err := d.readCount(r)
	if err != nil {
		return nil, err
	}
	sec := &TableSection{Size: size, Tables: make([]TableType, n)}
	for i := range sec.Tables {
		if sec.Tables[i], err = d.readTableType(r); err != nil {
			return nil, err
		}
	}
	return sec, nil
}

func (d *decoder) memorySection(r *binary.Reader, size Value[uint32]) (*MemorySection, error) {
	n, err := d.readCount(r)
	if err != nil {
		return nil, err
	}
	sec := &MemorySection{Size: size, Memories: make([]MemoryType, n)}
	for i := range sec.Memories {
		if sec.Memories[i].Limits, err = d.readLimits(r); err != nil {
			return nil, err
		}
	}
	return sec, nil
}

func (d *decoder) globalSection(r *binary.Reader, size Value[uint32]) (*GlobalSection, error) {
	n, err := d.readCount(r)
	if err != nil {
		return nil, err
	}
	sec := &GlobalSection{Size: size, Globals: make([]Global, n)}
	for i := range sec.Globals {
		if sec.Globals[i].Type, err = d.readGlobalType(r); err != nil {
			return nil, err
		}
		if sec.Globals[i].Init, err = d.readConstExpr(r); err != nil {
			return nil, err
		}
	}
	return sec, nil
}

func (d *decoder) exportSection(r *binary.Reader, size Value[uint32]) (*ExportSection, error) {
	n, err := d.readCount(r)
	if err != nil {
		return nil, err
	}
	sec := &ExportSection{Size: size, Exports: make([]Export, n)}
	for i := range sec.Exports {
		e := &sec.Exports[i]
		if e.Name, err = d.readName(r); err != nil {
			return nil, err
		}
		off := r.Offset()
		if e.Kind, err = r.ReadByte(); err != nil {
			return nil, d.wrap(off, err)
		}
		if e.Kind > KindGlobal {
			return nil, d.errorf(errors.KindUnsupported, off, "export kind 0x%02x", e.Kind)
		}
		if e.Index, err = d.readU32Value(r); err != nil {
			return nil, err
		}
	}
	return sec, nil
}

func (d *decoder) codeSection(r *binary.Reader, size Value[uint32]) (*CodeSection, error) {
	n, err := d.readCount(r)
	if err != nil {
		return nil, err
	}
	sec := &CodeSection{Size: size, Funcs: make([]*Code, 0, n)}
	for i := 0; i < n; i++ {
		code, err := d.readCode(r)
		if err != nil {
			return nil, err
		}
		sec.Funcs = append(sec.Funcs, code)
	}
	return sec, nil
}

func (d *decoder) readCode(r *binary.Reader) (*Code, error) {
	size, err := d.readU32Value(r)
	if err != nil {
		return nil, err
	}
	body, err := r.Sub(int(size.Value))
	if err != nil {
		return nil, d.errorf(errors.KindTruncated, size.End,
			"function body declares %d bytes, %d remain", size.Value, r.Len())
	}

	code := &Code{Size: size}
	groups, err := d.readCount(body)
	if err != nil {
		return nil, err
	}
	code.Locals = make([]Local, groups)
	for i := range code.Locals {
		if code.Locals[i].Count, err = d.readU32(body); err != nil {
			return nil, err
		}
		if code.Locals[i].Type, err = d.readValType(body); err != nil {
			return nil, err
		}
	}

	if code.Body, _, err = d.readExpr(body, false); err != nil {
		return nil, err
	}
	if body.Len() != 0 {
		return nil, d.errorf(errors.KindInvalidData, body.Offset(),
			"%d bytes after the end of a function body", body.Len())
	}
	return code, nil
}

func (d *decoder) dataSection(r *binary.Reader, size Value[uint32]) (*DataSection, error) {
	n, err := d.readCount(r)
	if err != nil {
		return nil, err
	}
	sec := &DataSection{Size: size, Segments: make([]DataSegment, n)}
	for i := range sec.Segments {
		off := r.Offset()
		mode, err := d.readU32(r)
		if err != nil {
			return nil, err
		}
		if mode != 0 {
			return nil, d.errorf(errors.KindUnsupported, off, "data segment mode %d", mode)
		}
		seg := &sec.Segments[i]
		if seg.Offset, err = d.readConstExpr(r); err != nil {
			return nil, err
		}
		if _, err := seg.ComputeOffset(); err != nil {
			return nil, d.errorf(errors.KindUnsupported, seg.Offset.Start, "data segment %d: %v", i, err)
		}
		length, err := d.readU32(r)
		if err != nil {
			return nil, err
		}
		if seg.Bytes, err = r.ReadBytes(int(length)); err != nil {
			return nil, d.wrap(r.Offset(), err)
		}
	}
	return sec, nil
}

func (d *decoder) readConstExpr(r *binary.Reader) (Value[Expr], error) {
	start := r.Offset()
	expr, _, err := d.readExpr(r, false)
	if err != nil {
		return Value[Expr]{}, err
	}
	return Value[Expr]{Value: expr, Start: start, End: r.Offset()}, nil
}

// readExpr decodes instructions up to the terminating end. With allowElse
// an else also terminates the sequence. The terminator is consumed, not
// stored, and returned to the caller.
func (d *decoder) readExpr(r *binary.Reader, allowElse bool) (Expr, byte, error) {
	var out Expr
	for {
		start := r.Offset()
		op, err := r.ReadByte()
		if err != nil {
			return nil, 0, d.wrap(start, err)
		}
		switch op {
		case OpEnd:
			return out, op, nil
		case OpElse:
			if allowElse {
				return out, op, nil
			}
			return nil, 0, d.errorf(errors.KindInvalidData, start, "else outside of if")
		}
		instr, err := d.readInstr(r, op, start)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, Value[Instr]{Value: instr, Start: start, End: r.Offset()})
	}
}

func (d *decoder) readBlockType(r *binary.Reader) (BlockType, error) {
	off := r.Offset()
	b, err := r.ReadByte()
	if err != nil {
		return 0, d.wrap(off, err)
	}
	if BlockType(b) != BlockEmpty && !validValType(b) {
		return 0, d.errorf(errors.KindUnsupported, off, "block type 0x%02x", b)
	}
	return BlockType(b), nil
}

func (d *decoder) readInstr(r *binary.Reader, op byte, start int) (Instr, error) {
	in := Instr{Opcode: op}

	var err error
	u32 := func() uint32 {
		if err != nil {
			return 0
		}
		var v uint32
		v, err = r.ReadU32()
		return v
	}

	switch opcodes[op].imm {
	case immInvalid:
		return in, errors.New(errors.PhaseDecode, errors.KindUnsupported).
			Section(d.section).Offset(start).Value(op).
			Detail("unknown opcode 0x%02x", op).Build()
	case immNone:
	case immBlock:
		bt, err := d.readBlockType(r)
		if err != nil {
			return in, err
		}
		body, _, err := d.readExpr(r, false)
		if err != nil {
			return in, err
		}
		in.Imm = BlockImm{Type: bt, Body: body}
		return in, nil
	case immIf:
		bt, err := d.readBlockType(r)
		if err != nil {
			return in, err
		}
		then, term, err := d.readExpr(r, true)
		if err != nil {
			return in, err
		}
		imm := IfImm{Type: bt, Then: then}
		if term == OpElse {
			if imm.Else, _, err = d.readExpr(r, false); err != nil {
				return in, err
			}
			imm.HasElse = true
		}
		in.Imm = imm
		return in, nil
	case immLabel:
		in.Imm = LabelImm{Depth: u32()}
	case immBrTable:
		n, cerr := d.readCount(r)
		if cerr != nil {
			return in, cerr
		}
		imm := BrTableImm{Labels: make([]uint32, n)}
		for i := range imm.Labels {
			imm.Labels[i] = u32()
		}
		imm.Default = u32()
		in.Imm = imm
	case immCall:
		idx := u32()
		in.Imm = CallImm{Func: d.m.Refs.New(idx)}
	case immCallIndirect:
		in.Imm = CallIndirectImm{TypeIdx: u32(), TableIdx: u32()}
	case immIndex:
		in.Imm = IndexImm{Index: u32()}
	case immMemArg:
		in.Imm = MemArg{Align: u32(), Offset: u32()}
	case immMemIdx:
		var b byte
		b, err = r.ReadByte()
		in.Imm = MemIdxImm{Mem: b}
	case immI32:
		var v int32
		v, err = r.ReadS32()
		in.Imm = I32Imm{Value: v}
	case immI64:
		var v int64
		v, err = r.ReadS64()
		in.Imm = I64Imm{Value: v}
	case immF32:
		var v uint32
		v, err = r.ReadU32LE()
		in.Imm = F32Imm{Bits: v}
	case immF64:
		var v uint64
		v, err = r.ReadU64LE()
		in.Imm = F64Imm{Bits: v}
	case immMisc:
		sub := u32()
		if err != nil {
			break
		}
		if _, ok := miscNames[sub]; !ok {
			return in, errors.New(errors.PhaseDecode, errors.KindUnsupported).
				Section(d.section).Offset(start).Value(sub).
				Detail("unknown opcode 0xfc %d", sub).Build()
		}
		imm := MiscImm{Sub: sub}
		for i := 0; i < miscArity[sub]; i++ {
			imm.Operands = append(imm.Operands, u32())
		}
		in.Imm = imm
	}
	if err != nil {
		return in, d.wrap(r.Offset(), err)
	}
	return in, nil
}
