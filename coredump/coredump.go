package coredump

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/wasmedit/errors"
	"github.com/wippyai/wasmedit/traverse"
	"github.com/wippyai/wasmedit/wasm"
)

// Marker names the custom section left in instrumented modules.
const Marker = "wasmedit.coredump"

// MarkerVersion is the payload of the Marker section. It must not be
// empty: wazero rejects a custom section that ends right after its name.
const MarkerVersion byte = 1

const (
	// DefaultMaxFrameLocals is the largest value count a frame can hold.
	DefaultMaxFrameLocals = 30
	// DefaultMaxDeclaredLocals caps the declared locals recorded per frame.
	DefaultMaxDeclaredLocals = 15

	trapResult   = 666
	unwindResult = 667
)

// Options configures Transform. Zero fields take the defaults.
type Options struct {
	MaxFrameLocals    int
	MaxDeclaredLocals int
}

func (o Options) withDefaults() Options {
	if o.MaxFrameLocals <= 0 {
		o.MaxFrameLocals = DefaultMaxFrameLocals
	}
	if o.MaxDeclaredLocals <= 0 {
		o.MaxDeclaredLocals = DefaultMaxDeclaredLocals
	}
	return o
}

// Result lists what Transform added.
type Result struct {
	// SetFrame maps a value count to its set_frame function.
	SetFrame map[int]uint32
	// Traps counts rewritten unreachable instructions, Calls the call
	// sites followed by an unwind check.
	Traps           int
	Calls           int
	IsUnwinding     uint32
	UnreachableShim uint32
}

// Transform instruments m in place.
//
// Every unreachable first raises the unwinding flag and records the
// current frame. Every call is followed by a check of that flag that
// records the caller's frame and keeps unwinding. An exported function is
// the edge of the module: there the unwind ends in a trap. Elsewhere the
// function returns placeholder results so its caller can record its own
// frame. On error m may be left partially instrumented.
func Transform(m *wasm.Module, opts Options) (Result, error) {
	opts = opts.withDefaults()

	if m.FindCustomSection(Marker) != nil {
		return Result{}, errors.AlreadyApplied("coredump instrumentation")
	}
	if !m.HasMemory() {
		return Result{}, errors.NotFound(errors.PhaseTransform, "memory", "0")
	}

	p := &pass{
		m:        m,
		opts:     opts,
		helpers:  make(map[uint32]bool),
		frames:   make(map[uint32]*frameCode),
		setFrame: make(map[int]wasm.FuncRef),
		res:      Result{SetFrame: make(map[int]uint32)},
	}

	p.res.IsUnwinding = m.AddGlobal(wasm.Global{
		Type: wasm.GlobalType{Type: wasm.ValI32, Mutable: true},
		Init: wasm.NewValue(wasm.Instrs(wasm.I32Const(0))),
	})
	p.res.UnreachableShim = addUnreachableShim(m, p.res.IsUnwinding)
	p.helpers[p.res.UnreachableShim] = true
	p.shim = m.Refs.New(p.res.UnreachableShim)
	Logger().Debug("coredump runtime",
		zap.Uint32("is_unwinding", p.res.IsUnwinding),
		zap.Uint32("unreachable_shim", p.res.UnreachableShim))

	for n := 0; n <= opts.MaxFrameLocals; n++ {
		idx := addSetFrame(m, n)
		p.helpers[idx] = true
		p.res.SetFrame[n] = idx
		p.setFrame[n] = m.Refs.New(idx)
	}

	if err := traverse.Walk(m, p.visitor()); err != nil {
		return Result{}, err
	}
	m.AppendSection(wasm.NewCustomSection(Marker, []byte{MarkerVersion}))

	Logger().Info("coredump instrumented",
		zap.Int("traps", p.res.Traps),
		zap.Int("calls", p.res.Calls),
		zap.Int("set_frame_helpers", len(p.res.SetFrame)))
	return p.res, nil
}

type pass struct {
	m        *wasm.Module
	helpers  map[uint32]bool
	frames   map[uint32]*frameCode
	setFrame map[int]wasm.FuncRef
	res      Result
	opts     Options
	shim     wasm.FuncRef
}

// frameCode is what a function needs to record itself and leave.
type frameCode struct {
	record   []wasm.Instr
	results  []wasm.ValType
	exported bool
}

func (p *pass) visitor() *traverse.Visitor {
	return &traverse.Visitor{
		Func: func(c *traverse.FuncContext) {
			if p.helpers[c.FuncIdx] {
				c.SkipBody()
			}
		},
		Instr: func(c *traverse.InstrContext) {
			switch c.Node.Value.Opcode {
			case wasm.OpUnreachable:
				f, err := p.frame(c.FuncIdx)
				if err != nil {
					c.Fail(err)
					return
				}
				c.InsertBefore(wasm.Call(p.shim))
				c.InsertBefore(f.record...)
				if !f.exported {
					c.InsertBefore(f.leave(trapResult)...)
					c.Replace(wasm.Return())
				}
				c.StopTraversal()
				p.res.Traps++

			case wasm.OpCall, wasm.OpCallIndirect:
				f, err := p.frame(c.FuncIdx)
				if err != nil {
					c.Fail(err)
					return
				}
				body := append([]wasm.Instr(nil), f.record...)
				if f.exported {
					body = append(body, wasm.Unreachable())
				} else {
					body = append(body, f.leave(unwindResult)...)
					body = append(body, wasm.Return())
				}
				c.InsertAfter(
					wasm.GlobalGet(p.res.IsUnwinding),
					wasm.If(wasm.BlockEmpty, body...),
				)
				p.res.Calls++
			}
		},
	}
}

// leave pushes placeholder results of the function's result types.
func (f *frameCode) leave(v int32) []wasm.Instr {
	out := make([]wasm.Instr, len(f.results))
	for i, t := range f.results {
		out[i] = wasm.ZeroValue(t, v)
	}
	return out
}

// frame builds, once per function, the call to set_frame that records it.
func (p *pass) frame(funcIdx uint32) (*frameCode, error) {
	if f, ok := p.frames[funcIdx]; ok {
		return f, nil
	}

	ft, err := p.m.FuncType(funcIdx)
	if err != nil {
		return nil, err
	}
	locals, err := p.m.FuncLocals(funcIdx)
	if err != nil {
		return nil, err
	}
	if len(locals) > p.opts.MaxDeclaredLocals {
		locals = locals[:p.opts.MaxDeclaredLocals]
	}

	values := append(append([]wasm.ValType(nil), ft.Params...), locals...)
	if len(values) > p.opts.MaxFrameLocals {
		return nil, errors.New(errors.PhaseTransform, errors.KindUnsupported).
			Path(fmt.Sprintf("func[%d]", funcIdx)).
			Value(len(values)).
			Detail("frame of %d values exceeds the largest set_frame helper (%d)", len(values), p.opts.MaxFrameLocals).
			Build()
	}

	record := []wasm.Instr{wasm.I32Const(int32(funcIdx))}
	for i, t := range values {
		record = append(record, wasm.LocalGet(uint32(i)))
		record = append(record, toI32(t)...)
	}
	record = append(record, wasm.Call(p.setFrame[len(values)]))

	f := &frameCode{
		record:   record,
		results:  ft.Results,
		exported: p.m.IsFuncExported(funcIdx),
	}
	p.frames[funcIdx] = f
	return f, nil
}
