// Package instrument rewrites every memory.grow of a module into a call to
// one injected wrapper, optionally logging each growth through WASI
// fd_write.
package instrument

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasmedit/errors"
	"github.com/wippyai/wasmedit/traverse"
	"github.com/wippyai/wasmedit/wasi"
	"github.com/wippyai/wasmedit/wasm"
)

// Marker names the custom section left in instrumented modules.
const Marker = "wasmedit.instrument.memory"

// MarkerVersion is the payload of the Marker section. It must not be
// empty: wazero rejects a custom section that ends right after its name.
const MarkerVersion byte = 1

// DefaultMessage is logged on every growth when Options.Log is set and no
// message is given.
const DefaultMessage = "memory.grow\n"

// Options configures MemoryGrowth.
type Options struct {
	// Message replaces DefaultMessage.
	Message string
	// LogOffset is where the iovec and message are placed in memory 0.
	// The fd_write byte count is stored right after them.
	LogOffset uint32
	// Log makes the wrapper print through fd_write before growing. The
	// module must import wasi_snapshot_preview1.fd_write.
	Log bool
}

// Result describes what MemoryGrowth changed.
type Result struct {
	// Wrapper is the function index of the injected wrapper.
	Wrapper uint32
	// CallSites counts the memory.grow instructions redirected to it.
	CallSites int
}

// MemoryGrowth instruments m in place. A module carrying Marker is
// rejected with KindAlreadyApplied.
func MemoryGrowth(m *wasm.Module, opts Options) (Result, error) {
	if m.FindCustomSection(Marker) != nil {
		return Result{}, errors.AlreadyApplied("memory-grow instrumentation")
	}
	if wasm.FindSection[*wasm.CodeSection](m) == nil {
		Logger().Debug("no code section, nothing to instrument")
		m.AppendSection(wasm.NewCustomSection(Marker, []byte{MarkerVersion}))
		return Result{}, nil
	}

	var logCall []wasm.Instr
	if opts.Log {
		fdWrite, ok := wasi.FindFdWrite(m)
		if !ok {
			return Result{}, errors.NotFound(errors.PhaseTransform, "import", wasi.FdWrite)
		}
		if !m.HasMemory() {
			return Result{}, errors.NotFound(errors.PhaseTransform, "memory", "0")
		}
		msg := opts.Message
		if msg == "" {
			msg = DefaultMessage
		}
		text := wasi.Str(opts.LogOffset, msg)
		_, end := m.AddData(int32(opts.LogOffset), text)
		nwritten := (end + 3) &^ 3
		logCall = wasi.Print(m.Refs.New(fdWrite), opts.LogOffset, nwritten)
	}

	p := &pass{m: m, wrapperRef: m.Refs.New(0), logCall: logCall}
	if err := traverse.Walk(m, p.visitor()); err != nil {
		return Result{}, err
	}

	Logger().Info("instrumented memory growth",
		zap.Uint32("wrapper", p.wrapper),
		zap.Int("call_sites", p.callSites),
		zap.Bool("log", opts.Log))
	return Result{Wrapper: p.wrapper, CallSites: p.callSites}, nil
}

type pass struct {
	m          *wasm.Module
	logCall    []wasm.Instr
	wrapperRef wasm.FuncRef
	typeIdx    uint32
	wrapper    uint32
	callSites  int
	haveType   bool
}

func (p *pass) visitor() *traverse.Visitor {
	return &traverse.Visitor{
		Module: func(c *traverse.ModuleContext) {
			c.AppendSection(wasm.NewCustomSection(Marker, []byte{MarkerVersion}))
		},
		TypeSection: func(c *traverse.SectionContext[wasm.FuncType]) {
			p.typeIdx = uint32(len(c.Nodes))
			p.haveType = true
			c.InsertAfter(wasm.FuncType{
				Params:  []wasm.ValType{wasm.ValI32},
				Results: []wasm.ValType{wasm.ValI32},
			})
		},
		FuncSection: func(c *traverse.SectionContext[uint32]) {
			if !p.haveType {
				panic("instrument: function section visited before type section")
			}
			c.InsertAfter(p.typeIdx)
		},
		CodeSection: func(c *traverse.SectionContext[*wasm.Code]) {
			body := append([]wasm.Instr(nil), p.logCall...)
			body = append(body, wasm.LocalGet(0), wasm.MemoryGrow())

			p.wrapper = c.Module.NumImportedFuncs() + uint32(len(c.Nodes))
			c.Module.Refs.Set(p.wrapperRef, p.wrapper)
			c.InsertAfter(&wasm.Code{Body: wasm.Instrs(body...)})
			Logger().Debug("memory.grow wrapper", zap.Uint32("func", p.wrapper))
		},
		Func: func(c *traverse.FuncContext) {
			if c.FuncIdx == p.wrapper {
				c.SkipBody()
			}
		},
		Instr: func(c *traverse.InstrContext) {
			if c.Node.Value.Opcode != wasm.OpMemoryGrow {
				return
			}
			if imm, ok := c.Node.Value.Imm.(wasm.MemIdxImm); ok && imm.Mem != 0 {
				return
			}
			c.Replace(wasm.Call(p.wrapperRef))
			p.callSites++
		},
	}
}
