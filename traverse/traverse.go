package traverse

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasmedit/wasm"
)

// Visitor holds the callbacks of one pass. Nil callbacks are skipped.
type Visitor struct {
	Module func(*ModuleContext)
	// Section fires on entry to every section, known or not, before the
	// typed callback for that section.
	Section       func(wasm.Section)
	TypeSection   func(*SectionContext[wasm.FuncType])
	ImportSection func(*SectionContext[wasm.Import])
	FuncSection   func(*SectionContext[uint32])
	GlobalSection func(*SectionContext[wasm.Global])
	ExportSection func(*SectionContext[wasm.Export])
	CodeSection   func(*SectionContext[*wasm.Code])
	DataSection   func(*SectionContext[wasm.DataSegment])
	SectionExit   func(wasm.Section)
	Func          func(*FuncContext)
	Instr         func(*InstrContext)
	InstrExit     func(*InstrContext)
	ModuleExit    func(*wasm.Module)
}

type walker struct {
	m  *wasm.Module
	v  *Visitor
	st *state
}

// Walk runs v over m, applying queued edits as it goes. It returns the
// first error a callback reported through Fail; the module may be
// partially edited in that case.
func Walk(m *wasm.Module, v *Visitor) error {
	w := &walker{m: m, v: v, st: &state{}}
	w.run()
	return w.st.err
}

func (w *walker) failed() bool { return w.st.err != nil }

func (w *walker) run() {
	if w.v.Module != nil {
		ctx := &ModuleContext{Module: w.m, st: w.st}
		w.v.Module(ctx)
		for _, s := range ctx.sections {
			Logger().Debug("append section", zap.String("section", wasm.SectionName(s.ID())))
			w.m.AppendSection(s)
		}
		if w.failed() {
			return
		}
	}

	sections := append([]wasm.Section(nil), w.m.Sections...)
	for _, s := range sections {
		if w.v.Section != nil {
			w.v.Section(s)
		}
		w.section(s)
		if w.failed() {
			return
		}
		if w.v.SectionExit != nil {
			w.v.SectionExit(s)
		}
	}

	if w.v.ModuleExit != nil {
		w.v.ModuleExit(w.m)
	}
}

func (w *walker) section(s wasm.Section) {
	switch s := s.(type) {
	case *wasm.TypeSection:
		s.Types = visitSection(w, s, "type", false, s.Types, w.v.TypeSection)
	case *wasm.ImportSection:
		s.Imports = visitSection(w, s, "import", true, s.Imports, w.v.ImportSection)
	case *wasm.FuncSection:
		s.TypeIdxs = visitSection(w, s, "function", false, s.TypeIdxs, w.v.FuncSection)
	case *wasm.GlobalSection:
		s.Globals = visitSection(w, s, "global", false, s.Globals, w.v.GlobalSection)
	case *wasm.ExportSection:
		s.Exports = visitSection(w, s, "export", false, s.Exports, w.v.ExportSection)
	case *wasm.DataSection:
		s.Segments = visitSection(w, s, "data", false, s.Segments, w.v.DataSection)
	case *wasm.CodeSection:
		s.Funcs = visitSection(w, s, "code", false, s.Funcs, w.v.CodeSection)
		if w.failed() {
			return
		}
		w.code(s)
	}
}

func visitSection[T any](w *walker, s wasm.Section, name string, before bool, live []T, fn func(*SectionContext[T])) []T {
	if fn == nil {
		return live
	}
	ctx := &SectionContext[T]{
		Module:      w.m,
		Section:     s,
		Nodes:       append([]T(nil), live...),
		st:          w.st,
		name:        name,
		allowBefore: before,
		allowAfter:  !before,
	}
	fn(ctx)
	if n := len(ctx.before) + len(ctx.after); n > 0 {
		Logger().Debug("insert section entries", zap.String("section", name), zap.Int("count", n))
	}
	return ctx.apply(live)
}

func (w *walker) code(s *wasm.CodeSection) {
	idx := w.m.NumImportedFuncs()
	for _, code := range s.Funcs {
		skip := false
		if w.v.Func != nil {
			ctx := &FuncContext{Module: w.m, Code: code, FuncIdx: idx, st: w.st}
			w.v.Func(ctx)
			skip = ctx.skip
		}
		if w.failed() {
			return
		}
		if !skip && (w.v.Instr != nil || w.v.InstrExit != nil) {
			code.Body = w.expr(code.Body, idx, 0)
		}
		if w.failed() {
			return
		}
		idx++
	}
}

func (w *walker) expr(body wasm.Expr, funcIdx uint32, depth int) wasm.Expr {
	if len(body) == 0 {
		return body
	}
	snapshot := append(wasm.Expr(nil), body...)
	out := make(wasm.Expr, 0, len(snapshot))
	for i, node := range snapshot {
		if w.failed() {
			return append(out, snapshot[i:]...)
		}

		ctx := &InstrContext{Module: w.m, Node: node, FuncIdx: funcIdx, Depth: depth, st: w.st}
		if w.v.Instr != nil {
			w.v.Instr(ctx)
		}
		out = append(out, ctx.before...)

		switch {
		case ctx.removed:
			Logger().Debug("remove instruction", zap.Uint32("func", funcIdx), zap.String("op", node.Value.Name()))
		case ctx.replacement != nil:
			Logger().Debug("replace instruction", zap.Uint32("func", funcIdx),
				zap.String("op", node.Value.Name()), zap.String("with", ctx.replacement.Value.Name()))
			out = append(out, *ctx.replacement)
		default:
			if node.Value.IsBlock() {
				node = w.descend(node, funcIdx, depth+1)
			}
			out = append(out, node)
		}

		if w.v.InstrExit != nil {
			ctx.exit = true
			w.v.InstrExit(ctx)
		}
		out = append(out, ctx.after...)

		if ctx.stop {
			return append(out, snapshot[i+1:]...)
		}
	}
	return out
}

func (w *walker) descend(node wasm.Value[wasm.Instr], funcIdx uint32, depth int) wasm.Value[wasm.Instr] {
	switch imm := node.Value.Imm.(type) {
	case wasm.BlockImm:
		imm.Body = w.expr(imm.Body, funcIdx, depth)
		node.Value.Imm = imm
	case wasm.IfImm:
		imm.Then = w.expr(imm.Then, funcIdx, depth)
		imm.Else = w.expr(imm.Else, funcIdx, depth)
		node.Value.Imm = imm
	}
	return node
}
