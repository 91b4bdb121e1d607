package traverse

import (
	"fmt"

	"github.com/wippyai/wasmedit/wasm"
)

// state is shared by every context of one walk.
type state struct {
	err error
}

func (s *state) fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

// ModuleContext is handed to the Module callback before any section is
// visited.
type ModuleContext struct {
	Module *wasm.Module

	st       *state
	sections []wasm.Section
}

// AppendSection queues s to be added after the last section. Appended
// sections are visited by the same walk.
func (c *ModuleContext) AppendSection(s wasm.Section) {
	c.sections = append(c.sections, s)
}

// Fail aborts the walk. Walk returns the first error reported.
func (c *ModuleContext) Fail(err error) { c.st.fail(err) }

// SectionContext is handed to the per-section callbacks. Nodes is a
// snapshot of the section's entries; edits apply once the callback
// returns.
type SectionContext[T any] struct {
	Module  *wasm.Module
	Section wasm.Section
	Nodes   []T

	st          *state
	name        string
	allowBefore bool
	allowAfter  bool
	before      []T
	after       []T
}

// InsertBefore queues n ahead of every existing entry.
func (c *SectionContext[T]) InsertBefore(n T) {
	if !c.allowBefore {
		panic(fmt.Sprintf("traverse: InsertBefore is not supported on the %s section", c.name))
	}
	c.before = append(c.before, n)
}

// InsertAfter queues n after every existing entry.
func (c *SectionContext[T]) InsertAfter(n T) {
	if !c.allowAfter {
		panic(fmt.Sprintf("traverse: InsertAfter is not supported on the %s section", c.name))
	}
	c.after = append(c.after, n)
}

// Fail aborts the walk. Walk returns the first error reported.
func (c *SectionContext[T]) Fail(err error) { c.st.fail(err) }

func (c *SectionContext[T]) apply(live []T) []T {
	if len(c.before) == 0 && len(c.after) == 0 {
		return live
	}
	out := make([]T, 0, len(c.before)+len(live)+len(c.after))
	out = append(out, c.before...)
	out = append(out, live...)
	return append(out, c.after...)
}

// FuncContext is handed to the Func callback before a function body is
// walked.
type FuncContext struct {
	Module  *wasm.Module
	Code    *wasm.Code
	FuncIdx uint32

	st   *state
	skip bool
}

// SkipBody leaves the body out of the walk. Instr callbacks do not fire
// for it.
func (c *FuncContext) SkipBody() { c.skip = true }

// Type resolves the function's signature.
func (c *FuncContext) Type() (wasm.FuncType, error) {
	return c.Module.FuncType(c.FuncIdx)
}

// Fail aborts the walk. Walk returns the first error reported.
func (c *FuncContext) Fail(err error) { c.st.fail(err) }

// InstrContext is handed to Instr and InstrExit for every instruction of a
// function body, nested ones included.
type InstrContext struct {
	Module  *wasm.Module
	Node    wasm.Value[wasm.Instr]
	FuncIdx uint32
	// Depth is the block nesting level, 0 for the function body itself.
	Depth int

	st          *state
	exit        bool
	before      []wasm.Value[wasm.Instr]
	after       []wasm.Value[wasm.Instr]
	replacement *wasm.Value[wasm.Instr]
	removed     bool
	stop        bool
}

func (c *InstrContext) mustEnter(op string) {
	if c.exit {
		panic("traverse: " + op + " called from InstrExit")
	}
}

// InsertBefore queues in ahead of the current instruction.
func (c *InstrContext) InsertBefore(in ...wasm.Instr) {
	c.mustEnter("InsertBefore")
	for _, i := range in {
		c.before = append(c.before, wasm.NewValue(i))
	}
}

// InsertAfter queues in after the current instruction. Inserted
// instructions are not visited.
func (c *InstrContext) InsertAfter(in ...wasm.Instr) {
	c.mustEnter("InsertAfter")
	for _, i := range in {
		c.after = append(c.after, wasm.NewValue(i))
	}
}

// Replace swaps the current instruction for in. The replacement has no
// source range and, if it is a block, its body is not walked.
func (c *InstrContext) Replace(in wasm.Instr) {
	c.mustEnter("Replace")
	v := wasm.NewValue(in)
	c.replacement = &v
	c.removed = false
}

// Remove drops the current instruction. Queued insertions still apply.
func (c *InstrContext) Remove() {
	c.mustEnter("Remove")
	c.replacement = nil
	c.removed = true
}

// StopTraversal skips the remaining siblings at the current nesting
// level. The current instruction's own body is still walked.
func (c *InstrContext) StopTraversal() {
	c.mustEnter("StopTraversal")
	c.stop = true
}

// Fail aborts the walk. Walk returns the first error reported.
func (c *InstrContext) Fail(err error) { c.st.fail(err) }
