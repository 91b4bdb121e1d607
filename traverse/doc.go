// Package traverse walks a decoded module once, top to bottom, and lets a
// pass queue edits against the containers it visits.
//
// A Visitor is a struct of optional callbacks. Sections are visited in
// their stored order. Inside the code section every function body is
// walked depth-first: the Instr callback fires when an instruction is
// entered, nested block, loop and if bodies are walked next, and InstrExit
// fires once the instruction and its body are done.
//
// Edits are collected against a snapshot of each container and applied
// after the container has been visited, so callbacks always see the
// container as it stood before the pass touched it. Queued insertions keep
// the order in which they were requested.
//
// Container edit support:
//
//	import section          InsertBefore
//	type, func, global,
//	export, code, data      InsertAfter
//	instruction list        InsertBefore, InsertAfter, Replace, Remove, StopTraversal
//
// Calling an unsupported edit panics. It is a bug in the pass, not a
// property of the input.
//
// Functions added to the code section before the walk reaches it are
// walked like any other function. A pass that adds helpers and does not
// want to rewrite them must skip them itself, by index, through
// FuncContext.SkipBody or by checking InstrContext.FuncIdx.
package traverse
