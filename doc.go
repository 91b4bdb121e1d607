// Package wasmedit rewrites WebAssembly core modules.
//
// Modules are decoded into a tree that remembers where every value came
// from in the input, edited through a visitor that collects edits and
// applies them after each node, and encoded again with every size and
// count recomputed. Anything the tree does not model is carried through
// as raw bytes.
//
// # Architecture Overview
//
//	wasmedit/
//	├── wasm/            Module tree, decoder, encoder, LEB128, in-place patching
//	├── traverse/        Visitor walk with collect-then-apply edits
//	├── wasi/            wasi_snapshot_preview1 fd_write helpers
//	├── instrument/      memory.grow wrapper pass
//	├── coredump/        Stack recording pass and coredump files
//	├── inspect/         Section and function summaries, body listings
//	├── engine/          wazero validation and execution
//	├── errors/          Structured error types for debugging
//	└── cmd/wasmedit/    Command line front end
//
// # Quick Start
//
// Route every memory.grow through a wrapper:
//
//	m, err := wasm.Decode(bin)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := instrument.MemoryGrowth(m, instrument.Options{}); err != nil {
//	    log.Fatal(err)
//	}
//	out := m.Encode()
//
// Change a single value without re-encoding anything else:
//
//	out, err := wasm.SetInitialMemory(bin, m, 32)
//
// # Writing a Pass
//
// A pass is a traverse.Visitor. Section hooks add types, functions and
// globals; the Instr hook rewrites instructions:
//
//	err := traverse.Walk(m, &traverse.Visitor{
//	    Instr: func(c *traverse.InstrContext) {
//	        if c.Node.Value.Opcode == wasm.OpUnreachable {
//	            c.InsertBefore(wasm.Call(logRef))
//	        }
//	    },
//	})
//
// Calls hold a wasm.FuncRef rather than an index, so a helper whose index
// is only known once the code section is reached can be called before
// that.
//
// # Thread Safety
//
// A Module is not safe for concurrent use. Walk runs on the calling
// goroutine. The engine's runtime may be shared.
package wasmedit
