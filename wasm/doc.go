// Package wasm decodes WebAssembly binary modules into an editable tree and
// encodes them back.
//
// # Decoding
//
//	data, _ := os.ReadFile("module.wasm")
//	m, err := wasm.Decode(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Sections keep their source order. Type, import, function, table, memory,
// global, export, code and data sections are decoded; every other section
// is kept as an UnknownSection and written back byte for byte.
//
// Scalars that may be edited in place (section and body sizes, memory
// limits, import type indices, export indices) are Value[T]s that remember
// the byte range they were read from. Instructions carry their range too.
//
// # Growing a module
//
// Passes grow a module through AddType, AddFunction, AddGlobal and AddData.
// Each returns the new index in the relevant index space. Call targets are
// handles into Module.Refs so that many call sites can be repointed by
// writing one slot:
//
//	ref := m.Refs.New(helper)
//	body := wasm.Instrs(wasm.LocalGet(0), wasm.Call(ref))
//
// # Encoding
//
// Two strategies are available. Encode regenerates the whole binary and is
// required after any structural change:
//
//	out := m.Encode()
//
// A Patcher rewrites single values in a copy of the original buffer and
// fixes enclosing size fields, leaving every other byte untouched:
//
//	p := wasm.NewPatcher(data)
//	delta, _ := p.PatchU32(mem.Limits.Min, 10)
//	p.PatchSize(section.Size, delta)
//
// # Unsupported constructs
//
// Multi-value block types, reference-typed values, SIMD, threads, passive
// data segments and data offsets other than a single i32.const fail
// decoding with an errors.KindUnsupported error.
package wasm
