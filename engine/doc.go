// Package engine runs core WebAssembly modules on wazero.
//
// It is used to check that a rewritten module still compiles and to
// execute instrumented modules, capturing what a pass left behind: the
// guest's WASI output and a copy of its linear memory after the call.
//
//	eng, _ := engine.NewWazeroEngine(ctx)
//	defer eng.Close(ctx)
//	res, err := eng.Run(ctx, bin, "main")
//	if res.Trap != nil {
//		rec, _ := coredump.ReadRecord(res.Memory)
//	}
//
// WASI preview 1 is instantiated lazily on the first Run. A trap is
// reported through RunResult.Trap; Run only fails when the module cannot
// be compiled or instantiated.
package engine
