package engine

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"

	"github.com/wippyai/wasmedit/errors"
)

// WazeroEngine compiles and runs core modules on a wazero runtime with
// wasi_snapshot_preview1 available.
type WazeroEngine struct {
	runtime    wazero.Runtime
	wasiInitMu sync.Mutex
	wasiDone   bool
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32

	// Interpreter selects the interpreter instead of the compiler. Useful
	// on platforms the compiler does not support.
	Interpreter bool
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil {
		if cfg.Interpreter {
			runtimeCfg = wazero.NewRuntimeConfigInterpreter()
		}
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &WazeroEngine{runtime: runtime}, nil
}

func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// InitWASI instantiates WASI preview 1 once for this engine's runtime.
func (e *WazeroEngine) InitWASI(ctx context.Context) error {
	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiDone || e.runtime.Module(wasiModuleName) != nil {
		e.wasiDone = true
		return nil
	}
	if _, err := InstantiateWASI(ctx, e.runtime); err != nil {
		return errors.Instantiation(fmt.Errorf("instantiate WASI: %w", err))
	}
	e.wasiDone = true
	return nil
}

// Validate compiles bin and discards the result. Any structural or type
// error in the module is reported.
func (e *WazeroEngine) Validate(ctx context.Context, bin []byte) error {
	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "module does not validate")
	}
	return compiled.Close(ctx)
}

// RunResult is the outcome of a single exported call.
type RunResult struct {
	// Trap is set when the call did not complete. It wraps the runtime's
	// error.
	Trap error
	// Stdout and Stderr hold what the guest wrote through WASI.
	Stdout []byte
	Stderr []byte
	// Memory is a copy of memory 0 after the call, nil when the module
	// has none.
	Memory  []byte
	Results []uint64
}

// Run instantiates bin, calls export with params and captures the outcome.
// A trap is part of the result, not an error: errors are reserved for
// modules that fail to compile or instantiate.
func (e *WazeroEngine) Run(ctx context.Context, bin []byte, export string, params ...uint64) (*RunResult, error) {
	if err := e.InitWASI(ctx); err != nil {
		return nil, err
	}

	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "compile failed")
	}
	defer compiled.Close(ctx)

	var stdout, stderr bytes.Buffer
	modConfig := wazero.NewModuleConfig().
		WithName(""). // anonymous for repeated runs
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithStartFunctions()

	instance, err := e.runtime.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	defer instance.Close(ctx)

	fn := instance.ExportedFunction(export)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", export)
	}

	res := &RunResult{}
	results, callErr := fn.Call(ctx, params...)
	switch {
	case callErr == nil:
		res.Results = results
	case isCleanExit(callErr):
		Logger().Debug("guest exited", zap.String("export", export))
	default:
		Logger().Debug("guest trapped", zap.String("export", export), zap.Error(callErr))
		res.Trap = errors.Trap(export, callErr)
	}

	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	res.Memory = snapshotMemory(instance.Memory())
	return res, nil
}

func isCleanExit(err error) bool {
	var exit *sys.ExitError
	return stderrors.As(err, &exit) && exit.ExitCode() == 0
}

func snapshotMemory(mem api.Memory) []byte {
	if !hasMemory(mem) {
		return nil
	}
	data, ok := mem.Read(0, mem.Size())
	if !ok {
		return nil
	}
	return bytes.Clone(data)
}

// hasMemory reports whether mem is backed by a memory instance. A module
// without memory hands back a nil *MemoryInstance wrapped in the interface.
func hasMemory(mem api.Memory) bool {
	if mem == nil {
		return false
	}
	v := reflect.ValueOf(mem)
	return v.Kind() != reflect.Pointer || !v.IsNil()
}
