package main

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/wippyai/wasmedit/engine"
	"github.com/wippyai/wasmedit/wasm"
)

var errTerminal = stderrors.New("refusing to write a binary module to a terminal, use --out")

func isStdio(name string) bool { return name == "" || name == "-" }

func readInput(gs *globalState) ([]byte, error) {
	if isStdio(gs.flags.in) {
		data, err := io.ReadAll(gs.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := afero.ReadFile(gs.fs, gs.flags.in)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// readModule returns the input bytes along with their decoding.
func readModule(gs *globalState) ([]byte, *wasm.Module, error) {
	data, err := readInput(gs)
	if err != nil {
		return nil, nil, err
	}
	m, err := wasm.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	gs.logger.Debug("decoded module",
		zap.Int("bytes", len(data)),
		zap.Int("sections", len(m.Sections)),
		zap.Uint32("funcs", m.NumFuncs()))
	return data, m, nil
}

// writeModule verifies bin when configured to and writes it out.
func writeModule(gs *globalState, bin []byte) error {
	if gs.conf.Verify {
		if err := verify(gs, bin); err != nil {
			return err
		}
	}
	return writeOutput(gs, gs.flags.out, bin)
}

func writeOutput(gs *globalState, name string, data []byte) error {
	if isStdio(name) {
		if gs.stdoutTTY {
			return errTerminal
		}
		_, err := gs.stdout.Write(data)
		return err
	}
	if err := afero.WriteFile(gs.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	gs.logger.Info("wrote module", zap.String("file", name), zap.Int("bytes", len(data)))
	return nil
}

func verify(gs *globalState, bin []byte) error {
	eng, err := engine.NewWazeroEngine(gs.ctx)
	if err != nil {
		return err
	}
	defer eng.Close(gs.ctx)
	if err := eng.Validate(gs.ctx, bin); err != nil {
		return fmt.Errorf("verify output: %w", err)
	}
	return nil
}
