package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/wasmedit/coredump"
	"github.com/wippyai/wasmedit/engine"
)

func getRunCmd(gs *globalState) *cobra.Command {
	var (
		invoke      string
		args        []string
		coredumpOut string
		interpreter bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Call an exported function with wasi_snapshot_preview1 available",
		Long: `Call an exported function with wasi_snapshot_preview1 available.

Guest output is copied to stdout and stderr, results are printed one per
line. When the call traps and --coredump-out is set, the stack recorded by
a module instrumented with "wasmedit coredump" is written there as a
coredump file.`,
		Example: `
  wasmedit coredump --in app.wasm | wasmedit run --invoke main --coredump-out app.core`[1:],
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := parseParams(args)
			if err != nil {
				return err
			}
			bin, err := readInput(gs)
			if err != nil {
				return err
			}

			eng, err := engine.NewWazeroEngineWithConfig(gs.ctx, &engine.Config{Interpreter: interpreter})
			if err != nil {
				return err
			}
			defer eng.Close(gs.ctx)

			res, err := eng.Run(gs.ctx, bin, invoke, params...)
			if err != nil {
				return err
			}
			if _, err := gs.stdout.Write(res.Stdout); err != nil {
				return err
			}
			if _, err := gs.stderr.Write(res.Stderr); err != nil {
				return err
			}
			for _, r := range res.Results {
				fmt.Fprintln(gs.stdout, r)
			}

			if res.Trap == nil {
				return nil
			}
			if coredumpOut != "" {
				if err := writeCoredump(gs, coredumpOut, res.Memory); err != nil {
					return err
				}
			}
			return res.Trap
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&invoke, "invoke", "", "exported function to call")
	flags.StringArrayVar(&args, "arg", nil, "integer argument, repeat for each parameter")
	flags.StringVar(&coredumpOut, "coredump-out", "", "write the recorded stack to this `file` on trap")
	flags.BoolVar(&interpreter, "interpreter", false, "use the interpreter instead of the compiler")
	_ = cmd.MarkFlagRequired("invoke")
	return cmd
}

// parseParams accepts signed and unsigned decimal integers. Floats must
// be passed as their bit patterns.
func parseParams(args []string) ([]uint64, error) {
	params := make([]uint64, len(args))
	for i, a := range args {
		if v, err := strconv.ParseInt(a, 0, 64); err == nil {
			params[i] = uint64(v)
			continue
		}
		v, err := strconv.ParseUint(a, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %q is not an integer", i, a)
		}
		params[i] = v
	}
	return params, nil
}

func writeCoredump(gs *globalState, name string, mem []byte) error {
	rec, err := coredump.ReadRecord(mem)
	if err != nil {
		return fmt.Errorf("read coredump record: %w", err)
	}
	if len(rec.Frames) == 0 {
		gs.logger.Warn("trap left no frames, is the module instrumented?")
		return nil
	}
	for i, f := range rec.Frames {
		gs.logger.Info("frame",
			zap.Int("depth", i),
			zap.Uint32("func", f.FuncIdx),
			zap.Uint32s("values", f.Values))
	}
	file, err := coredump.WriteFile(mem)
	if err != nil {
		return err
	}
	return writeOutput(gs, name, file)
}
