package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/wasmedit/instrument"
	"github.com/wippyai/wasmedit/wasm"
)

func getEditMemoryCmd(gs *globalState) *cobra.Command {
	var pages uint32
	cmd := &cobra.Command{
		Use:   "edit-memory",
		Short: "Set the initial page count of memory 0",
		Long: `Set the initial page count of memory 0.

The value is patched in place: every byte outside the limit and the
enclosing section size is kept as it was.`,
		Example: `
  wasmedit edit-memory --initial-memory 32 --in app.wasm --out app.big.wasm`[1:],
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, m, err := readModule(gs)
			if err != nil {
				return err
			}
			out, err := wasm.SetInitialMemory(data, m, pages)
			if err != nil {
				return err
			}
			gs.logger.Info("initial memory set", zap.Uint32("pages", pages))
			return writeModule(gs, out)
		},
	}
	cmd.Flags().Uint32Var(&pages, "initial-memory", 0, "initial memory size in 64KiB pages")
	_ = cmd.MarkFlagRequired("initial-memory")
	return cmd
}

func getInstrumentMemoryCmd(gs *globalState) *cobra.Command {
	var opts instrument.Options
	cmd := &cobra.Command{
		Use:   "instrument-memory",
		Short: "Route every memory.grow through one wrapper function",
		Long: `Route every memory.grow through one wrapper function.

With --log the wrapper prints a message through wasi_snapshot_preview1
fd_write before growing, which the module must import. The message and
its iovec are placed at --log-offset in memory 0.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, m, err := readModule(gs)
			if err != nil {
				return err
			}
			res, err := instrument.MemoryGrowth(m, opts)
			if err != nil {
				return err
			}
			gs.logger.Info("instrumented memory.grow",
				zap.Uint32("wrapper", res.Wrapper),
				zap.Int("call_sites", res.CallSites))
			return writeModule(gs, m.Encode())
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&opts.Log, "log", false, "print a message on every growth")
	flags.Uint32Var(&opts.LogOffset, "log-offset", 0, "memory offset of the log message")
	flags.StringVar(&opts.Message, "message", instrument.DefaultMessage, "message printed with --log")
	return cmd
}
