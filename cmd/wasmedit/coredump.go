package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/wasmedit/coredump"
)

func getCoredumpCmd(gs *globalState) *cobra.Command {
	var opts coredump.Options
	cmd := &cobra.Command{
		Use:   "coredump",
		Short: "Make traps record the call stack in memory",
		Long: `Make traps record the call stack in memory.

Every unreachable records the current frame and unwinds; every caller on
the way out records its own frame. The record starts at address 0 of
memory 0 and can be extracted with "wasmedit run --coredump-out".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, m, err := readModule(gs)
			if err != nil {
				return err
			}
			res, err := coredump.Transform(m, opts)
			if err != nil {
				return err
			}
			gs.logger.Info("coredump instrumentation added",
				zap.Int("traps", res.Traps),
				zap.Int("calls", res.Calls),
				zap.Int("set_frame", len(res.SetFrame)))
			return writeModule(gs, m.Encode())
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.MaxFrameLocals, "max-frame-locals", coredump.DefaultMaxFrameLocals,
		"largest number of values one frame can record")
	flags.IntVar(&opts.MaxDeclaredLocals, "max-locals", coredump.DefaultMaxDeclaredLocals,
		"declared locals recorded per frame")
	return cmd
}
