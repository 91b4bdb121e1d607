package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootCommand struct {
	gs  *globalState
	cmd *cobra.Command
}

func newRootCommand(gs *globalState) *rootCommand {
	c := &rootCommand{gs: gs}
	c.cmd = &cobra.Command{
		Use:   "wasmedit",
		Short: "rewrite and inspect WebAssembly modules",
		Long: `wasmedit edits WebAssembly core modules without losing what it does not touch.

Modules are read from --in (or stdin) and written to --out (or stdout).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.persistentPreRunE,
	}
	c.cmd.PersistentFlags().AddFlagSet(rootFlagSet(&gs.flags))

	c.cmd.AddCommand(
		getEditMemoryCmd(gs),
		getInstrumentMemoryCmd(gs),
		getCoredumpCmd(gs),
		getInspectCmd(gs),
		getRunCmd(gs),
	)
	return c
}

func (c *rootCommand) persistentPreRunE(cmd *cobra.Command, _ []string) error {
	conf, err := getConfig(cmd.Flags(), c.gs.flags)
	if err != nil {
		return err
	}
	logger, err := newLogger(c.gs.stderr, conf.LogLevel, conf.LogFormat)
	if err != nil {
		return err
	}
	c.gs.conf = conf
	c.gs.logger = logger
	installLogger(logger)
	logger.Debug("configured", zap.String("command", cmd.Name()), zap.Bool("verify", conf.Verify))
	return nil
}

func (c *rootCommand) execute() {
	c.cmd.SetArgs(c.gs.args[1:])
	c.cmd.SetIn(c.gs.stdin)
	c.cmd.SetOut(c.gs.stdout)
	c.cmd.SetErr(c.gs.stderr)

	err := c.cmd.ExecuteContext(c.gs.ctx)
	_ = c.gs.logger.Sync()
	if err != nil {
		fmt.Fprintf(c.gs.stderr, "wasmedit: %v\n", err)
		c.gs.osExit(1)
	}
}
