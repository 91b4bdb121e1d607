package main

import (
	"github.com/spf13/cobra"

	"github.com/wippyai/wasmedit/inspect"
)

func getInspectCmd(gs *globalState) *cobra.Command {
	var (
		funcIdx     int
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe the sections and functions of a module",
		Example: `
  # Sections and the function index space.
  wasmedit inspect --in app.wasm

  # Body of function 3.
  wasmedit inspect --in app.wasm --func 3

  # Browse functions interactively.
  wasmedit inspect --in app.wasm -i`[1:],
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, m, err := readModule(gs)
			if err != nil {
				return err
			}
			if interactive {
				return runInteractive(gs, m)
			}
			if funcIdx >= 0 {
				return inspect.WriteListing(gs.stdout, m, uint32(funcIdx))
			}
			s, err := inspect.Summarize(m)
			if err != nil {
				return err
			}
			return inspect.WriteSummary(gs.stdout, s)
		},
	}
	cmd.Flags().IntVar(&funcIdx, "func", -1, "print the body of this function `index`")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse functions in a terminal UI")
	return cmd
}
