package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// globalState holds everything a command touches outside its own flags,
// so tests can swap the filesystem and the standard streams.
type globalState struct {
	ctx context.Context

	fs     afero.Fs
	args   []string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// stdoutTTY is true when stdout is a terminal.
	stdoutTTY bool

	osExit func(int)

	flags  globalFlags
	conf   Config
	logger *zap.Logger
}

type globalFlags struct {
	in        string
	out       string
	logLevel  string
	logFormat string
	verify    bool
}

func newGlobalState(ctx context.Context) *globalState {
	return &globalState{
		ctx:       ctx,
		fs:        afero.NewOsFs(),
		args:      append([]string(nil), os.Args...),
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		stdoutTTY: term.IsTerminal(int(os.Stdout.Fd())),
		osExit:    os.Exit,
		logger:    zap.NewNop(),
	}
}
