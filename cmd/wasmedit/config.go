package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
)

// Config is the part of the configuration that can come from the
// environment. Flags take precedence.
type Config struct {
	LogLevel  string `envconfig:"WASMEDIT_LOG_LEVEL" default:"warn"`
	LogFormat string `envconfig:"WASMEDIT_LOG_FORMAT" default:"console"`
	// Verify compiles every produced module before it is written.
	Verify bool `envconfig:"WASMEDIT_VERIFY"`
}

func rootFlagSet(f *globalFlags) *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.StringVar(&f.in, "in", "", "input module `file`, stdin when empty or -")
	flags.StringVarP(&f.out, "out", "o", "", "output `file`, stdout when empty or -")
	flags.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&f.logFormat, "log-format", "", "log format: console or json")
	flags.BoolVar(&f.verify, "verify", false, "compile the produced module before writing it")
	return flags
}

func readEnvConfig() (Config, error) {
	var conf Config
	if err := envconfig.Process("", &conf); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	return conf, nil
}

// getConfig reads the environment and applies the flags that were set
// explicitly on top of it.
func getConfig(flags *pflag.FlagSet, f globalFlags) (Config, error) {
	conf, err := readEnvConfig()
	if err != nil {
		return Config{}, err
	}
	if flags.Changed("log-level") {
		conf.LogLevel = f.logLevel
	}
	if flags.Changed("log-format") {
		conf.LogFormat = f.logFormat
	}
	if flags.Changed("verify") {
		conf.Verify = f.verify
	}
	return conf, nil
}
