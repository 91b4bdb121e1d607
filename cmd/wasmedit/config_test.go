package main

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every WASMEDIT_ variable for the duration of t.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"WASMEDIT_LOG_LEVEL", "WASMEDIT_LOG_FORMAT", "WASMEDIT_VERIFY"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestGetConfig(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		flags []string
		want  Config
	}{
		{
			name: "defaults",
			want: Config{LogLevel: "warn", LogFormat: "console"},
		},
		{
			name: "environment",
			env: map[string]string{
				"WASMEDIT_LOG_LEVEL":  "debug",
				"WASMEDIT_LOG_FORMAT": "json",
				"WASMEDIT_VERIFY":     "true",
			},
			want: Config{LogLevel: "debug", LogFormat: "json", Verify: true},
		},
		{
			name:  "flags override environment",
			env:   map[string]string{"WASMEDIT_LOG_LEVEL": "debug", "WASMEDIT_VERIFY": "true"},
			flags: []string{"--log-level", "error", "--verify=false"},
			want:  Config{LogLevel: "error", LogFormat: "console"},
		},
		{
			name:  "unset flags leave environment alone",
			env:   map[string]string{"WASMEDIT_LOG_FORMAT": "json"},
			flags: []string{"--log-level", "info"},
			want:  Config{LogLevel: "info", LogFormat: "json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var f globalFlags
			flags := rootFlagSet(&f)
			require.NoError(t, flags.Parse(tt.flags))

			got, err := getConfig(flags, f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetConfig_InvalidBool(t *testing.T) {
	clearEnv(t)
	t.Setenv("WASMEDIT_VERIFY", "maybe")
	var f globalFlags
	_, err := getConfig(rootFlagSet(&f), f)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"debug", "console", false},
		{"warn", "json", false},
		{"info", "", false},
		{"loud", "console", true},
		{"info", "xml", true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			l, err := newLogger(io.Discard, tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}
