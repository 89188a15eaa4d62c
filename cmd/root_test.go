package cmd

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/internal/config"
)

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "registrar", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestSetVersion(t *testing.T) {
	original := GetVersion()
	defer SetVersion(original)

	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"version", "shell", "config"} {
		assert.True(t, found[name], "expected subcommand %s", name)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "configuration error",
			err:      fmt.Errorf("loading: %w", config.NewConfigurationError("/tmp/config.yaml", config.ErrorTypeParse, "bad yaml", errors.New("line 1"))),
			expected: ExitCodeConfigError,
		},
		{
			name:     "validation errors",
			err:      config.Validate(config.Config{LogLevel: "loud"}),
			expected: ExitCodeConfigError,
		},
		{
			name:     "timeout",
			err:      api.NewTimeoutError("getSync", time.Second, "greeter"),
			expected: ExitCodeTimeout,
		},
		{
			name:     "anything else",
			err:      errors.New("boom"),
			expected: ExitCodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getExitCode(tt.err))
		})
	}
}
