package config

import (
	"github.com/giantswarm/registrar/internal/blocking"
	"github.com/giantswarm/registrar/internal/container"
	"github.com/giantswarm/registrar/internal/registry"
	"github.com/giantswarm/registrar/internal/strategy"
)

const (
	// DefaultPrompt is the shell prompt used when none is configured.
	DefaultPrompt = "registrar» "

	// DefaultHistoryFile is the readline history file, relative to the config directory.
	DefaultHistoryFile = "history"
)

// DefaultConfig returns the configuration used when config.yaml is absent.
// Values found in config.yaml are decoded on top of it.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Registry: RegistryConfig{
			Timeout:           registry.DefaultTimeout,
			ExecutionStrategy: string(strategy.Serialized),
			BlockingStrategy:  string(blocking.KindFuture),
			Container:         string(container.KindLoadingCache),
		},
		Shell: ShellConfig{
			Prompt:      DefaultPrompt,
			HistoryFile: DefaultHistoryFile,
		},
	}
}
