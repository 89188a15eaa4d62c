package config

import (
	"time"

	"github.com/giantswarm/registrar/internal/blocking"
	"github.com/giantswarm/registrar/internal/container"
	"github.com/giantswarm/registrar/internal/registry"
	"github.com/giantswarm/registrar/internal/strategy"
)

// Config is the top-level configuration structure for registrar.
type Config struct {
	LogLevel string         `yaml:"logLevel,omitempty"` // debug, info, warn or error (default: info)
	Registry RegistryConfig `yaml:"registry"`
	Shell    ShellConfig    `yaml:"shell"`
}

// RegistryConfig configures the in-process registry.
type RegistryConfig struct {
	Timeout           time.Duration `yaml:"timeout,omitempty"`           // Notification and blocking-get bound, e.g. "5s"
	ExecutionStrategy string        `yaml:"executionStrategy,omitempty"` // same-thread, serialized or parallel
	Parallelism       int           `yaml:"parallelism,omitempty"`       // Parallel strategy bound, 0 = unbounded
	BlockingStrategy  string        `yaml:"blockingStrategy,omitempty"`  // future or condition
	Container         string        `yaml:"container,omitempty"`         // loading-cache or multimap
}

// ShellConfig configures the interactive shell.
type ShellConfig struct {
	Prompt      string `yaml:"prompt,omitempty"`
	HistoryFile string `yaml:"historyFile,omitempty"` // Relative paths resolve against the config directory
	Watch       bool   `yaml:"watch,omitempty"`       // Reload config.yaml while the shell runs
}

// RegistryOptions converts the file representation to registry settings.
func (c RegistryConfig) RegistryOptions() registry.Config {
	return registry.Config{
		Timeout:           c.Timeout,
		ExecutionStrategy: strategy.Name(c.ExecutionStrategy),
		Parallelism:       c.Parallelism,
		BlockingStrategy:  blocking.Kind(c.BlockingStrategy),
		ContainerKind:     container.Kind(c.Container),
	}
}
