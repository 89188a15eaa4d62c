// Package config provides configuration management for registrar.
//
// Configuration is loaded from a single directory. The default directory is
// ~/.config/registrar; commands accept --config-path to use another one.
//
// # Configuration File
//
// config.yaml is decoded on top of DefaultConfig, so every field is
// optional. Unknown fields are rejected and the result is validated:
//
//	logLevel: debug
//	registry:
//	  timeout: 2s
//	  executionStrategy: parallel   # same-thread, serialized, parallel
//	  parallelism: 4
//	  blockingStrategy: condition   # future, condition
//	  container: loading-cache      # loading-cache, multimap
//	shell:
//	  prompt: "reg> "
//	  historyFile: history
//	  watch: true
//
// Problems are reported as *ConfigurationError values carrying the file, the
// kind of failure and, for validation failures, every offending field.
//
// # Watching
//
// Watcher reloads config.yaml when it changes and hands the new
// configuration to a callback. It relies on fsnotify and falls back to
// polling when the directory cannot be watched. Invalid updates are reported
// and otherwise ignored.
//
// # Snapshots
//
// Storage keeps named registry snapshots as YAML files below
// {configPath}/snapshots/. The shell uses it for its save and load commands.
package config
