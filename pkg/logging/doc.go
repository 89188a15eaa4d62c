// Package logging provides the structured logging used throughout registrar.
//
// It is a thin layer over Go's slog package: every record carries a
// subsystem attribute so that the output of the serializer goroutine, the
// watcher notification strategies and the blocking suppliers can be told
// apart.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Registry", "Registry started with %s strategy", name)
//	logging.Debug("Watchable", "Delivering ADD of %s to %d watchers", id, n)
//	logging.Warn("Strategy", "Watcher notification exceeded %s", timeout)
//	logging.Error("Strategy", err, "Watcher task %s failed", task)
//
// Levels can be parsed from configuration with ParseLevel.
//
// # Thread Safety
//
// All functions are safe for concurrent use. InitForCLI may be called again
// at any time (the shell does so when its configuration file changes); the
// logger is swapped atomically.
package logging
