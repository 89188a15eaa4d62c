package cmd

import (
	"errors"
	"os"

	"github.com/giantswarm/registrar/internal/api"
	"github.com/giantswarm/registrar/internal/config"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigError indicates that the configuration could not be loaded or is invalid.
	ExitCodeConfigError = 2
	// ExitCodeTimeout indicates that an operation gave up waiting.
	ExitCodeTimeout = 3
)

// rootCmd represents the base command for the registrar application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "registrar",
	Short: "Explore a concurrent, type-indexed service registry",
	Long: `registrar hosts an in-process service registry in which suppliers are
registered under a type and an optional qualifier, and watchers are told
about every registration and removal of the types they follow.

Use 'registrar shell' to register values, install watchers and block on
values interactively.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles subcommands and flags.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "registrar version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var configErr *config.ConfigurationError
	if errors.As(err, &configErr) {
		return ExitCodeConfigError
	}

	var validationErrs config.ValidationErrors
	if errors.As(err, &validationErrs) {
		return ExitCodeConfigError
	}

	if api.IsTimeout(err) {
		return ExitCodeTimeout
	}

	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newShellCmd())
	rootCmd.AddCommand(newConfigCmd())
}
