package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giantswarm/registrar/internal/config"
	"github.com/giantswarm/registrar/internal/registry"
	"github.com/giantswarm/registrar/internal/shell"
	"github.com/giantswarm/registrar/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// shellOptions holds the flags of the shell command.
type shellOptions struct {
	configPath  string
	logLevel    string
	strategy    string
	blocking    string
	container   string
	timeout     time.Duration
	parallelism int
	metricsAddr string
	noColor     bool
	quiet       bool
}

func newShellCmd() *cobra.Command {
	opts := &shellOptions{}
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive registry shell",
		Long: `Start an interactive shell over a fresh in-process registry.

Settings come from config.yaml in the configuration directory; flags
override them. With shell.watch enabled in config.yaml, changes to the
file's registry timeout and prompt are applied while the shell runs.

Inside the shell, type 'help' for the available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (default: from config)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Watcher execution strategy: same-thread, serialized or parallel")
	cmd.Flags().StringVar(&opts.blocking, "blocking", "", "Blocking supplier implementation: future or condition")
	cmd.Flags().StringVar(&opts.container, "container", "", "Registration storage: loading-cache or multimap")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Notification and wait timeout (default: from config)")
	cmd.Flags().IntVar(&opts.parallelism, "parallelism", 0, "Maximum concurrent notifications for the parallel strategy (0 = unbounded)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Disable progress spinners")
	return cmd
}

// loadShellConfig reads config.yaml and applies the flags that were set.
func loadShellConfig(cmd *cobra.Command, opts *shellOptions) (config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("strategy") {
		cfg.Registry.ExecutionStrategy = opts.strategy
	}
	if flags.Changed("blocking") {
		cfg.Registry.BlockingStrategy = opts.blocking
	}
	if flags.Changed("container") {
		cfg.Registry.Container = opts.container
	}
	if flags.Changed("timeout") {
		cfg.Registry.Timeout = opts.timeout
	}
	if flags.Changed("parallelism") {
		cfg.Registry.Parallelism = opts.parallelism
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runShell(cmd *cobra.Command, opts *shellOptions) error {
	cfg, err := loadShellConfig(cmd, opts)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(collectors.NewGoCollector())

	registryConfig := cfg.Registry.RegistryOptions()
	registryConfig.Metrics = metricsRegistry
	r, err := registry.New(registryConfig)
	if err != nil {
		return fmt.Errorf("failed to create registry: %w", err)
	}
	defer r.Close()

	if opts.metricsAddr != "" {
		shutdown := serveMetrics(opts.metricsAddr, metricsRegistry)
		defer shutdown()
	}

	sh := shell.New(r, shell.Options{
		ConfigPath: opts.configPath,
		Config:     cfg.Shell,
		Output:     cmd.OutOrStdout(),
		Color:      !opts.noColor,
		Quiet:      opts.quiet,
	})
	if err := sh.Run(ctx); err != nil {
		return fmt.Errorf("shell error: %w", err)
	}
	return nil
}

// serveMetrics exposes reg on addr/metrics and returns a shutdown function.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logging.Info("Metrics", "Serving metrics on %s/metrics", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics", err, "Metrics server stopped")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logging.Warn("Metrics", "Failed to shut down metrics server: %v", err)
		}
	}
}
