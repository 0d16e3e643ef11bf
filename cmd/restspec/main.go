package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/studiowebux/restspec/internal/cli"
	"github.com/studiowebux/restspec/internal/config"
	"github.com/studiowebux/restspec/internal/logger"
)

var (
	version = "0.1.0"

	// set by initConfig; initErr is returned before any command runs
	initErr     error
	closeLogger func() error
)

// Persistent flags
var (
	flagConfig    string
	flagEnvFile   string
	flagDebug     bool
	flagConfigDir string
)

func main() {
	err := rootCmd.Execute()
	if closeLogger != nil {
		closeLogger()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "restspec",
	Short: "Contract tests for HTTP services",
	Long: `restspec runs YAML scenario documents against an HTTP service and checks
every response against the expected status, headers and body.

Examples:
  restspec run specs/users.yaml --port 8080        # Test a running service
  restspec run specs/ -c 10 --mode loose           # Every document, 10 concurrent calls each
  restspec run users --launch "./server --port {{port}}" --health /health
  restspec run users --only "get-*" --format json  # Selected scenarios, JSON report
  restspec mock specs/users.yaml --port 9000       # Serve the expected responses
  restspec history --limit 10                      # Recent runs`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initErr
	},
}

var runCmd = &cobra.Command{
	Use:   "run <file-or-dir>",
	Short: "Run the scenarios of a spec document or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSpec(cmd, args[0])
	},
}

var listCmd = &cobra.Command{
	Use:   "list <file-or-dir>",
	Short: "List the scenarios of a spec document or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.List(args[0], cmd.OutOrStdout())
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previous runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.History(cli.HistoryOptions{
			Limit:        flagHistoryLimit,
			Show:         flagHistoryShow,
			OutputFormat: flagFormat,
			Out:          cmd.OutOrStdout(),
		})
	},
}

var mockCmd = &cobra.Command{
	Use:   "mock <file>",
	Short: "Serve the expected responses of a spec document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		return cli.Mock(ctx, cli.ServeOptions{
			Path: args[0],
			Host: flagServeHost,
			Port: flagServePort,
			Echo: flagServeEcho,
			Out:  cmd.OutOrStdout(),
		})
	},
}

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Serve an endpoint that describes every request it receives",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		return cli.Echo(ctx, cli.ServeOptions{
			Host: flagServeHost,
			Port: flagServePort,
			Out:  cmd.OutOrStdout(),
		})
	},
}

// Flags for run
var (
	flagFormat string
	flagFilter string
	flagQuery  string
	flagOnly   []string
	flagNoSave bool
)

// Flags for history
var (
	flagHistoryLimit int
	flagHistoryShow  int64
)

// Flags for mock and echo
var (
	flagServeHost string
	flagServePort int
	flagServeEcho bool
)

// runFlagKeys maps run flags onto configuration keys
var runFlagKeys = map[string]string{
	"host":          config.KeyHost,
	"port":          config.KeyPort,
	"protocol":      config.KeyProtocol,
	"concurrency":   config.KeyConcurrency,
	"mode":          config.KeyJSONMode,
	"timeout":       config.KeyTimeout,
	"rps":           config.KeyRPS,
	"launch":        config.KeyCommand,
	"health":        config.KeyHealthPath,
	"ready-timeout": config.KeyReadyTimeout,
	"insecure":      config.KeyInsecure,
	"ca-cert":       config.KeyCACert,
	"cert":          config.KeyClientCert,
	"key":           config.KeyClientKey,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default is ./.restspec.yaml, then ~/.restspec/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Load environment variables from file (default .env)")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "Directory for history and logs (default ~/.restspec)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Write debug entries to the log file")

	// Run command flags; defaults come from config.SetDefaults
	runCmd.Flags().String("host", "", "Target host (default localhost)")
	runCmd.Flags().Int("port", 0, "Target port, 0 picks a free port")
	runCmd.Flags().String("protocol", "", "Target protocol, http or https (default http)")
	runCmd.Flags().IntP("concurrency", "c", 1, "Concurrent calls per scenario")
	runCmd.Flags().StringP("mode", "m", "", "JSON comparison mode, strict or loose (default strict)")
	runCmd.Flags().Duration("timeout", 0, "Per-request timeout (default 30s)")
	runCmd.Flags().Float64("rps", 0, "Maximum requests per second, 0 for unlimited")
	runCmd.Flags().String("launch", "", "Command starting the target; {{port}} and {{host}} are substituted")
	runCmd.Flags().String("health", "", "Path polled until the target is ready")
	runCmd.Flags().Duration("ready-timeout", 0, "Time allowed for the target to become ready (default 5s)")
	runCmd.Flags().Bool("insecure", false, "Skip TLS certificate verification")
	runCmd.Flags().String("ca-cert", "", "CA certificate file")
	runCmd.Flags().String("cert", "", "Client certificate file")
	runCmd.Flags().String("key", "", "Client key file")
	runCmd.Flags().StringVarP(&flagFormat, "format", "o", cli.FormatPretty, "Output format (pretty/json/yaml)")
	runCmd.Flags().StringVar(&flagFilter, "filter", "", "JMESPath filter applied to the report")
	runCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath query or $(shell command) applied to the report")
	runCmd.Flags().StringSliceVar(&flagOnly, "only", nil, "Run only scenario ids matching these globs")
	runCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not record the run in history")

	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of runs to list, 0 for all")
	historyCmd.Flags().Int64Var(&flagHistoryShow, "show", 0, "Print the stored report of a run id")
	historyCmd.Flags().StringVarP(&flagFormat, "format", "o", cli.FormatPretty, "Output format (pretty/json/yaml)")

	for _, c := range []*cobra.Command{mockCmd, echoCmd} {
		c.Flags().StringVar(&flagServeHost, "host", "localhost", "Host to bind")
		c.Flags().IntVarP(&flagServePort, "port", "p", 8080, "Port to bind")
	}
	mockCmd.Flags().BoolVar(&flagServeEcho, "echo", false, "Also serve /echo")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(echoCmd)
}

// initConfig prepares the config directory, the environment and the log file
func initConfig() {
	if flagConfigDir != "" {
		initErr = config.InitializeAt(flagConfigDir)
	} else {
		initErr = config.Initialize()
	}
	if initErr != nil {
		initErr = fmt.Errorf("failed to initialize config: %w", initErr)
		return
	}

	if initErr = config.LoadEnvFile(flagEnvFile); initErr != nil {
		return
	}

	cleanup, err := logger.Setup(logger.Config{Dir: config.LogDir, Debug: flagDebug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return
	}
	closeLogger = cleanup
}

// runSpec resolves the configuration from file, environment and flags, then runs path
func runSpec(cmd *cobra.Command, path string) error {
	v, err := config.NewViper(flagConfig)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	launch, err := config.LoadLaunch(v)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	return cli.Run(ctx, cli.RunOptions{
		Path:         path,
		Launch:       launch,
		Only:         flagOnly,
		OutputFormat: flagFormat,
		Filter:       flagFilter,
		Query:        flagQuery,
		NoSave:       flagNoSave,
		DatabasePath: config.DatabasePath,
		TargetLog:    filepath.Join(config.LogDir, "target.log"),
		Out:          cmd.OutOrStdout(),
	})
}

// bindFlags lets explicitly set flags override the config file and environment
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range runFlagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
