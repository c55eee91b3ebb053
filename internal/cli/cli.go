package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/telegrambis/internal/agent"
	"github.com/pfrederiksen/telegrambis/internal/config"
	"github.com/pfrederiksen/telegrambis/internal/history"
	"github.com/pfrederiksen/telegrambis/internal/logger"
	"github.com/pfrederiksen/telegrambis/internal/metrics"
	"github.com/pfrederiksen/telegrambis/internal/sink"
	"github.com/pfrederiksen/telegrambis/internal/telegram"
)

const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitNotWorking = 2
)

// TokenEnv fills the token option when it is not configured.
const TokenEnv = "TELEGRAM_BOT_TOKEN"

var (
	flagConfig   string
	flagSet      []string
	flagLogLevel string
	flagHistory  string
	flagName     string
	flagAPIURL   string
	flagFormat   string
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telegrambis",
		Short: "Pin messages and run polls through the Telegram Bot API",
		Long: `An agent that performs direct Telegram Bot API actions: pinning and
unpinning channel messages, and sending and stopping polls.

Options come from --config (YAML or JSON) and --set key=value overrides.
The bot token may also be given through the ` + TokenEnv + ` environment variable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "Options file (.yaml, .yml or .json)")
	flags.StringArrayVar(&flagSet, "set", nil, "Override an option (key=value, repeatable)")
	flags.StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&flagHistory, "history", history.DefaultDataDir, "History store: memory, a directory, file:<dir> or redis://host:port/db[?ttl=24h&prefix=app:]")
	flags.StringVar(&flagName, "name", "telegrambis", "Agent name")
	flags.StringVar(&flagAPIURL, "api-url", "", "Bot API base URL, for a local Bot API server (default https://api.telegram.org/bot)")
	flags.StringVar(&flagFormat, "format", "text", "Output format: text or json")

	cmd.AddCommand(
		newValidateCmd(),
		newCheckCmd(),
		newReceiveCmd(),
		newServeCmd(),
		newDescribeCmd(),
		newHealthCmd(),
	)

	return cmd
}

// loadOptions layers defaults, the options file, --set overrides and the
// token environment variable.
func loadOptions() (config.Options, error) {
	opts := config.DefaultOptions()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		opts = loaded
	}

	overrides, err := config.ParseAssignments(flagSet)
	if err != nil {
		return nil, err
	}
	opts = opts.With(overrides)

	if strings.TrimSpace(opts.String(config.KeyToken)) == "" {
		if token := os.Getenv(TokenEnv); token != "" {
			opts[config.KeyToken] = token
		}
	}
	return opts, nil
}

func outputFormat() (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}
	return format, nil
}

func newLogger(cmd *cobra.Command) (*logger.Logger, error) {
	level, err := logger.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, err
	}
	return logger.New(level, cmd.ErrOrStderr()), nil
}

// runtime is everything a command needs to drive the agent.
type runtime struct {
	agent   *agent.Agent
	log     *logger.Logger
	store   history.Store
	metrics *metrics.Metrics
}

type runtimeOptions struct {
	dryRun  bool
	metrics bool
}

// setup loads and validates the options and builds the agent. Invalid options
// are printed and turned into ExitError.
func setup(cmd *cobra.Command, ro runtimeOptions) (*runtime, error) {
	log, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}

	format, err := outputFormat()
	if err != nil {
		return nil, err
	}

	opts, err := loadOptions()
	if err != nil {
		return nil, err
	}

	if errs := config.Validate(opts); len(errs) > 0 {
		if err := WriteValidation(cmd.ErrOrStderr(), errs, format); err != nil {
			return nil, err
		}
		return nil, &exitError{code: ExitError, err: fmt.Errorf("%d invalid option(s)", len(errs))}
	}

	// Dry runs leave the persistent history untouched.
	var store history.Store = history.NewMemoryStore()
	if !ro.dryRun {
		if store, err = history.Open(flagHistory, flagName); err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
	}

	rt := &runtime{log: log, store: store}
	agentOpts := []agent.Option{
		agent.WithName(flagName),
		agent.WithLogger(log),
		agent.WithHistory(store),
		agent.WithSink(sink.NewPrinter(cmd.OutOrStdout(), false)),
	}
	if flagAPIURL != "" {
		agentOpts = append(agentOpts, agent.WithTelegramOptions(telegram.WithBaseURL(flagAPIURL)))
	}
	if ro.metrics {
		rt.metrics = metrics.New()
		agentOpts = append(agentOpts, agent.WithMetrics(rt.metrics))
	}

	rt.agent = agent.New(opts, agentOpts...)
	return rt, nil
}

// Run executes the command tree with the given arguments and streams and
// returns the process exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exitErr.err)
		}
		return exitErr.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitError
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
