package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/telegrambis/internal/agent"
	"github.com/pfrederiksen/telegrambis/internal/event"
	"github.com/pfrederiksen/telegrambis/internal/history"
	"github.com/pfrederiksen/telegrambis/internal/logger"
	"github.com/pfrederiksen/telegrambis/internal/server"
)

var (
	flagDryRun     bool
	flagEventsFile string
	flagAddr       string
	flagEvery      time.Duration
	flagMetrics    bool
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the options and report every problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}
			opts, err := loadOptions()
			if err != nil {
				return err
			}

			errs := agent.New(opts, agent.WithLogger(logger.Nop())).Validate(opts)
			if err := WriteValidation(cmd.OutOrStdout(), errs, format); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			if len(errs) > 0 {
				return &exitError{code: ExitError}
			}
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the configured action once, as a scheduled tick would",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, runtimeOptions{dryRun: flagDryRun})
			if err != nil {
				return err
			}
			return rt.agent.Check(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Do not touch the persistent history")
	return cmd
}

func newReceiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Run the action once per incoming event",
		Long: `Reads events from --events-file (or stdin with "-") as a JSON array, a single
JSON object, or newline-delimited JSON objects. Each event's fields can be
referenced from the options with {{ field.path }}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, runtimeOptions{dryRun: flagDryRun})
			if err != nil {
				return err
			}

			events, err := readEvents(cmd.InOrStdin(), flagEventsFile)
			if err != nil {
				return err
			}
			rt.log.Debug("read events", logger.Fields{"count": len(events)})
			return rt.agent.Receive(cmd.Context(), events)
		},
	}
	cmd.Flags().StringVar(&flagEventsFile, "events-file", "-", "Events file, - for stdin")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Do not touch the persistent history")
	return cmd
}

func readEvents(stdin io.Reader, path string) ([]event.Event, error) {
	in := stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening events: %w", err)
		}
		defer f.Close()
		in = f
	}

	events, err := event.Read(in)
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return events, nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent over HTTP and run the schedule",
		Long: `Starts an HTTP server with:

  POST /events    run the action once per event in the body
  POST /check     run the action with the static options
  GET  /healthz   200 when working, 503 otherwise
  GET  /describe  agent metadata
  GET  /metrics   Prometheus metrics

and runs a check every --every (0 disables the schedule).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, runtimeOptions{metrics: flagMetrics})
			if err != nil {
				return err
			}

			opts := []server.Option{server.WithLogger(rt.log)}
			if rt.metrics != nil {
				opts = append(opts, server.WithMetrics(rt.metrics))
			}
			srv := server.New(rt.agent, opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, flagAddr, flagEvery)
		},
	}
	cmd.Flags().StringVar(&flagAddr, "addr", ":8080", "Listen address")
	cmd.Flags().DurationVar(&flagEvery, "every", 12*time.Hour, "Schedule interval")
	cmd.Flags().BoolVar(&flagMetrics, "metrics", true, "Serve Prometheus metrics on /metrics")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the agent metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}
			a := agent.New(nil, agent.WithName(flagName), agent.WithLogger(logger.Nop()))
			return WriteDescribe(cmd.OutOrStdout(), a.Describe(), format)
		},
	}
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report whether the agent is working",
		Long: fmt.Sprintf(`The agent is working when it emitted an event within
expected_receive_period_in_days and no error was logged since. Exits %d when
it is not working.`, ExitNotWorking),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}
			opts, err := loadOptions()
			if err != nil {
				return err
			}
			store, err := history.Open(flagHistory, flagName)
			if err != nil {
				return fmt.Errorf("opening history: %w", err)
			}

			a := agent.New(opts, agent.WithName(flagName), agent.WithLogger(logger.Nop()), agent.WithHistory(store))
			working, err := a.Working(cmd.Context())
			if err != nil {
				return err
			}
			state, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading history: %w", err)
			}

			if err := WriteHealth(cmd.OutOrStdout(), flagName, working, state, format); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			if !working {
				return &exitError{code: ExitNotWorking}
			}
			return nil
		},
	}
}
