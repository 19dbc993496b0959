// Command tickboard runs the simulated market dashboard.
//
// Usage:
//
//	tickboard serve --config widgets.yaml
//	tickboard watch --widget crypto
//	tickboard setup
//	tickboard loadtest --url http://localhost:8080/stream --conns 500
//
// Without --config the embedded fixture is used.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vadiminshakov/tickboard/config"
	"github.com/vadiminshakov/tickboard/internal"
	"github.com/vadiminshakov/tickboard/internal/events"
	"github.com/vadiminshakov/tickboard/internal/loadtest"
	"github.com/vadiminshakov/tickboard/internal/metrics"
	"github.com/vadiminshakov/tickboard/internal/setup"
	"github.com/vadiminshakov/tickboard/internal/tui"
	"github.com/vadiminshakov/tickboard/internal/web"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const busBuffer = 64

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(ctx).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd(ctx context.Context) *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	root := &cobra.Command{
		Use:           "tickboard",
		Short:         "Live simulated market dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to widgets yaml, embedded fixture when empty")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")

	root.AddCommand(serveCmd(ctx, &configPath, &debug))
	root.AddCommand(watchCmd(ctx, &configPath, &debug))
	root.AddCommand(setupCmd())
	root.AddCommand(loadtestCmd(ctx, &debug))

	return root
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func serveCmd(ctx context.Context, configPath *string, debug *bool) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard and serve it over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(*debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}

			reg := metrics.NewRegistry()
			bus := events.NewBroadcaster[events.Message](busBuffer)

			dashboard, err := internal.NewDashboard(cfg, logger, reg, bus)
			if err != nil {
				return err
			}
			server := web.NewServer(cfg.HTTPAddr, logger, bus, reg, cfg.Widgets)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Start(gctx)
			})
			g.Go(func() error {
				if err := dashboard.Run(gctx); !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})

			logger.Info("tickboard started", zap.String("addr", cfg.HTTPAddr), zap.Int("widgets", len(cfg.Widgets)))
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "http listen address, overrides the config")

	return cmd
}

func watchCmd(ctx context.Context, configPath *string, debug *bool) *cobra.Command {
	var widget string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the dashboard in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// the terminal is the display, log only on request
			logger := zap.NewNop()
			if *debug {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				logger = l
			}
			defer logger.Sync()

			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if widget != "" {
				if _, ok := cfg.Widget(widget); !ok {
					return fmt.Errorf("unknown widget %q", widget)
				}
			}

			bus := events.NewBroadcaster[events.Message](busBuffer)
			ch := bus.Subscribe()
			defer bus.Unsubscribe(ch)

			dashboard, err := internal.NewDashboard(cfg, logger, nil, bus)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := dashboard.Run(gctx); !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				return tui.Watch(gctx, ch, cmd.OutOrStdout(), widget)
			})

			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&widget, "widget", "", "show a single widget")

	return cmd
}

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive wizard writing a widgets yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := setup.RunTUI()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run it with: tickboard serve --config %s\n", path)
			return nil
		},
	}
}

func loadtestCmd(ctx context.Context, debug *bool) *cobra.Command {
	var opts loadtest.Options

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Open many SSE clients against a running dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(*debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			// default ramp-up: 1 second per 500 connections
			if opts.RampUp == 0 && opts.Connections > 100 {
				opts.RampUp = time.Duration(opts.Connections/500) * time.Second
				if opts.RampUp < time.Second {
					opts.RampUp = time.Second
				}
			}

			report, err := loadtest.Run(ctx, logger, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "done: connected=%d connect_errs=%d stream_errs=%d events=%d gaps=%d elapsed=%s events/s=%.2f\n",
				report.Connected, report.ConnectErrs, report.StreamErrs, report.Events, report.Gaps,
				report.Elapsed.Truncate(time.Millisecond), report.PerSecond())
			for kind, n := range report.ByKind {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s=%d\n", kind, n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", "http://localhost:8080/stream", "SSE endpoint URL")
	cmd.Flags().IntVar(&opts.Connections, "conns", 100, "number of concurrent connections to open")
	cmd.Flags().DurationVar(&opts.Duration, "dur", 60*time.Second, "test duration (0 for until interrupted)")
	cmd.Flags().DurationVar(&opts.RampUp, "ramp", 0, "ramp-up duration")
	cmd.Flags().DurationVar(&opts.StatusInterval, "status", 5*time.Second, "progress log interval")

	return cmd
}
