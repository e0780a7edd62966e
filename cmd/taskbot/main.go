package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskbot/internal/bot"
	"github.com/nhle/taskbot/internal/model"
	"github.com/nhle/taskbot/internal/report"
	"github.com/nhle/taskbot/internal/stats"
	"github.com/nhle/taskbot/internal/store"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "taskbot",
		Short:         "Telegram task-tracking bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "configuration file")

	root.AddCommand(newServeCmd(), newReportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and the daily report scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cfg.Bot.Token == "" {
				return fmt.Errorf("no bot token: set bot.token in %s or TASKBOT_TOKEN", configPath)
			}

			log := mustMakeLogger(cfg.LogLevel)

			loc, err := cfg.Report.Location()
			if err != nil {
				return err
			}

			st, err := store.NewSQLiteStore(cfg.Storage.Path, log)
			if err != nil {
				return err
			}
			defer st.Close()

			agg := stats.NewAggregator(st, loc)

			b, err := bot.New(cfg.Bot.Token, cfg.Bot.PollTimeoutSec, st, agg, log)
			if err != nil {
				return err
			}
			log.Info("authenticated", "bot", b.Username())

			sched := report.New(st, agg, b, cfg.Report.Hour, cfg.Report.Minute, loc, log)
			sched.Start()
			defer sched.Stop()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("serving updates",
				"db", cfg.Storage.Path,
				"report_at", fmt.Sprintf("%02d:%02d %s", cfg.Report.Hour, cfg.Report.Minute, cfg.Report.Timezone))

			if err := b.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			log.Info("shutdown requested")
			return nil
		},
	}
}

func newReportCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the daily report fan-out once, or print one user's report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}
			log := mustMakeLogger(cfg.LogLevel)

			loc, err := cfg.Report.Location()
			if err != nil {
				return err
			}

			st, err := store.NewSQLiteStore(cfg.Storage.Path, log)
			if err != nil {
				return err
			}
			defer st.Close()

			agg := stats.NewAggregator(st, loc)
			ctx := cmd.Context()

			if userID != 0 {
				r, err := agg.BuildReport(ctx, userID, time.Now())
				if err != nil {
					return err
				}
				fmt.Printf("total=%d done=%d active=%d done_today=%d done_week=%d p_total=%.1f p_today=%.1f p_week=%.1f\n",
					r.Total, r.DoneTotal, r.ActiveTotal, r.DoneToday, r.DoneWeek,
					r.PercentTotal, r.PercentToday, r.PercentWeek)
				return nil
			}

			if cfg.Bot.Token == "" {
				return fmt.Errorf("no bot token: set bot.token in %s or TASKBOT_TOKEN", configPath)
			}
			b, err := bot.New(cfg.Bot.Token, cfg.Bot.PollTimeoutSec, st, agg, log)
			if err != nil {
				return err
			}

			sched := report.New(st, agg, b, cfg.Report.Hour, cfg.Report.Minute, loc, log)
			return sched.RunOnce(ctx)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "print a single user's report to stdout instead of dispatching")
	return cmd
}

// mustMakeLogger builds the process logger at the configured level.
func mustMakeLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
