package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/ev-parlay/internal/api"
	"github.com/yourusername/ev-parlay/internal/metrics"
	"github.com/yourusername/ev-parlay/internal/scheduler"
	"github.com/yourusername/ev-parlay/internal/service"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the build and simulate HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if err := validateConfig(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Metrics.Enabled {
			metrics.InitRegistry()
		}

		odds := newOddsClient()
		defer odds.Close()

		if cfg.Server.RefreshCron != "" {
			sched := scheduler.NewScheduler(odds, appLog.WithField("component", "scheduler"))
			if err := sched.ScheduleOddsRefresh(cfg.Server.RefreshCron); err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}

		svc := service.NewParlayService(cfg, odds, appLog)
		srv := api.NewServer(api.Config{
			ServiceName:    cfg.App.Name,
			Version:        Version + "+" + GitCommit,
			Port:           cfg.Server.Port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsPath:    cfg.Metrics.Path,
			ModelDir:       cfg.Server.ModelDir,
			Logger:         appLog,
		}, svc)
		if err := srv.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()
		appLog.Info("Shutdown signal received")
		return srv.Shutdown()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "HTTP listen port")
}
