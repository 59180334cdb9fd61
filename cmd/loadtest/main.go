package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/config"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/depositor"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfg      depositor.Config
		interval float64
		timeout  float64
	)

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Send sequential test deposits and log every response to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Interval = seconds(interval)
			cfg.Timeout = seconds(timeout)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}

	f := cmd.Flags()
	f.StringVar(&cfg.URL, "url", getEnv("LOADTEST_URL", "http://localhost:8001/api/deposit"), "deposit endpoint URL")
	f.Int64Var(&cfg.ID, "id", getEnvInt("LOADTEST_ID", 0), "telegram id (or user id with --use-user-id)")
	f.Int64Var(&cfg.Amount, "amount", getEnvInt("LOADTEST_AMOUNT", depositor.DefaultAmount), "deposit amount")
	f.IntVar(&cfg.Iterations, "iterations", int(getEnvInt("LOADTEST_ITERATIONS", depositor.DefaultIterations)), "number of deposits to send")
	f.Float64Var(&interval, "interval", getEnvFloat("LOADTEST_INTERVAL", depositor.DefaultInterval.Seconds()), "seconds to wait between deposits")
	f.StringVar(&cfg.Prefix, "prefix", getEnv("LOADTEST_PREFIX", depositor.DefaultPrefix), "tx_musd prefix")
	f.BoolVar(&cfg.UseUserID, "use-user-id", getEnv("LOADTEST_USE_USER_ID", "") == "true", "send user_id instead of telegram_id")
	f.StringVar(&cfg.LogPath, "log", getEnv("LOADTEST_LOG", depositor.DefaultLogPath), "CSV log path")
	f.Float64Var(&timeout, "timeout", getEnvFloat("LOADTEST_TIMEOUT", depositor.DefaultTimeout.Seconds()), "per-request timeout in seconds")

	return cmd
}

func run(parent context.Context, cfg depositor.Config) error {
	config.SetupLogging(config.LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "text"),
	})

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := depositor.OpenCSVLog(cfg.LogPath)
	if err != nil {
		return err
	}
	defer out.Close()

	log.WithFields(log.Fields{
		"url":        cfg.URL,
		"iterations": cfg.Iterations,
		"interval":   cfg.Interval,
		"log":        cfg.LogPath,
	}).Info("Starting deposit load test")

	runner := depositor.NewRunner(cfg, depositor.NewClient(cfg.URL, cfg.Timeout), out)
	sum, err := runner.Run(ctx)

	log.WithFields(log.Fields{
		"attempts": sum.Attempts,
		"ok":       sum.OK,
		"not_ok":   sum.NotOK,
		"errors":   sum.Errors,
	}).Info("Load test finished")

	if err != nil && ctx.Err() != nil {
		log.Warn("Load test interrupted")
		return nil
	}
	return err
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	if n, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if n, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return n
	}
	return defaultValue
}
