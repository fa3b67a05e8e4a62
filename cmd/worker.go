package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/replybase/replybase/internal/notifier"
	"github.com/replybase/replybase/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start worker pools for various services",
	Long:  `Start and manage worker pools for background jobs like webhook notification delivery.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start notification delivery worker pool",
	Long:  `Start the worker pool that delivers invite lifecycle events to the configured webhook`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

var (
	maxWorkers     int
	jobQueueSize   int
	workerPoolSize int
	apiKey         string
	webhookURL     string
)

func startNotificationWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	// Use command line flags if provided, otherwise use config values
	notifierConfig := notifier.Config{
		WebhookURL:     getStringFlag(webhookURL, config.Notifier.WebhookURL),
		APIKey:         getStringFlag(apiKey, config.Notifier.APIKey),
		MaxWorkers:     getIntFlag(maxWorkers, config.Notifier.MaxWorkers),
		JobQueueSize:   getIntFlag(jobQueueSize, config.Notifier.JobQueueSize),
		WorkerPoolSize: getIntFlag(workerPoolSize, config.Notifier.WorkerPoolSize),
	}

	lg.Info("starting notification worker",
		"max_workers", notifierConfig.MaxWorkers,
		"job_queue_size", notifierConfig.JobQueueSize,
		"worker_pool_size", notifierConfig.WorkerPoolSize,
		"webhook_url", notifierConfig.WebhookURL)

	n := notifier.New(notifierConfig, lg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lg.Info("notification worker is running. Press Ctrl+C to stop.")

	sig := <-sigChan
	lg.Info("received signal, shutting down notification worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		n.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		lg.Info("notification worker pool shutdown complete")
	case <-ctx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	notificationWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&workerPoolSize, "worker-pool-size", 0, "Worker pool channel size (overrides config)")
	notificationWorkerCmd.Flags().StringVar(&apiKey, "api-key", "", "Webhook API key (overrides config)")
	notificationWorkerCmd.Flags().StringVar(&webhookURL, "webhook-url", "", "Webhook URL (overrides config)")

	workerCmd.AddCommand(notificationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
