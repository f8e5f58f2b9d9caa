package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/streadway/amqp"

	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/queue"
	"github.com/jonathan/resume-screener/internal/screening"
	"github.com/jonathan/resume-screener/internal/storage"
)

var workerCount int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Screen submissions from the RabbitMQ queue",
	Long: `Consume resume submissions from RabbitMQ, download each resume from S3
compatible storage, screen it, save the application and publish an
application.screened event.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerCount, "workers", 0, "Concurrent consumers (overrides WORKERS)")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(_ *cobra.Command, _ []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL environment variable is required")
	}
	if workerCount > 0 {
		cfg.Workers = workerCount
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	downloader, err := storage.NewS3Downloader(ctx, cfg)
	if err != nil {
		return err
	}
	parser, _, err := parsing.FromConfig(cfg)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	defer func() { _ = conn.Close() }()

	pubCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open publish channel: %w", err)
	}
	defer func() { _ = pubCh.Close() }()
	publisher, err := queue.NewPublisher(pubCh, cfg.EventExchange)
	if err != nil {
		return err
	}

	svc := screening.NewService(parser, database, screening.Options{})
	proc := queue.NewProcessor(database, downloader, svc, publisher)

	log.Printf("worker=start queue=%s exchange=%s bucket=%s workers=%d",
		cfg.QueueName, cfg.EventExchange, downloader.Bucket(), cfg.Workers)
	if err := queue.NewConsumer(conn, cfg.QueueName, cfg.Workers, proc).Run(ctx); err != nil {
		return err
	}
	log.Println("worker=stop")
	return nil
}
