package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joripage/matching-core/config"
	"github.com/joripage/matching-core/pkg/infra"
	kafkawrapper "github.com/joripage/matching-core/pkg/kafka_wrapper"
	"github.com/joripage/matching-core/pkg/logging"
	"github.com/joripage/matching-core/pkg/repo"
	"github.com/joripage/matching-core/pkg/worker"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	var migrationSource string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&migrationSource, "migration-source", "file://migration/sql", "Migration source url")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))
	defer logger.Sync() // nolint
	undo := zap.ReplaceGlobals(logger.Zap())
	defer undo()

	configBytes, err := json.MarshalIndent(cfg, "", "   ")
	if err != nil {
		zap.S().Warnf("could not convert config to JSON: %v", err)
	} else {
		zap.S().Debugf("load config %s", string(configBytes))
	}

	if cfg.JournalDB == nil || cfg.Kafka == nil {
		zap.S().Fatal("worker needs journal_db and kafka sections")
	}

	// init db
	db, err := infra.GetMigrateTool().ConnectAndMigrate(cfg.JournalDB, migrationSource)
	if err != nil {
		zap.S().Fatalf("init db fail with err: %v", err)
	}

	// init repo
	sqlRepo := repo.NewRepo(db)

	consumer, err := kafkawrapper.NewConsumerGroup(kafkawrapper.ConsumerConfig{
		Brokers:     cfg.Kafka.Brokers,
		GroupID:     cfg.Kafka.GroupID,
		Topic:       cfg.Kafka.Topic,
		WorkerCount: cfg.Kafka.WorkerCount,
		MaxRetries:  cfg.Kafka.MaxRetries,
		DLQTopic:    cfg.Kafka.DLQTopic,
	})
	if err != nil {
		zap.S().Fatalf("init consumer fail with err: %v", err)
	}
	defer consumer.Close() // nolint

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := worker.NewWorker(sqlRepo, logger)
	zap.S().Infof("consuming %s as %s", cfg.Kafka.Topic, cfg.Kafka.GroupID)
	if err := w.Run(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
		zap.S().Errorf("worker stopped: %v", err)
	}
}
