package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joripage/matching-core/config"
	"github.com/joripage/matching-core/pkg/console"
	"github.com/joripage/matching-core/pkg/engine"
	redis_wrapper "github.com/joripage/matching-core/pkg/infra/redis"
	kafkawrapper "github.com/joripage/matching-core/pkg/kafka_wrapper"
	"github.com/joripage/matching-core/pkg/logging"
	"github.com/joripage/matching-core/pkg/sink"
	"github.com/joripage/matching-core/pkg/tape"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	var verbose bool
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.BoolVar(&verbose, "log-events", false, "Log every execution and cancel")
	flag.Parse()

	cfg, err := config.LoadOrDefault(configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))
	defer logger.Sync() // nolint
	undo := zap.ReplaceGlobals(logger.Zap().With(zap.String("service", cfg.ServiceName)))
	defer undo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := engine.NewEngine(&engine.EngineConfig{})

	tp := tape.New(cfg.Book.TapeSize)
	e.RegisterHandler(tp)

	if verbose {
		e.RegisterHandler(sink.NewLogSink(logger))
	}

	if cfg.Kafka != nil {
		producer := kafkawrapper.NewProducer(kafkawrapper.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		defer producer.Close(context.Background()) // nolint
		e.RegisterHandler(sink.NewKafkaSink(producer, cfg.Kafka.Topic, logger))
		zap.S().Infof("journaling book events to kafka topic %s", cfg.Kafka.Topic)
	}

	var publisher console.Publisher
	if cfg.Redis != nil {
		client, err := redis_wrapper.InitRedisWithBackoff(cfg.Redis)
		if err != nil {
			zap.S().Fatalf("init redis fail with err: %v", err)
		}
		defer client.Close() // nolint
		publisher = sink.NewSnapshotPublisher(redis_wrapper.NewSnapshotStore(client, cfg.Redis), cfg.Book.SnapshotPrefix)
		zap.S().Infof("publishing snapshots under %s:*", cfg.Book.SnapshotPrefix)
	}

	session := console.NewSession(e, tp, publisher, console.Config{
		DepthLevels: cfg.Book.DepthLevels,
		PriceScale:  cfg.Book.PriceScale,
	}, os.Stdout, logger)

	if err := session.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		zap.S().Errorf("read commands: %v", err)
	}

	if !e.CheckConsistency() {
		zap.S().Error("book is inconsistent on exit")
	}
}
