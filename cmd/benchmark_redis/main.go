package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joripage/matching-core/config"
	"github.com/joripage/matching-core/pkg/engine"
	redis_wrapper "github.com/joripage/matching-core/pkg/infra/redis"
	"github.com/joripage/matching-core/pkg/orderbook"
	"github.com/joripage/matching-core/pkg/sink"
	"go.uber.org/zap"
)

// Measures how fast book snapshots can be pushed to redis while readers poll them.
func main() {
	var configFile string
	var numOrders, readers int
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.IntVar(&numOrders, "orders", 10_000, "Number of orders, one snapshot per order")
	flag.IntVar(&readers, "readers", 10, "Concurrent snapshot readers")
	flag.Parse()

	cfg, err := config.LoadOrDefault(configFile)
	if err != nil {
		panic(err)
	}
	if cfg.Redis == nil {
		cfg.Redis = &redis_wrapper.RedisConfig{ConnectionURL: "redis://localhost:6379/0", PoolSize: readers + 1}
	}

	client, err := redis_wrapper.InitRedis(cfg.Redis)
	if err != nil {
		zap.S().Fatalf("init redis fail with err: %v", err)
	}
	defer client.Close() // nolint

	prefix := cfg.Book.SnapshotPrefix + ":bench"
	publisher := sink.NewSnapshotPublisher(redis_wrapper.NewSnapshotStore(client, cfg.Redis), prefix)
	e := engine.NewEngine(nil)

	ctx, cancel := context.WithCancel(context.Background())
	var reads atomic.Int64
	var wg sync.WaitGroup
	wg.Add(readers)
	for r := 0; r < readers; r++ {
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				if err := client.Get(ctx, publisher.L1Key()).Err(); err == nil {
					reads.Add(1)
				}
			}
		}()
	}

	rng := rand.New(rand.NewSource(1))
	start := time.Now()
	for i := 0; i < numOrders; i++ {
		side := orderbook.BID
		if rng.Intn(2) == 0 {
			side = orderbook.ASK
		}
		e.Submit(side, int32(9900+rng.Intn(200)), uint32(1+rng.Intn(100)))
		if err := publisher.Publish(ctx, e.Depth(10, 10)); err != nil {
			zap.S().Fatalf("publish snapshot: %v", err)
		}
	}
	duration := time.Since(start)
	cancel()
	wg.Wait()

	fmt.Printf("Published %d snapshots in %s (%.2f snapshots/sec)\n",
		numOrders, duration, float64(numOrders)/duration.Seconds())
	fmt.Printf("Readers fetched %d snapshots (%.2f reads/sec)\n",
		reads.Load(), float64(reads.Load())/duration.Seconds())
}
