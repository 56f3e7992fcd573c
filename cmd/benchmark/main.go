package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/joripage/matching-core/pkg/engine"
	"github.com/joripage/matching-core/pkg/orderbook"
	"github.com/joripage/matching-core/pkg/render"
)

const (
	minPrice = 10000
	maxPrice = 20000
	minQty   = 1
	maxQty   = 100
)

func main() {
	var numOrders int
	var cancelEvery int
	var seed int64
	flag.IntVar(&numOrders, "orders", 1_000_000, "Number of orders to submit")
	flag.IntVar(&cancelEvery, "cancel-every", 5, "Cancel a resting order every n submits, 0 to disable")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(seed))
	e := engine.NewEngine(nil)

	totalMatched := 0
	totalQty := uint64(0)
	e.RegisterHandler(orderbook.HandlerFuncs{
		Executed: func(fragment orderbook.Order) {
			// each match emits two fragments
			totalMatched++
			totalQty += uint64(fragment.Qty)
		},
	})

	var resting []uint64
	canceled := 0

	start := time.Now()
	for i := 1; i <= numOrders; i++ {
		side := orderbook.BID
		if rng.Intn(2) == 0 {
			side = orderbook.ASK
		}
		price := int32(minPrice + rng.Intn(maxPrice-minPrice+1))
		qty := uint32(rng.Intn(maxQty-minQty+1) + minQty)

		res := e.Submit(side, price, qty)
		if res.Resting {
			resting = append(resting, res.OrderID)
		}

		if cancelEvery > 0 && i%cancelEvery == 0 && len(resting) > 0 {
			j := rng.Intn(len(resting))
			if e.Cancel(resting[j]) == nil {
				canceled++
			}
			resting[j] = resting[len(resting)-1]
			resting = resting[:len(resting)-1]
		}
	}
	elapsed := time.Since(start)

	fmt.Println("--------")
	fmt.Printf("Total Orders     : %d\n", numOrders)
	fmt.Printf("Total Matches    : %d\n", totalMatched/2)
	fmt.Printf("Total Matched Qty: %d\n", totalQty/2)
	fmt.Printf("Canceled         : %d\n", canceled)
	fmt.Printf("Time Taken       : %s\n", elapsed)
	fmt.Printf("Orders/sec       : %.0f\n", float64(numOrders)/elapsed.Seconds())
	fmt.Printf("Consistent       : %v\n", e.CheckConsistency())

	render.DepthTable(os.Stdout, e.Depth(5, 5), 2)
}
