package render

import (
	"encoding/json"

	"github.com/joripage/matching-core/pkg/orderbook"
)

const indent = "    "

type levelDoc struct {
	Price    int32  `json:"price"`
	Quantity uint64 `json:"quantity"`
}

type l1Doc struct {
	BestAsk         *levelDoc `json:"best_ask,omitempty"`
	BestBid         *levelDoc `json:"best_bid,omitempty"`
	LastTransaction *levelDoc `json:"last_transaction,omitempty"`
}

type bookDoc struct {
	Asks []levelDoc `json:"asks"`
	Bids []levelDoc `json:"bids"`
}

type l2Doc struct {
	l1Doc
	bookDoc
}

func newL1Doc(l1 orderbook.BestOfBook) l1Doc {
	var doc l1Doc
	if l1.BestAsk != nil {
		doc.BestAsk = &levelDoc{Price: l1.BestAsk.Price, Quantity: l1.BestAsk.Qty}
	}
	if l1.BestBid != nil {
		doc.BestBid = &levelDoc{Price: l1.BestBid.Price, Quantity: l1.BestBid.Qty}
	}
	if l1.LastTrade != nil {
		doc.LastTransaction = &levelDoc{Price: l1.LastTrade.Price, Quantity: l1.LastTrade.Qty}
	}
	return doc
}

func newBookDoc(d orderbook.Depth) bookDoc {
	return bookDoc{
		Asks: levelDocs(d.Asks),
		Bids: levelDocs(d.Bids),
	}
}

func levelDocs(levels []orderbook.Level) []levelDoc {
	docs := make([]levelDoc, 0, len(levels))
	for _, lvl := range levels {
		docs = append(docs, levelDoc{Price: lvl.Price, Quantity: lvl.Qty})
	}
	return docs
}

func marshal(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// L1JSON renders best ask, best bid and the last transaction; absent parts are omitted.
func L1JSON(l1 orderbook.BestOfBook) ([]byte, error) {
	return marshal(newL1Doc(l1))
}

// L2JSON renders the level 1 fields followed by the asks and bids arrays.
func L2JSON(d orderbook.Depth) ([]byte, error) {
	return marshal(l2Doc{
		l1Doc:   newL1Doc(d.BestOfBook),
		bookDoc: newBookDoc(d),
	})
}

// BookJSON renders only the asks and bids arrays.
func BookJSON(d orderbook.Depth) ([]byte, error) {
	return marshal(newBookDoc(d))
}
