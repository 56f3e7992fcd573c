package render

import (
	"io"
	"strconv"

	"github.com/joripage/matching-core/pkg/orderbook"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

// Price formats integer ticks as a decimal with scale fractional digits.
func Price(ticks int32, scale int32) string {
	return decimal.New(int64(ticks), -scale).StringFixed(scale)
}

// DepthTable writes the book side by side, bids left and asks right, best prices on the first row.
func DepthTable(w io.Writer, d orderbook.Depth, scale int32) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"bid qty", "bid", "ask", "ask qty"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	rows := max(len(d.Bids), len(d.Asks))
	for i := 0; i < rows; i++ {
		row := make([]string, 4)
		if i < len(d.Bids) {
			row[0] = strconv.FormatUint(d.Bids[i].Qty, 10)
			row[1] = Price(d.Bids[i].Price, scale)
		}
		if i < len(d.Asks) {
			row[2] = Price(d.Asks[i].Price, scale)
			row[3] = strconv.FormatUint(d.Asks[i].Qty, 10)
		}
		table.Append(row)
	}

	if d.LastTrade != nil {
		table.SetCaption(true, "last "+strconv.FormatUint(d.LastTrade.Qty, 10)+" @ "+Price(d.LastTrade.Price, scale))
	}
	table.Render()
}

// OrdersTable lists resting orders of one side in matching priority.
func OrdersTable(w io.Writer, title string, orders []orderbook.Order, scale int32) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "side", "price", "qty"})
	for _, o := range orders {
		table.Append([]string{
			strconv.FormatUint(o.ID, 10),
			string(o.Side),
			Price(o.Price, scale),
			strconv.FormatUint(uint64(o.Qty), 10),
		})
	}
	table.SetCaption(true, title)
	table.Render()
}
