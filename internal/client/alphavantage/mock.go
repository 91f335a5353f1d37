package alphavantage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deterministic fallback quotes for well-known symbols, used when the quota
// is exhausted. Unknown symbols get a fixed synthetic price derived from the
// symbol so repeated calls within a cycle agree with each other.
var mockQuotes = map[string]struct {
	price  string
	change string
	volume int64
}{
	"AAPL":  {"195.89", "2.34", 45123456},
	"MSFT":  {"378.85", "-1.23", 23456789},
	"NVDA":  {"489.75", "15.67", 67890123},
	"TSLA":  {"248.42", "-5.89", 34567890},
	"GOOGL": {"142.56", "0.98", 12345678},
	"AMZN":  {"145.23", "1.45", 28901234},
	"META":  {"325.67", "-2.34", 19876543},
	"IBM":   {"198.45", "0.78", 8765432},
}

func mockQuote(symbol string) *Quote {
	entry, ok := mockQuotes[symbol]
	if !ok {
		entry.price = syntheticPrice(symbol)
		entry.change = "0"
		entry.volume = 1000000
	}
	price, _ := decimal.NewFromString(entry.price)
	change, _ := decimal.NewFromString(entry.change)
	return &Quote{
		Symbol:           symbol,
		Price:            price,
		Change:           change,
		ChangePercent:    change.Div(price).Mul(decimal.NewFromInt(100)).Round(2).String() + "%",
		Volume:           entry.volume,
		LatestTradingDay: time.Now().UTC().Format("2006-01-02"),
		PreviousClose:    price.Sub(change),
		IsMock:           true,
	}
}

func mockOverview(symbol string) *Overview {
	return &Overview{
		Symbol:   symbol,
		Name:     symbol + " Inc.",
		Exchange: "NYSE",
		Sector:   "Unknown",
		IsMock:   true,
	}
}

// syntheticPrice maps a symbol to a stable price in the 50-500 range.
func syntheticPrice(symbol string) string {
	var sum int
	for _, r := range symbol {
		sum += int(r)
	}
	price := 50 + (sum*7)%450
	return decimal.NewFromInt(int64(price)).String()
}
