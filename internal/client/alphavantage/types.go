package alphavantage

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"rottenstocks/internal/client/base"
)

// Quote is a normalized GLOBAL_QUOTE response. IsMock marks synthetic
// fallback data returned under a dry quota; mock quotes are never cached or
// persisted by callers.
type Quote struct {
	Symbol           string          `json:"symbol"`
	Price            decimal.Decimal `json:"price"`
	Change           decimal.Decimal `json:"change"`
	ChangePercent    string          `json:"change_percent"`
	Volume           int64           `json:"volume"`
	LatestTradingDay string          `json:"latest_trading_day"`
	PreviousClose    decimal.Decimal `json:"previous_close"`
	IsMock           bool            `json:"is_mock"`
}

// Overview is a normalized company OVERVIEW response.
type Overview struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Exchange  string `json:"exchange"`
	Sector    string `json:"sector"`
	Industry  string `json:"industry"`
	PERatio   string `json:"pe_ratio"`
	MarketCap string `json:"market_cap"`
	IsMock    bool   `json:"is_mock"`
}

// rawQuote mirrors Alpha Vantage's numbered-key envelope.
type rawQuote struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

func parseQuote(body []byte) (*Quote, error) {
	var raw rawQuote
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &base.ParseError{Provider: providerName, Detail: "invalid JSON: " + err.Error()}
	}
	gq := raw.GlobalQuote
	if len(gq) == 0 {
		return nil, &base.ParseError{Provider: providerName, Detail: "missing Global Quote object"}
	}
	priceStr := strings.TrimSpace(gq["05. price"])
	if priceStr == "" {
		return nil, &base.ParseError{Provider: providerName, Detail: "missing price field"}
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil || price.IsZero() {
		return nil, &base.ParseError{Provider: providerName, Detail: "invalid price: " + priceStr}
	}

	q := &Quote{
		Symbol:           strings.TrimSpace(gq["01. symbol"]),
		Price:            price,
		ChangePercent:    strings.TrimSpace(gq["10. change percent"]),
		LatestTradingDay: strings.TrimSpace(gq["07. latest trading day"]),
	}
	if v, err := decimal.NewFromString(strings.TrimSpace(gq["09. change"])); err == nil {
		q.Change = v
	}
	if v, err := decimal.NewFromString(strings.TrimSpace(gq["08. previous close"])); err == nil {
		q.PreviousClose = v
	}
	if v, err := strconv.ParseInt(strings.TrimSpace(gq["06. volume"]), 10, 64); err == nil {
		q.Volume = v
	}
	return q, nil
}

func parseOverview(body []byte) (*Overview, error) {
	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &base.ParseError{Provider: providerName, Detail: "invalid JSON: " + err.Error()}
	}
	if strings.TrimSpace(raw["Symbol"]) == "" {
		return nil, &base.ParseError{Provider: providerName, Detail: "missing Symbol field"}
	}
	return &Overview{
		Symbol:    raw["Symbol"],
		Name:      raw["Name"],
		Exchange:  raw["Exchange"],
		Sector:    raw["Sector"],
		Industry:  raw["Industry"],
		PERatio:   raw["PERatio"],
		MarketCap: raw["MarketCapitalization"],
	}, nil
}
