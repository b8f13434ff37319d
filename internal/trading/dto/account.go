package dto

import (
	"time"

	"momentum-trader/internal/entity"
)

// AccountSnapshot is the broker's view of the account at run start.
type AccountSnapshot struct {
	Cash           float64           `json:"cash"`
	BuyingPower    float64           `json:"buying_power"`
	PortfolioValue float64           `json:"portfolio_value"`
	Positions      []entity.Position `json:"positions"`
}

const (
	OrderSideBuy  = "buy"
	OrderSideSell = "sell"
)

// OrderIntent is one decided order, produced by the decision pass and
// consumed by the execution adapter. Price is the decision price; the fill
// may differ.
type OrderIntent struct {
	Symbol         string    `json:"symbol"`
	Side           string    `json:"side"`
	Quantity       int64     `json:"quantity"`
	Price          float64   `json:"price"`
	Reason         string    `json:"reason"`
	SignalStrength *float64  `json:"signal_strength,omitempty"`
	EntryPrice     *float64  `json:"entry_price,omitempty"`
	EntryDate      time.Time `json:"entry_date,omitempty"`
}

// Fill reports the broker's execution of one order.
type Fill struct {
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Quantity  int64     `json:"quantity"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
