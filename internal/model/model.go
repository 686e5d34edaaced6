// Package model defines the core domain types shared across the trading
// service. All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market is a tradeable question with a set of quoted outcomes.
// Markets and outcomes are owned by an external market-management process;
// this service only reads them.
type Market struct {
	ID        string    `json:"id" db:"id"`
	Question  string    `json:"question" db:"question"`
	Status    string    `json:"status" db:"status"` // "open", "closed", "resolved"
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Outcome is one side of a market with its current quoted price.
// Price is a probability-like fraction, semantically in [0,1].
type Outcome struct {
	ID       string          `json:"id" db:"id"`
	MarketID string          `json:"market_id" db:"market_id"`
	Name     string          `json:"name" db:"name"`
	Price    decimal.Decimal `json:"price" db:"price"`
}

// Profile holds a user's cash balance. Balance is mutated only by the
// settlement engine, never directly by handlers.
type Profile struct {
	UserID  string          `json:"user_id" db:"user_id"`
	Balance decimal.Decimal `json:"balance" db:"balance"`
}

// Trade is an immutable record of a settled trade.
// Once created, these are never modified or deleted.
type Trade struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	MarketID  string          `json:"market_id" db:"market_id"`
	OutcomeID string          `json:"outcome_id" db:"outcome_id"`
	Side      string          `json:"side" db:"side"` // "BUY" or "SELL"
	Shares    decimal.Decimal `json:"shares" db:"shares"`
	Price     decimal.Decimal `json:"price" db:"price"` // quoted price at execution
	Cost      decimal.Decimal `json:"cost" db:"cost"`   // shares * price, rounded to cents
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Market status values. Only open markets accept trades.
const (
	MarketOpen     = "open"
	MarketClosed   = "closed"
	MarketResolved = "resolved"
)
