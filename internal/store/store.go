// Package store defines the persistence interface for the trading service.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/predyx/market-engine/internal/model"
)

// Sentinel errors returned by all Store implementations. Callers match
// with errors.Is; wrapped messages carry the offending id.
var (
	ErrMarketNotFound  = errors.New("market not found")
	ErrOutcomeNotFound = errors.New("outcome not found")
	ErrProfileNotFound = errors.New("user profile not found")

	// ErrBalanceConflict means the conditional balance update matched no
	// row: the balance changed between read and write. Nothing was
	// persisted; the caller may reload and retry.
	ErrBalanceConflict = errors.New("balance changed since read")
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Market catalog (read-mostly; writes are for seeding and tests) ---

	// CreateMarket persists a market together with its outcomes.
	CreateMarket(ctx context.Context, market *model.Market) error

	// GetMarket retrieves a market with its outcomes by ID.
	GetMarket(ctx context.Context, id string) (*model.Market, error)

	// ListMarkets returns all markets with nested outcomes, newest first.
	ListMarkets(ctx context.Context) ([]model.Market, error)

	// GetOutcome retrieves a single outcome by ID.
	GetOutcome(ctx context.Context, id string) (*model.Outcome, error)

	// --- Profiles ---

	// CreateProfile persists a new user profile.
	CreateProfile(ctx context.Context, profile *model.Profile) error

	// GetProfile retrieves a user's profile by user ID.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)

	// --- Settlement ---

	// SettleTrade commits the trade insert and the balance update as one
	// atomic unit. The balance write is conditional on expectedBalance
	// still being the stored balance; on mismatch it returns
	// ErrBalanceConflict and persists nothing.
	SettleTrade(ctx context.Context, trade *model.Trade, expectedBalance, newBalance decimal.Decimal) error

	// --- Immutable trade history ---

	// ListTradesByMarket returns all trades for a market, oldest first.
	ListTradesByMarket(ctx context.Context, marketID string) ([]model.Trade, error)

	// ListTradesByUser returns all trades for a user, oldest first.
	ListTradesByUser(ctx context.Context, userID string) ([]model.Trade, error)
}
