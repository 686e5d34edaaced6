package trade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/predyx/market-engine/internal/model"
	"github.com/predyx/market-engine/internal/store"
)

// Engine prices and commits trades. Settlements for the same user are
// serialized with a per-user lock; different users proceed concurrently
// with no shared mutable state. The store backs this up with a
// compare-and-swap balance write inside one transaction, so even a second
// instance cannot produce a lost update.
type Engine struct {
	store store.Store

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

// NewEngine creates a settlement engine.
func NewEngine(st store.Store) *Engine {
	return &Engine{
		store: st,
		users: make(map[string]*sync.Mutex),
	}
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.users[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.users[userID] = lock
	}
	return lock
}

// Settle computes the trade cost, checks solvency, and commits the trade
// record and balance update atomically. Cost is rounded to the smallest
// currency unit (2 decimal places, half away from zero).
//
// SELL credits unconditionally: there is no holdings ledger, so sells are
// not checked against prior ownership.
func (e *Engine) Settle(ctx context.Context, userID string, vt *ValidatedTrade) (*model.Trade, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cost := vt.Shares.Mul(vt.Price).Round(2)

	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var newBalance decimal.Decimal
	if vt.Side == SideBuy {
		if profile.Balance.LessThan(cost) {
			return nil, ErrInsufficientBalance
		}
		newBalance = profile.Balance.Sub(cost)
	} else {
		newBalance = profile.Balance.Add(cost)
	}

	t := &model.Trade{
		ID:        uuid.New().String(),
		UserID:    userID,
		MarketID:  vt.MarketID,
		OutcomeID: vt.OutcomeID,
		Side:      vt.Side,
		Shares:    vt.Shares,
		Price:     vt.Price,
		Cost:      cost,
		CreatedAt: time.Now().UTC(),
	}

	if err := e.store.SettleTrade(ctx, t, profile.Balance, newBalance); err != nil {
		return nil, err
	}

	return t, nil
}
