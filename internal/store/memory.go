package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/predyx/market-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	markets  map[string]*model.Market
	outcomes map[string]*model.Outcome // outcomeID → outcome
	profiles map[string]*model.Profile
	trades   []model.Trade
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		markets:  make(map[string]*model.Market),
		outcomes: make(map[string]*model.Outcome),
		profiles: make(map[string]*model.Profile),
	}
}

func (s *MemoryStore) CreateMarket(_ context.Context, m *model.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markets[m.ID]; ok {
		return fmt.Errorf("market %s already exists", m.ID)
	}

	// Store copies to avoid external mutation.
	cp := *m
	cp.Outcomes = append([]model.Outcome(nil), m.Outcomes...)
	s.markets[m.ID] = &cp
	for i := range cp.Outcomes {
		o := cp.Outcomes[i]
		s.outcomes[o.ID] = &o
	}
	return nil
}

func (s *MemoryStore) GetMarket(_ context.Context, id string) (*model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markets[id]
	if !ok {
		return nil, fmt.Errorf("get market %s: %w", id, ErrMarketNotFound)
	}
	cp := *m
	cp.Outcomes = append([]model.Outcome(nil), m.Outcomes...)
	return &cp, nil
}

func (s *MemoryStore) ListMarkets(_ context.Context) ([]model.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markets := make([]model.Market, 0, len(s.markets))
	for _, m := range s.markets {
		cp := *m
		cp.Outcomes = append([]model.Outcome(nil), m.Outcomes...)
		markets = append(markets, cp)
	}
	sort.Slice(markets, func(i, j int) bool {
		return markets[i].CreatedAt.After(markets[j].CreatedAt)
	})
	return markets, nil
}

func (s *MemoryStore) GetOutcome(_ context.Context, id string) (*model.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.outcomes[id]
	if !ok {
		return nil, fmt.Errorf("get outcome %s: %w", id, ErrOutcomeNotFound)
	}
	cp := *o
	return &cp, nil
}

func (s *MemoryStore) CreateProfile(_ context.Context, p *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.UserID]; ok {
		return fmt.Errorf("profile %s already exists", p.UserID)
	}
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

func (s *MemoryStore) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("get profile %s: %w", userID, ErrProfileNotFound)
	}
	cp := *p
	return &cp, nil
}

// SettleTrade appends the trade and swaps the balance under one lock, so
// the two writes are indivisible exactly like the Postgres transaction.
func (s *MemoryStore) SettleTrade(_ context.Context, t *model.Trade, expectedBalance, newBalance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[t.UserID]
	if !ok {
		return fmt.Errorf("settle for %s: %w", t.UserID, ErrProfileNotFound)
	}
	if !p.Balance.Equal(expectedBalance) {
		return fmt.Errorf("settle for %s: %w", t.UserID, ErrBalanceConflict)
	}

	s.trades = append(s.trades, *t)
	p.Balance = newBalance
	return nil
}

func (s *MemoryStore) ListTradesByMarket(_ context.Context, marketID string) ([]model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Trade
	for _, t := range s.trades {
		if t.MarketID == marketID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *MemoryStore) ListTradesByUser(_ context.Context, userID string) ([]model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Trade
	for _, t := range s.trades {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result, nil
}
