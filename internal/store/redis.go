package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/predyx/market-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for the slow-changing catalog (markets, outcomes). Profiles are
// never cached: settlement depends on reading the live balance.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetMarket(ctx context.Context, id string) (*model.Market, error) {
	data, err := s.rdb.Get(ctx, marketKey(id)).Bytes()
	if err == nil {
		var m model.Market
		if json.Unmarshal(data, &m) == nil {
			return &m, nil
		}
	}

	m, err := s.primary.GetMarket(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheMarket(ctx, m)
	return m, nil
}

func (s *CachedStore) GetOutcome(ctx context.Context, id string) (*model.Outcome, error) {
	data, err := s.rdb.Get(ctx, outcomeKey(id)).Bytes()
	if err == nil {
		var o model.Outcome
		if json.Unmarshal(data, &o) == nil {
			return &o, nil
		}
	}

	o, err := s.primary.GetOutcome(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(o); err == nil {
		s.rdb.Set(ctx, outcomeKey(id), data, s.ttl)
	}
	return o, nil
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateMarket(ctx context.Context, m *model.Market) error {
	if err := s.primary.CreateMarket(ctx, m); err != nil {
		return err
	}
	s.cacheMarket(ctx, m)
	return nil
}

func (s *CachedStore) SettleTrade(ctx context.Context, t *model.Trade, expectedBalance, newBalance decimal.Decimal) error {
	return s.primary.SettleTrade(ctx, t, expectedBalance, newBalance)
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListMarkets(ctx context.Context) ([]model.Market, error) {
	return s.primary.ListMarkets(ctx)
}

func (s *CachedStore) CreateProfile(ctx context.Context, p *model.Profile) error {
	return s.primary.CreateProfile(ctx, p)
}

func (s *CachedStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	return s.primary.GetProfile(ctx, userID)
}

func (s *CachedStore) ListTradesByMarket(ctx context.Context, marketID string) ([]model.Trade, error) {
	return s.primary.ListTradesByMarket(ctx, marketID)
}

func (s *CachedStore) ListTradesByUser(ctx context.Context, userID string) ([]model.Trade, error) {
	return s.primary.ListTradesByUser(ctx, userID)
}

// --- Cache helpers ---

func (s *CachedStore) cacheMarket(ctx context.Context, m *model.Market) {
	if data, err := json.Marshal(m); err == nil {
		s.rdb.Set(ctx, marketKey(m.ID), data, s.ttl)
	}
	for _, o := range m.Outcomes {
		if data, err := json.Marshal(o); err == nil {
			s.rdb.Set(ctx, outcomeKey(o.ID), data, s.ttl)
		}
	}
}

func marketKey(id string) string  { return fmt.Sprintf("market:%s", id) }
func outcomeKey(id string) string { return fmt.Sprintf("outcome:%s", id) }
