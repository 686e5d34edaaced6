package trade_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/predyx/market-engine/internal/store"
	"github.com/predyx/market-engine/internal/trade"
)

func newEngine(t *testing.T) (*trade.Engine, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore()
	return trade.NewEngine(ms), ms
}

func TestSettle_CostRoundedToCents(t *testing.T) {
	engine, ms := newEngine(t)
	seedProfile(t, ms, "alice", 100)

	// 3 * 0.333 = 0.999 → rounds to 1.00.
	tr, err := engine.Settle(context.Background(), "alice", &trade.ValidatedTrade{
		OutcomeID: "o1",
		MarketID:  "m1",
		Price:     d(0.333),
		Side:      "BUY",
		Shares:    d(3),
	})
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if !tr.Cost.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected cost=1.00, got %s", tr.Cost)
	}

	profile, _ := ms.GetProfile(context.Background(), "alice")
	if !profile.Balance.Equal(d(99)) {
		t.Errorf("expected balance=99, got %s", profile.Balance)
	}
}

func TestSettle_PriceCopiedFromValidation(t *testing.T) {
	engine, ms := newEngine(t)
	seedProfile(t, ms, "alice", 100)

	tr, err := engine.Settle(context.Background(), "alice", &trade.ValidatedTrade{
		OutcomeID: "o1",
		MarketID:  "m1",
		Price:     d(0.42),
		Side:      "SELL",
		Shares:    d(10),
	})
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if !tr.Price.Equal(d(0.42)) {
		t.Errorf("trade must carry the validation-time price, got %s", tr.Price)
	}
}

func TestSettle_ProfileNotFound(t *testing.T) {
	engine, _ := newEngine(t)

	_, err := engine.Settle(context.Background(), "ghost", &trade.ValidatedTrade{
		OutcomeID: "o1",
		MarketID:  "m1",
		Price:     d(0.5),
		Side:      "BUY",
		Shares:    d(1),
	})
	if err == nil {
		t.Fatal("expected error for missing profile")
	}
}

// Concurrent settlements for one user serialize: with balance 100 and
// cost 30 per trade, exactly 3 of many concurrent buys settle.
func TestSettle_ConcurrentSameUser(t *testing.T) {
	engine, ms := newEngine(t)
	seedProfile(t, ms, "alice", 100)

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	settled := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Settle(context.Background(), "alice", &trade.ValidatedTrade{
				OutcomeID: "o1",
				MarketID:  "m1",
				Price:     d(0.3),
				Side:      "BUY",
				Shares:    d(100), // cost 30
			})
			if err == nil {
				mu.Lock()
				settled++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if settled != 3 {
		t.Errorf("expected exactly 3 settled trades, got %d", settled)
	}
	profile, _ := ms.GetProfile(context.Background(), "alice")
	if !profile.Balance.Equal(d(10)) {
		t.Errorf("expected balance=10, got %s", profile.Balance)
	}
	if profile.Balance.IsNegative() {
		t.Errorf("balance went negative: %s", profile.Balance)
	}
}

// Different users settle independently; neither blocks the other and each
// ends with its own balance.
func TestSettle_ConcurrentDistinctUsers(t *testing.T) {
	engine, ms := newEngine(t)
	seedProfile(t, ms, "alice", 50)
	seedProfile(t, ms, "bob", 50)

	var wg sync.WaitGroup
	for _, user := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				engine.Settle(context.Background(), user, &trade.ValidatedTrade{
					OutcomeID: "o1",
					MarketID:  "m1",
					Price:     d(0.5),
					Side:      "BUY",
					Shares:    d(2), // cost 1
				})
			}
		}(user)
	}
	wg.Wait()

	for _, user := range []string{"alice", "bob"} {
		profile, _ := ms.GetProfile(context.Background(), user)
		if !profile.Balance.Equal(d(40)) {
			t.Errorf("%s: expected balance=40, got %s", user, profile.Balance)
		}
	}
}

func TestSettle_BuyThenSellRoundTrip(t *testing.T) {
	engine, ms := newEngine(t)
	seedProfile(t, ms, "alice", 100)

	vt := &trade.ValidatedTrade{
		OutcomeID: "o1",
		MarketID:  "m1",
		Price:     d(0.55),
		Shares:    d(20),
	}

	vt.Side = "BUY"
	if _, err := engine.Settle(context.Background(), "alice", vt); err != nil {
		t.Fatalf("buy failed: %v", err)
	}
	vt.Side = "SELL"
	if _, err := engine.Settle(context.Background(), "alice", vt); err != nil {
		t.Fatalf("sell failed: %v", err)
	}

	profile, _ := ms.GetProfile(context.Background(), "alice")
	if !profile.Balance.Equal(d(100)) {
		t.Errorf("round trip at one price should restore the balance, got %s", profile.Balance)
	}

	trades, _ := ms.ListTradesByUser(context.Background(), "alice")
	if len(trades) != 2 {
		t.Errorf("expected 2 immutable trade records, got %d", len(trades))
	}
}
