package trade_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/predyx/market-engine/internal/model"
	"github.com/predyx/market-engine/internal/store"
	"github.com/predyx/market-engine/internal/trade"
)

func TestValidate(t *testing.T) {
	ms := store.NewMemoryStore()
	seedMarket(t, ms, "m1", model.MarketOpen)
	seedMarket(t, ms, "m2", model.MarketOpen)
	seedMarket(t, ms, "m3", model.MarketResolved)
	v := trade.NewValidator(ms)

	tests := []struct {
		name     string
		req      trade.TradeRequest
		marketID string
		wantErr  error
	}{
		{
			name:     "valid buy",
			req:      trade.TradeRequest{OutcomeID: "m1-yes", Side: "BUY", Shares: decimal.NewFromInt(10)},
			marketID: "m1",
		},
		{
			name:     "valid sell",
			req:      trade.TradeRequest{OutcomeID: "m1-no", Side: "SELL", Shares: decimal.NewFromFloat(0.5)},
			marketID: "m1",
		},
		{
			name:     "empty outcome id",
			req:      trade.TradeRequest{Side: "BUY", Shares: decimal.NewFromInt(10)},
			marketID: "m1",
			wantErr:  trade.ErrMalformedRequest,
		},
		{
			name:     "side not normalized",
			req:      trade.TradeRequest{OutcomeID: "m1-yes", Side: "Buy", Shares: decimal.NewFromInt(10)},
			marketID: "m1",
			wantErr:  trade.ErrMalformedRequest,
		},
		{
			name:     "zero shares",
			req:      trade.TradeRequest{OutcomeID: "m1-yes", Side: "BUY", Shares: decimal.Zero},
			marketID: "m1",
			wantErr:  trade.ErrMalformedRequest,
		},
		{
			name:     "unknown outcome",
			req:      trade.TradeRequest{OutcomeID: "nope", Side: "BUY", Shares: decimal.NewFromInt(10)},
			marketID: "m1",
			wantErr:  trade.ErrOutcomeNotFound,
		},
		{
			name:     "outcome from another market",
			req:      trade.TradeRequest{OutcomeID: "m1-yes", Side: "BUY", Shares: decimal.NewFromInt(10)},
			marketID: "m2",
			wantErr:  trade.ErrOutcomeMarketMismatch,
		},
		{
			name:     "resolved market",
			req:      trade.TradeRequest{OutcomeID: "m3-yes", Side: "BUY", Shares: decimal.NewFromInt(10)},
			marketID: "m3",
			wantErr:  trade.ErrMarketNotOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vt, err := v.Validate(context.Background(), tt.req, tt.marketID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if vt.MarketID != tt.marketID || vt.OutcomeID != tt.req.OutcomeID {
				t.Errorf("validated trade ids do not match request: %+v", vt)
			}
			if vt.Price.IsZero() {
				t.Error("expected price snapshot from outcome")
			}
		})
	}
}

// Validation is ordered and short-circuits: a request that is both
// structurally broken and references a missing outcome reports the
// structural failure.
func TestValidate_Ordering(t *testing.T) {
	ms := store.NewMemoryStore()
	v := trade.NewValidator(ms)

	_, err := v.Validate(context.Background(), trade.TradeRequest{
		OutcomeID: "missing",
		Side:      "MAYBE",
		Shares:    decimal.NewFromInt(-1),
	}, "m1")

	if !errors.Is(err, trade.ErrMalformedRequest) {
		t.Errorf("expected structural error first, got %v", err)
	}
}
