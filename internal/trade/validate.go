package trade

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/predyx/market-engine/internal/model"
	"github.com/predyx/market-engine/internal/store"
)

// ValidatedTrade is the outcome snapshot handed to the settlement engine.
// Price is the quoted price at validation time; settlement uses it even if
// the outcome is repriced before commit.
type ValidatedTrade struct {
	OutcomeID string
	MarketID  string
	Price     decimal.Decimal
	Side      string
	Shares    decimal.Decimal
}

// Validator checks trade requests against the market catalog.
type Validator struct {
	store store.Store
}

// NewValidator creates a trade validator.
func NewValidator(st store.Store) *Validator {
	return &Validator{store: st}
}

// Validate runs the checks in order, short-circuiting on the first
// failure: structural fields, outcome existence, market reference, and
// market status. All-or-nothing; no partial results.
func (v *Validator) Validate(ctx context.Context, req TradeRequest, marketID string) (*ValidatedTrade, error) {
	if req.OutcomeID == "" {
		return nil, ErrMalformedRequest
	}
	if req.Side != SideBuy && req.Side != SideSell {
		return nil, ErrMalformedRequest
	}
	if req.Shares.LessThanOrEqual(decimal.Zero) {
		return nil, ErrMalformedRequest
	}

	outcome, err := v.store.GetOutcome(ctx, req.OutcomeID)
	if err != nil {
		if errors.Is(err, store.ErrOutcomeNotFound) {
			return nil, ErrOutcomeNotFound
		}
		return nil, err
	}
	if outcome.MarketID != marketID {
		return nil, ErrOutcomeMarketMismatch
	}

	market, err := v.store.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if market.Status != model.MarketOpen {
		return nil, ErrMarketNotOpen
	}

	return &ValidatedTrade{
		OutcomeID: outcome.ID,
		MarketID:  marketID,
		Price:     outcome.Price,
		Side:      req.Side,
		Shares:    req.Shares,
	}, nil
}
