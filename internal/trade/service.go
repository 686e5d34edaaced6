// Package trade provides the HTTP handlers and business logic for the
// trading endpoint: listing markets, validating trade requests, and
// settling them against user balances.
//
// All monetary values use shopspring/decimal — never float64 for money.
package trade

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/predyx/market-engine/internal/auth"
	"github.com/predyx/market-engine/internal/metrics"
	"github.com/predyx/market-engine/internal/model"
	"github.com/predyx/market-engine/internal/store"
)

// Service handles market listing and trade execution. Validation and
// settlement are delegated to Validator and Engine; handlers only decode,
// authenticate, and map errors to HTTP responses.
type Service struct {
	store     store.Store
	verifier  auth.Verifier
	validator *Validator
	engine    *Engine
	hub       *Hub // optional WebSocket hub for trade broadcasts
}

// NewService creates a new trade service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, verifier auth.Verifier, hub *Hub) *Service {
	return &Service{
		store:     st,
		verifier:  verifier,
		validator: NewValidator(st),
		engine:    NewEngine(st),
		hub:       hub,
	}
}

// --- Request/Response types ---

// TradeRequest is the JSON body for POST /markets/{marketID}/trade.
// Shares decodes through decimal so malformed numerics fail at the JSON
// boundary, before anything reaches the engine.
type TradeRequest struct {
	OutcomeID string          `json:"outcomeId"`
	Side      string          `json:"side"`   // "BUY" or "SELL"
	Shares    decimal.Decimal `json:"shares"` // must be > 0
}

// TradeResponse is the JSON body returned on a settled trade.
type TradeResponse struct {
	Success bool         `json:"success"`
	Trade   *model.Trade `json:"trade"`
}

// MarketsResponse wraps the market list.
type MarketsResponse struct {
	Markets []model.Market `json:"markets"`
}

// --- HTTP Handlers ---

// ListMarkets handles GET /markets.
// Markets come back newest first with nested outcomes.
func (s *Service) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.store.ListMarkets(r.Context())
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if markets == nil {
		markets = []model.Market{}
	}

	writeJSON(w, http.StatusOK, MarketsResponse{Markets: markets})
}

// GetMarket handles GET /markets/{marketID}.
func (s *Service) GetMarket(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	market, err := s.store.GetMarket(r.Context(), marketID)
	if err != nil {
		if errors.Is(err, store.ErrMarketNotFound) {
			writeError(w, "Market not found", http.StatusNotFound)
			return
		}
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// ExecuteTrade handles POST /markets/{marketID}/trade.
// Flow: bearer auth → structural+referential validation → settlement.
func (s *Service) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid trade params", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	marketID := chi.URLParam(r, "marketID")

	vt, err := s.validator.Validate(ctx, req, marketID)
	if err != nil {
		s.writeValidationError(w, err)
		return
	}

	start := time.Now()
	trade, err := s.engine.Settle(ctx, userID, vt)
	if err != nil {
		s.writeSettlementError(w, err)
		return
	}
	metrics.SettlementLatency.WithLabelValues(trade.Side).Observe(time.Since(start).Seconds())
	metrics.TradesTotal.WithLabelValues(trade.Side).Inc()

	slog.Info("trade settled",
		"trade_id", trade.ID,
		"user", userID,
		"market", trade.MarketID,
		"outcome", trade.OutcomeID,
		"side", trade.Side,
		"shares", trade.Shares.String(),
		"price", trade.Price.String(),
		"cost", trade.Cost.String(),
	)

	if s.hub != nil {
		s.hub.Broadcast(Message{
			Type:      "trade_executed",
			MarketID:  trade.MarketID,
			OutcomeID: trade.OutcomeID,
			Side:      trade.Side,
			Shares:    trade.Shares.String(),
			Price:     trade.Price.String(),
		})
	}

	writeJSON(w, http.StatusOK, TradeResponse{Success: true, Trade: trade})
}

// GetMarketTrades handles GET /markets/{marketID}/trades.
func (s *Service) GetMarketTrades(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")

	trades, err := s.store.ListTradesByMarket(r.Context(), marketID)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}

	writeJSON(w, http.StatusOK, map[string][]model.Trade{"trades": trades})
}

// GetProfile handles GET /me.
func (s *Service) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			writeError(w, "User profile not found", http.StatusBadRequest)
			return
		}
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// GetMyTrades handles GET /me/trades.
func (s *Service) GetMyTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	trades, err := s.store.ListTradesByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}

	writeJSON(w, http.StatusOK, map[string][]model.Trade{"trades": trades})
}

// --- Error mapping ---

// authenticate resolves the bearer credential, writing the 401 response
// itself on failure. A missing header and a rejected token produce
// distinct bodies.
func (s *Service) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, "No Authorization header", http.StatusUnauthorized)
		return "", false
	}

	userID, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			writeError(w, "Invalid token", http.StatusUnauthorized)
		} else {
			slog.Error("auth verification failed", "err", err)
			writeError(w, "auth service unavailable", http.StatusInternalServerError)
		}
		return "", false
	}

	return userID, true
}

func (s *Service) writeValidationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMalformedRequest):
		metrics.TradeRejections.WithLabelValues("malformed").Inc()
		writeError(w, "Invalid trade params", http.StatusBadRequest)
	case errors.Is(err, ErrOutcomeNotFound):
		metrics.TradeRejections.WithLabelValues("outcome_not_found").Inc()
		writeError(w, "Outcome not found", http.StatusBadRequest)
	case errors.Is(err, ErrOutcomeMarketMismatch):
		metrics.TradeRejections.WithLabelValues("market_mismatch").Inc()
		writeError(w, "Outcome does not belong to that market", http.StatusBadRequest)
	case errors.Is(err, ErrMarketNotOpen):
		metrics.TradeRejections.WithLabelValues("market_not_open").Inc()
		writeError(w, "Market is not open for trading", http.StatusConflict)
	default:
		slog.Error("trade validation failed", "err", err)
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) writeSettlementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrProfileNotFound):
		metrics.TradeRejections.WithLabelValues("no_profile").Inc()
		writeError(w, "User profile not found", http.StatusBadRequest)
	case errors.Is(err, ErrInsufficientBalance):
		metrics.TradeRejections.WithLabelValues("insufficient_balance").Inc()
		writeError(w, "Insufficient balance", http.StatusBadRequest)
	case errors.Is(err, store.ErrBalanceConflict):
		metrics.TradeRejections.WithLabelValues("balance_conflict").Inc()
		writeError(w, "Balance changed, retry", http.StatusConflict)
	default:
		slog.Error("trade settlement failed", "err", err)
		writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
