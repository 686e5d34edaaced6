package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/predyx/market-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateMarket(ctx context.Context, m *model.Market) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO markets (id, question, status, created_at)
		 VALUES ($1, $2, $3, $4)`,
		m.ID, m.Question, m.Status, m.CreatedAt,
	)
	if err != nil {
		return err
	}
	for _, o := range m.Outcomes {
		_, err = tx.Exec(ctx,
			`INSERT INTO outcomes (id, market_id, name, price)
			 VALUES ($1, $2, $3, $4::NUMERIC)`,
			o.ID, m.ID, o.Name, o.Price.String(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetMarket(ctx context.Context, id string) (*model.Market, error) {
	var m model.Market
	err := s.pool.QueryRow(ctx,
		`SELECT id, question, status, created_at FROM markets WHERE id = $1`, id).
		Scan(&m.ID, &m.Question, &m.Status, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get market %s: %w", id, ErrMarketNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get market %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, market_id, name, price::TEXT
		 FROM outcomes WHERE market_id = $1 ORDER BY name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m.Outcomes, err = scanOutcomes(rows)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PostgresStore) ListMarkets(ctx context.Context) ([]model.Market, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, question, status, created_at
		 FROM markets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []model.Market
	index := make(map[string]int)
	for rows.Next() {
		var m model.Market
		if err := rows.Scan(&m.ID, &m.Question, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		index[m.ID] = len(markets)
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orows, err := s.pool.Query(ctx,
		`SELECT id, market_id, name, price::TEXT FROM outcomes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer orows.Close()

	outcomes, err := scanOutcomes(orows)
	if err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		if i, ok := index[o.MarketID]; ok {
			markets[i].Outcomes = append(markets[i].Outcomes, o)
		}
	}
	return markets, nil
}

func (s *PostgresStore) GetOutcome(ctx context.Context, id string) (*model.Outcome, error) {
	var o model.Outcome
	var price string
	err := s.pool.QueryRow(ctx,
		`SELECT id, market_id, name, price::TEXT FROM outcomes WHERE id = $1`, id).
		Scan(&o.ID, &o.MarketID, &o.Name, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get outcome %s: %w", id, ErrOutcomeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get outcome %s: %w", id, err)
	}
	o.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse outcome %s price %q: %w", id, price, err)
	}
	return &o, nil
}

func (s *PostgresStore) CreateProfile(ctx context.Context, p *model.Profile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, balance) VALUES ($1, $2::NUMERIC)`,
		p.UserID, p.Balance.String(),
	)
	return err
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	var balance string
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, balance::TEXT FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get profile %s: %w", userID, ErrProfileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	p.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("parse profile %s balance %q: %w", userID, balance, err)
	}
	return &p, nil
}

// SettleTrade inserts the trade and applies a compare-and-swap balance
// update inside a single transaction. Either both rows land or neither
// does, so a trade record can never exist without its balance movement.
func (s *PostgresStore) SettleTrade(ctx context.Context, t *model.Trade, expectedBalance, newBalance decimal.Decimal) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO trades (id, user_id, market_id, outcome_id, side, shares, price, cost, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9)`,
		t.ID, t.UserID, t.MarketID, t.OutcomeID, t.Side,
		t.Shares.String(), t.Price.String(), t.Cost.String(),
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE profiles SET balance = $2::NUMERIC
		 WHERE user_id = $1 AND balance = $3::NUMERIC`,
		t.UserID, newBalance.String(), expectedBalance.String(),
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a vanished profile from a concurrent balance change.
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id = $1)`,
			t.UserID).Scan(&exists); err != nil {
			return fmt.Errorf("check profile: %w", err)
		}
		if !exists {
			return fmt.Errorf("settle for %s: %w", t.UserID, ErrProfileNotFound)
		}
		return fmt.Errorf("settle for %s: %w", t.UserID, ErrBalanceConflict)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) ListTradesByMarket(ctx context.Context, marketID string) ([]model.Trade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, market_id, outcome_id, side,
		        shares::TEXT, price::TEXT, cost::TEXT, created_at
		 FROM trades WHERE market_id = $1 ORDER BY created_at`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

func (s *PostgresStore) ListTradesByUser(ctx context.Context, userID string) ([]model.Trade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, market_id, outcome_id, side,
		        shares::TEXT, price::TEXT, cost::TEXT, created_at
		 FROM trades WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

func scanOutcomes(rows pgx.Rows) ([]model.Outcome, error) {
	var outcomes []model.Outcome
	for rows.Next() {
		var o model.Outcome
		var price string
		if err := rows.Scan(&o.ID, &o.MarketID, &o.Name, &price); err != nil {
			return nil, err
		}
		var err error
		o.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse outcome %s price %q: %w", o.ID, price, err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func scanTrades(rows pgx.Rows) ([]model.Trade, error) {
	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		var sharesS, priceS, costS string
		if err := rows.Scan(&t.ID, &t.UserID, &t.MarketID, &t.OutcomeID, &t.Side,
			&sharesS, &priceS, &costS, &t.CreatedAt); err != nil {
			return nil, err
		}
		var err error
		if t.Shares, err = decimal.NewFromString(sharesS); err != nil {
			return nil, fmt.Errorf("parse trade %s shares %q: %w", t.ID, sharesS, err)
		}
		if t.Price, err = decimal.NewFromString(priceS); err != nil {
			return nil, fmt.Errorf("parse trade %s price %q: %w", t.ID, priceS, err)
		}
		if t.Cost, err = decimal.NewFromString(costS); err != nil {
			return nil, fmt.Errorf("parse trade %s cost %q: %w", t.ID, costS, err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
