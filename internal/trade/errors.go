package trade

import "errors"

// Trade sides. Matched case-sensitively; no normalization.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Validation and settlement errors. Handlers map these to HTTP statuses
// and fixed response bodies with errors.Is.
var (
	ErrMalformedRequest      = errors.New("invalid trade params")
	ErrOutcomeNotFound       = errors.New("outcome not found")
	ErrOutcomeMarketMismatch = errors.New("outcome does not belong to that market")
	ErrMarketNotOpen         = errors.New("market is not open for trading")
	ErrInsufficientBalance   = errors.New("insufficient balance")
)
