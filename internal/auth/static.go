package auth

import "context"

// StaticVerifier resolves tokens from a fixed token→userID map. Used for
// development (dev_tokens config) and testing; never in production.
type StaticVerifier struct {
	tokens map[string]string
}

// NewStatic creates a verifier over a fixed token map.
func NewStatic(tokens map[string]string) *StaticVerifier {
	cp := make(map[string]string, len(tokens))
	for k, v := range tokens {
		cp[k] = v
	}
	return &StaticVerifier{tokens: cp}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	userID, ok := v.tokens[token]
	if !ok {
		return "", ErrInvalidCredential
	}
	return userID, nil
}
