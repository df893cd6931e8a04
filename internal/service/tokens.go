package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wizardguard/internal/domain"
	"wizardguard/internal/observability/metrics"
	"wizardguard/internal/store"
)

// TokenValidator is the authoritative check that a submitted token is live,
// unused and session-matched. A passing token is consumed in the same step.
type TokenValidator struct {
	tokens store.TokenStore
	secret string
	now    func() time.Time
	logger *slog.Logger
}

// NewTokenValidator wires a validator over the token store. secret is the
// master secret used for the server-verification value.
func NewTokenValidator(tokens store.TokenStore, secret string, logger *slog.Logger) *TokenValidator {
	return &TokenValidator{
		tokens: tokens,
		secret: secret,
		now: func() time.Time {
			return time.Now().UTC()
		},
		logger: logger,
	}
}

// Validate runs the ordered liveness checks; the first failure wins and
// carries its fixed cheat probability. On success the token is already
// marked used (atomically, in the store) and the verdict carries the
// server-verification value.
func (v *TokenValidator) Validate(sessionID, token string) domain.TokenVerdict {
	now := v.now()

	_, err := v.tokens.Consume(token, sessionID, now)
	if err != nil {
		verdict := rejectToken(err)
		metrics.TokenValidationsTotal.WithLabelValues("rejected").Inc()
		v.logger.Warn("token validation failed",
			"session_id", sessionID,
			"reason", verdict.Reason,
			"cheat_probability", verdict.CheatProbability,
		)
		return verdict
	}

	metrics.TokenValidationsTotal.WithLabelValues("accepted").Inc()
	return domain.TokenVerdict{
		Accepted:           true,
		ServerVerification: v.verification(sessionID, now),
	}
}

func rejectToken(err error) domain.TokenVerdict {
	switch {
	case errors.Is(err, store.ErrTokenNotFound):
		return domain.TokenVerdict{Reason: "Token not found", CheatProbability: 99}
	case errors.Is(err, store.ErrTokenExpired):
		return domain.TokenVerdict{Reason: "Token expired", CheatProbability: 95}
	case errors.Is(err, store.ErrTokenUsed):
		return domain.TokenVerdict{Reason: "Token already used", CheatProbability: 90}
	case errors.Is(err, store.ErrSessionMismatch):
		return domain.TokenVerdict{Reason: "Session mismatch", CheatProbability: 99}
	default:
		// Unexpected store failure: fail closed toward suspicion.
		return domain.TokenVerdict{Reason: "Validation error", CheatProbability: 85}
	}
}

// verification derives hash(sessionId:unix millis:secret) truncated to
// 16 hex characters.
func (v *TokenValidator) verification(sessionID string, now time.Time) string {
	input := fmt.Sprintf("%s:%d:%s", sessionID, now.UnixMilli(), v.secret)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}
