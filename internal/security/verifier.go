package security

import (
	"context"
	"errors"
	"fmt"
	"shop-auth/internal/metrics"
	"shop-auth/internal/model"
	"time"
)

// Outcome: итог одной проверки токена.
type Outcome int

const (
	OutcomeAnonymous Outcome = iota
	OutcomeInvalid
	OutcomeValid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAnonymous:
		return "anonymous"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeValid:
		return "valid"
	default:
		return "unknown"
	}
}

type Verification struct {
	Outcome Outcome
	// Reason заполнен для OutcomeInvalid.
	Reason    error
	Identity  *model.Identity
	Remaining time.Duration
}

func (v *Verification) Valid() bool {
	return v != nil && v.Outcome == OutcomeValid
}

// Verifier отвечает, можно ли сейчас использовать токен как доказательство
// личности. error возвращается только для model.ErrUpstreamUnavailable;
// невалидный токен это Verification с OutcomeInvalid.
type Verifier interface {
	Verify(ctx context.Context, credential string, tokenType TokenType) (*Verification, error)
}

// CutoffReader: часть хранилища отзывов, нужная для проверки.
type CutoffReader interface {
	GetCutoff(ctx context.Context, userID string) (time.Time, bool, error)
}

func anonymous() *Verification {
	return &Verification{Outcome: OutcomeAnonymous}
}

func invalid(reason error) *Verification {
	return &Verification{Outcome: OutcomeInvalid, Reason: reason}
}

type LocalVerifier struct {
	codec        *JWTService
	revocations  CutoffReader
	headerPrefix string
}

func NewLocalVerifier(codec *JWTService, revocations CutoffReader, headerPrefix string) *LocalVerifier {
	return &LocalVerifier{codec: codec, revocations: revocations, headerPrefix: headerPrefix}
}

func (v *LocalVerifier) Verify(ctx context.Context, credential string, tokenType TokenType) (*Verification, error) {
	raw := ExtractBearerToken(credential, v.headerPrefix)
	if raw == "" {
		return anonymous(), nil
	}

	token, err := v.codec.Decode(raw)
	if err != nil {
		return invalid(err), nil
	}

	if token.Type != tokenType {
		return invalid(fmt.Errorf("%w: ожидался %s, получен %s", model.ErrWrongTokenType, tokenType, token.Type)), nil
	}

	cutoff, ok, err := v.revocations.GetCutoff(ctx, token.UserID)
	if err != nil {
		if !errors.Is(err, model.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
		}
		return nil, err
	}
	if ok && !token.IssuedAt.After(cutoff) {
		return invalid(fmt.Errorf("%w: выпущен %s, отсечка %s", model.ErrRevoked, token.IssuedAt.Format(time.RFC3339), cutoff.Format(time.RFC3339Nano))), nil
	}

	remaining := token.ExpiresAt.Sub(v.codec.Now())
	if remaining < 0 {
		remaining = 0
	}

	return &Verification{
		Outcome:   OutcomeValid,
		Identity:  token.Identity(),
		Remaining: remaining,
	}, nil
}

// Introspect сводит результат проверки к ответу check-token:
// любой невалидный или анонимный результат дает valid=false, remainingSeconds=0.
func Introspect(v *Verification) *model.TokenIntrospection {
	if !v.Valid() {
		return &model.TokenIntrospection{Valid: false, RemainingSeconds: 0}
	}

	return &model.TokenIntrospection{
		UserID:           v.Identity.UserID,
		Roles:            v.Identity.Roles,
		Valid:            true,
		RemainingSeconds: int64(v.Remaining / time.Second),
	}
}

// InstrumentedVerifier считает исходы проверок в Prometheus.
type InstrumentedVerifier struct {
	next    Verifier
	name    string
	metrics *metrics.Metrics
}

func NewInstrumentedVerifier(next Verifier, name string, m *metrics.Metrics) *InstrumentedVerifier {
	return &InstrumentedVerifier{next: next, name: name, metrics: m}
}

func (v *InstrumentedVerifier) Verify(ctx context.Context, credential string, tokenType TokenType) (*Verification, error) {
	result, err := v.next.Verify(ctx, credential, tokenType)
	switch {
	case err != nil:
		v.metrics.ObserveVerification(v.name, "unavailable")
	default:
		v.metrics.ObserveVerification(v.name, result.Outcome.String())
	}
	return result, err
}
