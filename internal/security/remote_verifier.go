package security

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"shop-auth/internal/metrics"
	"shop-auth/internal/model"
	"shop-auth/internal/model/requestresponse"
	"time"
)

var errRejectedByIntrospection = errors.New("токен отклонен сервисом проверки")

// RemoteVerifier проверяет access токены через check-token эндпоинт
// user-service вместо локальной проверки подписи.
type RemoteVerifier struct {
	url          string
	client       *http.Client
	timeout      time.Duration
	headerPrefix string
	metrics      *metrics.Metrics
}

func NewRemoteVerifier(url string, client *http.Client, timeout time.Duration, headerPrefix string, m *metrics.Metrics) *RemoteVerifier {
	if client == nil {
		client = &http.Client{}
	}
	return &RemoteVerifier{
		url:          url,
		client:       client,
		timeout:      timeout,
		headerPrefix: headerPrefix,
		metrics:      m,
	}
}

func (v *RemoteVerifier) Verify(ctx context.Context, credential string, tokenType TokenType) (*Verification, error) {
	raw := ExtractBearerToken(credential, v.headerPrefix)
	if raw == "" {
		return anonymous(), nil
	}
	if tokenType != AccessToken {
		return invalid(fmt.Errorf("%w: удаленно проверяются только access токены", model.ErrWrongTokenType)), nil
	}

	result, err := v.introspect(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
	}

	if !result.Valid {
		return invalid(errRejectedByIntrospection), nil
	}

	remaining := time.Duration(result.RemainingSeconds) * time.Second
	return &Verification{
		Outcome: OutcomeValid,
		Identity: &model.Identity{
			UserID:    result.UserID,
			Roles:     result.Roles,
			ExpiresAt: time.Now().Add(remaining),
		},
		Remaining: remaining,
	}, nil
}

func (v *RemoteVerifier) introspect(ctx context.Context, accessJwt string) (*model.TokenIntrospection, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	body, err := json.Marshal(requestresponse.AccessTokenCheckRequest{AccessJwt: accessJwt})
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := v.client.Do(req)
	v.metrics.ObserveRemoteCall(started)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса к %s: %w", v.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("сервис проверки ответил %d", resp.StatusCode)
	}

	var decoded requestresponse.AccessTokenCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа: %w", err)
	}

	result := decoded.Response
	if result.Valid && result.UserID == "" {
		return nil, fmt.Errorf("ответ без userId для валидного токена")
	}
	if result.RemainingSeconds < 0 {
		return nil, fmt.Errorf("отрицательный remainingSeconds: %d", result.RemainingSeconds)
	}

	return &result, nil
}
