package security_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"shop-auth/internal/model"
	"shop-auth/internal/model/requestresponse"
	"shop-auth/internal/security"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func introspectionServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func respondIntrospection(w http.ResponseWriter, result model.TokenIntrospection) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(requestresponse.AccessTokenCheckResponse{Response: result})
}

func TestRemoteVerifier_Valid(t *testing.T) {
	srv, calls := introspectionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req requestresponse.AccessTokenCheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "abc.def.ghi", req.AccessJwt)

		respondIntrospection(w, model.TokenIntrospection{
			UserID:           testUserID,
			Roles:            []string{model.RoleManager},
			Valid:            true,
			RemainingSeconds: 1790,
		})
	})

	verifier := security.NewRemoteVerifier(srv.URL, srv.Client(), time.Second, "Bearer ", nil)
	result, err := verifier.Verify(context.Background(), "Bearer abc.def.ghi", security.AccessToken)
	require.NoError(t, err)
	require.True(t, result.Valid())
	assert.Equal(t, testUserID, result.Identity.UserID)
	assert.True(t, result.Identity.HasRole(model.RoleManager))
	assert.Equal(t, 1790*time.Second, result.Remaining)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRemoteVerifier_Rejected(t *testing.T) {
	srv, _ := introspectionServer(t, func(w http.ResponseWriter, r *http.Request) {
		respondIntrospection(w, model.TokenIntrospection{Valid: false})
	})

	verifier := security.NewRemoteVerifier(srv.URL, srv.Client(), time.Second, "Bearer ", nil)
	result, err := verifier.Verify(context.Background(), "Bearer revoked", security.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, security.OutcomeInvalid, result.Outcome)
	assert.Error(t, result.Reason)
}

func TestRemoteVerifier_NoCallWithoutCredential(t *testing.T) {
	srv, calls := introspectionServer(t, func(w http.ResponseWriter, r *http.Request) {
		respondIntrospection(w, model.TokenIntrospection{Valid: false})
	})

	verifier := security.NewRemoteVerifier(srv.URL, srv.Client(), time.Second, "Bearer ", nil)

	result, err := verifier.Verify(context.Background(), "", security.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, security.OutcomeAnonymous, result.Outcome)

	result, err = verifier.Verify(context.Background(), "Bearer refresh", security.RefreshToken)
	require.NoError(t, err)
	assert.ErrorIs(t, result.Reason, model.ErrWrongTokenType)

	assert.Zero(t, calls.Load())
}

func TestRemoteVerifier_Unavailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"garbage body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		},
		"valid without user": func(w http.ResponseWriter, r *http.Request) {
			respondIntrospection(w, model.TokenIntrospection{Valid: true, RemainingSeconds: 10})
		},
		"negative remaining": func(w http.ResponseWriter, r *http.Request) {
			respondIntrospection(w, model.TokenIntrospection{UserID: testUserID, Valid: true, RemainingSeconds: -1})
		},
		"timeout": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := introspectionServer(t, handler)
			verifier := security.NewRemoteVerifier(srv.URL, srv.Client(), 100*time.Millisecond, "Bearer ", nil)

			result, err := verifier.Verify(context.Background(), "Bearer token", security.AccessToken)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
		})
	}
}

func TestRemoteVerifier_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	verifier := security.NewRemoteVerifier(url, nil, time.Second, "Bearer ", nil)
	_, err := verifier.Verify(context.Background(), "Bearer token", security.AccessToken)
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
}

// Обе реализации дают одинаковый итог для одного и того же токена.
func TestVerifiers_AgreeOnOutcome(t *testing.T) {
	f := newVerifierFixture(t)
	signed, _ := f.issue(t, security.AccessToken, 1800*time.Second)

	srv, _ := introspectionServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req requestresponse.AccessTokenCheckRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		result, err := f.verifier.Verify(r.Context(), req.AccessJwt, security.AccessToken)
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		respondIntrospection(w, *security.Introspect(result))
	})
	remote := security.NewRemoteVerifier(srv.URL, srv.Client(), time.Second, "Bearer ", nil)
	ctx := context.Background()

	for _, credential := range []string{"", "Bearer garbage", "Bearer " + signed} {
		local, err := f.verifier.Verify(ctx, credential, security.AccessToken)
		require.NoError(t, err)
		remoteResult, err := remote.Verify(ctx, credential, security.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, local.Outcome, remoteResult.Outcome, "credential %q", credential)
	}

	require.NoError(t, f.revocations.SetCutoff(ctx, testUserID, f.clock.Now(), time.Hour))
	remoteResult, err := remote.Verify(ctx, "Bearer "+signed, security.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, security.OutcomeInvalid, remoteResult.Outcome)

	f.redis.Close()
	_, err = remote.Verify(ctx, "Bearer "+signed, security.AccessToken)
	assert.ErrorIs(t, err, model.ErrUpstreamUnavailable)
}
