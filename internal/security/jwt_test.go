package security_test

import (
	"shop-auth/config"
	"shop-auth/internal/model"
	"shop-auth/internal/security"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "sweetsalt"
	testUserID = "0b3c6f0e-3a8e-4c55-9a61-5d0f4b0b7e21"
)

var t0 = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		SecretKey:       testSecret,
		Issuer:          "shop-auth",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 180 * 24 * time.Hour,
		HeaderName:      "Authorization",
		HeaderPrefix:    "Bearer ",
		AccessSubject:   "accessJwt",
		RefreshSubject:  "refreshJwt",
	}
}

// testClock: управляемые тестом часы.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCodec() (*security.JWTService, *testClock) {
	clock := &testClock{now: t0}
	return security.NewJWTService(testJWTConfig()).WithClock(clock.Now), clock
}

func signRaw(t *testing.T, method jwt.SigningMethod, claims security.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func validClaims() security.Claims {
	return security.Claims{
		Version: security.ClaimsVersion,
		UserID:  testUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "accessJwt",
			Issuer:    "shop-auth",
			IssuedAt:  jwt.NewNumericDate(t0),
			ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
		},
	}
}

func tamperSignature(token string) string {
	idx := strings.LastIndex(token, ".") + 10
	replacement := byte('A')
	if token[idx] == 'A' {
		replacement = 'B'
	}
	return token[:idx] + string(replacement) + token[idx+1:]
}

func TestJWTService_IssueDecodeRoundTrip(t *testing.T) {
	codec, _ := newTestCodec()
	ttl := 1800 * time.Second

	signed, issued, err := codec.Issue(security.AccessToken, testUserID, []string{model.RoleUser}, ttl)
	require.NoError(t, err)

	decoded, err := codec.Decode(signed)
	require.NoError(t, err)

	assert.Equal(t, security.AccessToken, decoded.Type)
	assert.Equal(t, testUserID, decoded.UserID)
	assert.Equal(t, []string{model.RoleUser}, decoded.Roles)
	assert.True(t, t0.Equal(decoded.IssuedAt))
	assert.Equal(t, ttl, decoded.ExpiresAt.Sub(decoded.IssuedAt))
	assert.True(t, issued.ExpiresAt.Equal(decoded.ExpiresAt))
}

func TestJWTService_RefreshTokenCarriesNoRoles(t *testing.T) {
	codec, _ := newTestCodec()

	signed, _, err := codec.Issue(security.RefreshToken, testUserID, []string{model.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	decoded, err := codec.Decode(signed)
	require.NoError(t, err)
	assert.Equal(t, security.RefreshToken, decoded.Type)
	assert.Empty(t, decoded.Roles)
}

func TestJWTService_IssueTruncatesToSeconds(t *testing.T) {
	codec, clock := newTestCodec()
	clock.Advance(500 * time.Millisecond)

	_, issued, err := codec.Issue(security.AccessToken, testUserID, nil, 90*time.Second+700*time.Millisecond)
	require.NoError(t, err)

	assert.True(t, t0.Equal(issued.IssuedAt))
	assert.Equal(t, 90*time.Second, issued.ExpiresAt.Sub(issued.IssuedAt))
}

func TestJWTService_IssueRejectsBadInput(t *testing.T) {
	codec, _ := newTestCodec()

	_, _, err := codec.Issue(security.AccessToken, "not-a-uuid", nil, time.Hour)
	assert.Error(t, err)

	_, _, err = codec.Issue(security.AccessToken, testUserID, nil, 500*time.Millisecond)
	assert.Error(t, err)

	_, _, err = codec.Issue(security.TokenType(42), testUserID, nil, time.Hour)
	assert.Error(t, err)
}

func TestJWTService_Expiry(t *testing.T) {
	codec, clock := newTestCodec()

	signed, _, err := codec.Issue(security.AccessToken, testUserID, nil, time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute - time.Second)
	_, err = codec.Decode(signed)
	assert.NoError(t, err)

	clock.Advance(time.Second)
	_, err = codec.Decode(signed)
	assert.ErrorIs(t, err, model.ErrExpired)

	clock.Advance(time.Hour)
	_, err = codec.Decode(signed)
	assert.ErrorIs(t, err, model.ErrExpired)
}

func TestJWTService_TamperedSignature(t *testing.T) {
	codec, _ := newTestCodec()

	signed, _, err := codec.Issue(security.AccessToken, testUserID, nil, time.Hour)
	require.NoError(t, err)

	_, err = codec.Decode(tamperSignature(signed))
	assert.ErrorIs(t, err, model.ErrSignatureInvalid)
}

func TestJWTService_WrongSecret(t *testing.T) {
	codec, _ := newTestCodec()
	cfg := testJWTConfig()
	cfg.SecretKey = "another-secret"
	other := security.NewJWTService(cfg).WithClock(func() time.Time { return t0 })

	signed, _, err := other.Issue(security.AccessToken, testUserID, nil, time.Hour)
	require.NoError(t, err)

	_, err = codec.Decode(signed)
	assert.ErrorIs(t, err, model.ErrSignatureInvalid)
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	codec, _ := newTestCodec()

	_, err := codec.Decode(signRaw(t, jwt.SigningMethodHS256, validClaims()))
	assert.ErrorIs(t, err, model.ErrSignatureInvalid)
}

func TestJWTService_Malformed(t *testing.T) {
	codec, _ := newTestCodec()

	wrongVersion := validClaims()
	wrongVersion.Version = 2

	badID := validClaims()
	badID.UserID = "42"

	unknownSubject := validClaims()
	unknownSubject.Subject = "idJwt"

	noIssuedAt := validClaims()
	noIssuedAt.IssuedAt = nil

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"

	cases := map[string]string{
		"garbage":         "not-a-jwt",
		"empty segments":  "..",
		"wrong version":   signRaw(t, jwt.SigningMethodHS512, wrongVersion),
		"non uuid id":     signRaw(t, jwt.SigningMethodHS512, badID),
		"unknown subject": signRaw(t, jwt.SigningMethodHS512, unknownSubject),
		"no iat":          signRaw(t, jwt.SigningMethodHS512, noIssuedAt),
		"wrong issuer":    signRaw(t, jwt.SigningMethodHS512, wrongIssuer),
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(token)
			assert.ErrorIs(t, err, model.ErrMalformedToken)
		})
	}
}

func TestJWTService_MissingExpiry(t *testing.T) {
	codec, _ := newTestCodec()
	claims := validClaims()
	claims.ExpiresAt = nil

	_, err := codec.Decode(signRaw(t, jwt.SigningMethodHS512, claims))
	assert.ErrorIs(t, err, model.ErrMalformedToken)
}

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"   ", ""},
		{"Bearer", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"BEARER   abc  ", "abc"},
		{"  Bearer abc", "abc"},
		{"abc", "abc"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, security.ExtractBearerToken(tc.header, "Bearer "), "header %q", tc.header)
	}
}
