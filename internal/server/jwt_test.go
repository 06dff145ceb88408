package server

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acosmic/acosmibot-api/internal/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:    "test-jwt-secret",
		DashboardURL: "https://dash.example.com",
		CORSOrigins:  []string{"https://dash.example.com"},
	}
	return NewServer(cfg, Dependencies{})
}

func TestIssueAndParseToken(t *testing.T) {
	s := testServer(t)

	// A realistic snowflake, above 2^53 so float64 would mangle it.
	const userID = int64(123456789012345678)

	token, err := s.issueToken(userID, "somebody", time.Now())
	require.NoError(t, err)

	gotID, gotUsername, err := s.parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "somebody", gotUsername)
}

func TestParseToken_Expired(t *testing.T) {
	s := testServer(t)

	issued := time.Now().Add(-tokenLifetime - time.Hour)
	token, err := s.issueToken(42, "somebody", issued)
	require.NoError(t, err)

	_, _, err = s.parseToken(token)
	assert.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	s := testServer(t)
	other := NewServer(&config.Config{JWTSecret: "a-different-secret"}, Dependencies{})

	token, err := other.issueToken(42, "somebody", time.Now())
	require.NoError(t, err)

	_, _, err = s.parseToken(token)
	assert.Error(t, err)
}

func TestParseToken_RejectsNoneAlgorithm(t *testing.T) {
	s := testServer(t)

	claims := authClaims{
		UserID:   "42",
		Username: "somebody",
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = s.parseToken(token)
	assert.Error(t, err)
}

func TestParseToken_NonNumericSubject(t *testing.T) {
	s := testServer(t)

	claims := authClaims{
		UserID: "not-a-snowflake",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.config.JWTSecret))
	require.NoError(t, err)

	_, _, err = s.parseToken(token)
	assert.ErrorContains(t, err, "invalid subject claim")
}

func TestParseToken_Garbage(t *testing.T) {
	s := testServer(t)

	_, _, err := s.parseToken("not.a.jwt")
	assert.Error(t, err)
}
