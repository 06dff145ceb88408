package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
)

func authContext(s *Server, header string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/api/user/guilds", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	return s.Echo().NewContext(req, httptest.NewRecorder())
}

func TestRequireAuth(t *testing.T) {
	s := testServer(t)
	token, err := s.issueToken(123456789012345678, "somebody", time.Now())
	require.NoError(t, err)

	handler := s.requireAuth(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	t.Run("valid token", func(t *testing.T) {
		c := authContext(s, "Bearer "+token)
		require.NoError(t, handler(c))
		assert.Equal(t, int64(123456789012345678), c.Get("userID"))
		assert.Equal(t, "somebody", c.Get("username"))
	})

	t.Run("missing header", func(t *testing.T) {
		err := handler(authContext(s, ""))
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.TypeUnauthorized, appErr.Type)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		err := handler(authContext(s, "Basic "+token))
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.TypeUnauthorized, appErr.Type)
	})

	t.Run("garbage token", func(t *testing.T) {
		err := handler(authContext(s, "Bearer garbage"))
		var appErr *apperrors.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.TypeUnauthorized, appErr.Type)
	})
}

func TestRequireGuildAccess_InvalidID(t *testing.T) {
	s := testServer(t)
	handler := s.requireGuildAccess(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := s.Echo().NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("not-a-guild")
	c.Set("userID", int64(42))

	err := handler(c)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.TypeValidation, appErr.Type)
}

func TestSafeRedirect(t *testing.T) {
	s := testServer(t)

	tests := []struct {
		target   string
		expected bool
	}{
		{"/guilds/42", true},
		{"/", true},
		{"", false},
		{"//evil.example.com", false},
		{"https://evil.example.com", false},
		{"guilds", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.safeRedirect(tt.target))
		})
	}
}

func TestDashboardRedirect(t *testing.T) {
	s := testServer(t)

	assert.Equal(t, "https://dash.example.com", s.dashboardRedirect("", "", ""))
	assert.Equal(t, "https://dash.example.com?token=tok", s.dashboardRedirect("", "tok", ""))
	assert.Equal(t, "https://dash.example.com/auth?error=login_denied", s.dashboardRedirect("/auth", "", "login_denied"))
}
