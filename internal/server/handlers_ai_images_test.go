package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
)

func userImagesContext(s *Server, target string, pathUserID string, callerID int64) echo.Context {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := s.Echo().NewContext(req, httptest.NewRecorder())
	c.SetParamNames("userID")
	c.SetParamValues(pathUserID)
	c.Set("userID", callerID)
	return c
}

func TestHandleUserAIImages_OtherUserForbidden(t *testing.T) {
	s := testServer(t)
	c := userImagesContext(s, "/api/user/555/ai-images", "555", int64(123))

	err := s.handleUserAIImages(c)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.TypeForbidden, appErr.Type)
}

func TestHandleUserAIImages_InvalidType(t *testing.T) {
	s := testServer(t)
	c := userImagesContext(s, "/api/user/123/ai-images?type=painting", "123", int64(123))

	err := s.handleUserAIImages(c)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.TypeValidation, appErr.Type)
}

func TestHandleUserAIImages_InvalidGuildID(t *testing.T) {
	s := testServer(t)
	c := userImagesContext(s, "/api/user/123/ai-images?guild_id=not-a-guild", "123", int64(123))

	err := s.handleUserAIImages(c)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.TypeValidation, appErr.Type)
}
