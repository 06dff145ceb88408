package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const tokenLifetime = 7 * 24 * time.Hour

// authClaims is the JWT payload issued after a successful Discord login.
// The user id is carried as a string: Discord snowflakes exceed 2^53 and
// would lose precision as a JSON number.
type authClaims struct {
	UserID   string `json:"sub"`
	Username string `json:"username"`
	jwt.StandardClaims
}

func (s *Server) issueToken(userID int64, username string, now time.Time) (string, error) {
	claims := authClaims{
		UserID:   strconv.FormatInt(userID, 10),
		Username: username,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenLifetime).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Server) parseToken(raw string) (int64, string, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return 0, "", err
	}
	if !token.Valid {
		return 0, "", fmt.Errorf("invalid token")
	}
	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid subject claim: %w", err)
	}
	return userID, claims.Username, nil
}
