// Package auth issues and verifies session tokens, hashes passwords and
// writes session cookies.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "uptask"

// TokenType distinguishes access tokens from refresh tokens inside the claims,
// so a token minted for one purpose is never accepted for the other.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims carries the user id plus registered claims (exp, iat, jti, iss).
type Claims struct {
	jwt.RegisteredClaims
	UserID string    `json:"uid"`
	Type   TokenType `json:"typ"`
}

// Pair is a freshly issued access/refresh token pair.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	RefreshID        string
	RefreshExpiresAt time.Time
}

// TokenService signs tokens with HS256 using distinct secrets for access and
// refresh tokens.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenService signs access tokens with accessSecret and refresh tokens
// with refreshSecret. The TTLs double as the session cookie lifetimes.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// AccessTTL returns the access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssuePair mints a new access and refresh token for userID.
func (s *TokenService) IssuePair(userID string) (*Pair, error) {
	now := s.now()

	access, _, err := s.sign(userID, TokenTypeAccess, now, s.accessTTL, s.accessSecret)
	if err != nil {
		return nil, err
	}
	refresh, claims, err := s.sign(userID, TokenTypeRefresh, now, s.refreshTTL, s.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshID:        claims.ID,
		RefreshExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *TokenService) sign(userID string, typ TokenType, now time.Time, ttl time.Duration, secret []byte) (string, *Claims, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Type:   typ,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", nil, common.Wrap(err, common.KindInternal, "TOKEN_SIGNING_FAILED")
	}
	return signed, claims, nil
}

// VerifyAccess validates an access token.
func (s *TokenService) VerifyAccess(token string) (*Claims, error) {
	return s.verify(token, TokenTypeAccess, s.accessSecret)
}

// VerifyRefresh validates a refresh token.
func (s *TokenService) VerifyRefresh(token string) (*Claims, error) {
	return s.verify(token, TokenTypeRefresh, s.refreshSecret)
}

// verify maps failures onto TOKEN_REQUIRED, TOKEN_EXPIRED, TOKEN_INVALID and
// TOKEN_PAYLOAD_INVALID. Expiry is only reported for correctly signed tokens.
func (s *TokenService) verify(token string, typ TokenType, secret []byte) (*Claims, error) {
	if token == "" {
		return nil, common.ErrTokenRequired
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.Wrap(err, common.KindUnauthorized, common.ErrTokenExpired.Code)
		}
		return nil, common.Wrap(err, common.KindUnauthorized, common.ErrTokenInvalid.Code)
	}

	if claims.Type != typ {
		return nil, common.ErrTokenInvalid
	}
	if claims.UserID == "" {
		return nil, common.ErrTokenPayload
	}
	return claims, nil
}
