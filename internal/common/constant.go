// Package common contains shared constants, helpers and the application error
// taxonomy used across UpTask server layers.
package common

const (
	// AccessTokenCookieName carries the short-lived access token on every request.
	AccessTokenCookieName = "accessToken"
	// RefreshTokenCookieName carries the refresh token, scoped to the refresh endpoint.
	RefreshTokenCookieName = "refreshToken"

	// RequestIDHeader is echoed back on every response.
	RequestIDHeader = "X-Request-ID"
)
