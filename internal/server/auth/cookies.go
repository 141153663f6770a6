package auth

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/uptask/internal/common"
)

const (
	AccessCookiePath  = "/"
	RefreshCookiePath = "/api/auth/refresh"
)

// CookiePolicy decides the attributes of the session cookies.
type CookiePolicy struct {
	Secure     bool
	SameSite   http.SameSite
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewCookiePolicy returns Secure cookies in production, with SameSite=None
// when the frontend lives on another site and Strict otherwise. Development
// uses Lax without Secure so plain http works.
func NewCookiePolicy(production, crossSite bool, accessTTL, refreshTTL time.Duration) CookiePolicy {
	p := CookiePolicy{
		SameSite:   http.SameSiteLaxMode,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}
	if production {
		p.Secure = true
		p.SameSite = http.SameSiteStrictMode
		if crossSite {
			p.SameSite = http.SameSiteNoneMode
		}
	}
	return p
}

// SetSession writes both session cookies.
func (p CookiePolicy) SetSession(w http.ResponseWriter, pair *Pair) {
	http.SetCookie(w, p.cookie(common.AccessTokenCookieName, pair.AccessToken, AccessCookiePath, p.AccessTTL))
	http.SetCookie(w, p.cookie(common.RefreshTokenCookieName, pair.RefreshToken, RefreshCookiePath, p.RefreshTTL))
}

// ClearSession expires both session cookies on their original paths.
func (p CookiePolicy) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, p.expired(common.AccessTokenCookieName, AccessCookiePath))
	http.SetCookie(w, p.expired(common.RefreshTokenCookieName, RefreshCookiePath))
}

func (p CookiePolicy) cookie(name, value, path string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
}

func (p CookiePolicy) expired(name, path string) *http.Cookie {
	c := p.cookie(name, "", path, 0)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}
