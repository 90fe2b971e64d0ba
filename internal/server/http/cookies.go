package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/config"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
)

// cookiePolicy decides the Secure attribute of session cookies.
type cookiePolicy struct {
	secureMode string
	now        func() time.Time
}

func (p cookiePolicy) secure(r *http.Request) bool {
	switch p.secureMode {
	case config.CookieSecureAlways:
		return true
	case config.CookieSecureNever:
		return false
	default:
		return isSecureRequest(r)
	}
}

func isSecureRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		for _, p := range strings.Split(proto, ",") {
			if strings.EqualFold(strings.TrimSpace(p), "https") {
				return true
			}
		}
	}
	return r.URL != nil && strings.EqualFold(r.URL.Scheme, "https")
}

func (p cookiePolicy) set(w http.ResponseWriter, r *http.Request, name, value string, expires time.Time) {
	maxAge := int(expires.Sub(p.now()).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.secure(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func (p cookiePolicy) clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.secure(r),
		SameSite: http.SameSiteStrictMode,
	})
}

func (p cookiePolicy) setTokens(w http.ResponseWriter, r *http.Request, pair *services.TokenPair) {
	p.set(w, r, common.AccessTokenCookieName, pair.AccessToken, pair.AccessTokenExpiresAt)
	p.set(w, r, common.RefreshTokenCookieName, pair.RefreshToken, pair.RefreshTokenExpiresAt)
}

func (p cookiePolicy) clearTokens(w http.ResponseWriter, r *http.Request) {
	p.clear(w, r, common.AccessTokenCookieName)
	p.clear(w, r, common.RefreshTokenCookieName)
}
