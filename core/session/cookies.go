package session

import (
	"net/http"
	"time"
)

// Cookie names shared with the browser front-end.
const (
	TokenCookie = "tokenSession"
	RoleCookie  = "role"
	JWTCookie   = "jwt" // legacy name read by the dedicated proxies
)

// CookieOptions holds the attributes applied to session cookies.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
	Domain string
}

func (o CookieOptions) cookie(name, value string, now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   o.Domain,
		Expires:  now.Add(o.TTL),
		MaxAge:   int(o.TTL.Seconds()),
		Secure:   o.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCookies returns the tokenSession and role cookies of a fresh session.
func (o CookieOptions) NewCookies(token, role string, now time.Time) []*http.Cookie {
	return []*http.Cookie{
		o.cookie(TokenCookie, token, now),
		o.cookie(RoleCookie, NormalizeRole(role), now),
	}
}

// ClearCookies returns expired cookies that remove every session cookie.
func (o CookieOptions) ClearCookies() []*http.Cookie {
	names := []string{TokenCookie, RoleCookie, JWTCookie}
	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   o.Domain,
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			Secure:   o.Secure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return cookies
}
