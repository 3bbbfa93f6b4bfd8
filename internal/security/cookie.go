package security

import (
	"net/http"
	"time"
)

const RefreshCookieName = "refreshToken"

// CookieManager owns the refresh-token cookie. The cookie is http-only,
// secure and SameSite=None so browser clients on other origins can carry it.
type CookieManager struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

func NewCookieManager(domain string, secure bool, maxAge time.Duration) *CookieManager {
	return &CookieManager{Domain: domain, Secure: secure, MaxAge: maxAge}
}

func (c *CookieManager) SetRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func (c *CookieManager) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func GetCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
