package httpx

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	domainauth "github.com/tributary/tribute-ui-api/internal/domain/auth"
)

// sessionCookieName holds the browser copy of the session token. It is the
// third persistence surface next to the durable store and the in-process
// one; the server adopts it when it has no session of its own.
const sessionCookieName = "tribute_session"

// sessionCookieWindow extends the cookie past the access token expiry so
// the refresh token inside stays reachable, matching the durable store's
// retention.
const sessionCookieWindow = 24 * time.Hour

func writeSessionCookie(w http.ResponseWriter, tok domainauth.Token) {
	if tok.AccessToken == "" {
		return
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		Expires:  tok.ExpiresAt.Add(sessionCookieWindow),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// readSessionCookie decodes the token cookie. A missing or corrupt cookie
// reads as no token.
func readSessionCookie(r *http.Request) (domainauth.Token, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return domainauth.Token{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return domainauth.Token{}, false
	}
	var tok domainauth.Token
	if err := json.Unmarshal(raw, &tok); err != nil || tok.AccessToken == "" {
		return domainauth.Token{}, false
	}
	return tok, true
}
