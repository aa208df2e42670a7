// File: utils/pin_session.go
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"academix/config"

	"github.com/gin-gonic/gin"
)

// PinSession is the payload cached in the pin_validated cookie. It records
// that the owner passed a PIN check recently; it is never proof of identity
// on its own, only a shortcut past a second prompt behind the primary
// session gate.
type PinSession struct {
	OwnerID  string `json:"ownerId"`
	IssuedAt int64  `json:"issuedAt"` // unix seconds
}

// CookieSpec describes a Set-Cookie directive for the PIN session cookie.
type CookieSpec struct {
	Name     string
	Value    string
	MaxAge   int
	Path     string
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
}

// PinSessionMaxAge returns the configured validity window for a minted
// session (1 hour unless overridden).
func PinSessionMaxAge() time.Duration {
	secs := config.AppConfig.PinSessionMaxAge
	if secs <= 0 {
		secs = 3600
	}
	return time.Duration(secs) * time.Second
}

func pinSessionKey() []byte {
	secret := config.AppConfig.PinSessionSecret
	if secret == "" {
		// Shared fallback so a partially configured deployment still signs
		// rather than shipping forgeable cookies.
		secret = config.AppConfig.JWTSecret
	}
	return []byte(secret)
}

func signPinPayload(payload string) string {
	mac := hmac.New(sha256.New, pinSessionKey())
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// MintPinSession produces a signed cookie spec for the given owner, valid for
// PinSessionMaxAge from now.
func MintPinSession(ownerID string, now time.Time) (CookieSpec, error) {
	if len(pinSessionKey()) == 0 {
		return CookieSpec{}, fmt.Errorf("pin session signing key is not configured")
	}
	data, err := json.Marshal(PinSession{OwnerID: ownerID, IssuedAt: now.Unix()})
	if err != nil {
		return CookieSpec{}, fmt.Errorf("failed to marshal pin session: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(data)
	value := payload + "." + signPinPayload(payload)
	return CookieSpec{
		Name:     PinSessionCookieName,
		Value:    value,
		MaxAge:   int(PinSessionMaxAge() / time.Second),
		Path:     "/",
		Secure:   config.IsProduction(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ParsePinSession validates and decodes a cookie value. Malformed, foreign or
// tampered input yields (nil, false); it never panics. A bad signature is
// treated identically to an absent cookie.
func ParsePinSession(value string) (*PinSession, bool) {
	if len(pinSessionKey()) == 0 {
		return nil, false
	}
	parts := strings.Split(value, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}
	expected, err := base64.RawURLEncoding.DecodeString(signPinPayload(parts[0]))
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(sig, expected) {
		return nil, false
	}
	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, false
	}
	var session PinSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, false
	}
	if session.OwnerID == "" || session.IssuedAt == 0 {
		return nil, false
	}
	return &session, true
}

// PinSessionFresh reports whether a session issued at the given unix time is
// still inside the validity window.
func PinSessionFresh(issuedAt int64, now time.Time) bool {
	issued := time.Unix(issuedAt, 0)
	if issued.After(now) {
		return false
	}
	return now.Sub(issued) < PinSessionMaxAge()
}

// ClearPinSession returns a spec that overwrites the cookie on the same
// name and path with an immediate expiry.
func ClearPinSession() CookieSpec {
	return CookieSpec{
		Name:     PinSessionCookieName,
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		Secure:   config.IsProduction(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetPinCookie applies a cookie spec to the outgoing response.
func SetPinCookie(c *gin.Context, spec CookieSpec) {
	c.SetSameSite(spec.SameSite)
	c.SetCookie(spec.Name, spec.Value, spec.MaxAge, spec.Path, "", spec.Secure, spec.HttpOnly)
}
