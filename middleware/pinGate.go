package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"academix/services/pin"
	"academix/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Paths that pass through the gate unconditionally: auth and PIN endpoints
// (otherwise nobody could validate), the challenge page itself, health and
// static assets.
var pinExemptPrefixes = []string{
	"/api/auth",
	"/api/pin",
	utils.PinChallengePath,
	"/health",
	"/static",
}

func pinGateExempt(path string) bool {
	for _, prefix := range pinExemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// PinGateMiddleware is the secondary-factor session gate in front of
// dashboard routes. It runs behind the primary auth middleware and decides
// per request: exempt paths pass; a fresh, signed pin_validated cookie for
// the same principal passes; owners with no active PIN pass (the feature is
// opt-in); everyone else is redirected to the challenge endpoint.
//
// Any failure resolving the principal or probing the PIN record fails OPEN
// with a logged warning. The primary gate already guards these paths; this
// layer trades strictness for availability, deliberately.
func PinGateMiddleware(pinSvc pin.PinService) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := utils.GetLogger()
		path := c.Request.URL.Path

		if pinGateExempt(path) {
			c.Next()
			return
		}

		ownerVal, exists := c.Get("userID")
		owner, ok := ownerVal.(string)
		if !exists || !ok || owner == "" {
			logger.Warn("PIN gate could not resolve principal; allowing request",
				zap.String("path", path))
			c.Next()
			return
		}

		// Cheap path: a signed cookie caching a recent validation.
		if raw, err := c.Cookie(utils.PinSessionCookieName); err == nil {
			if session, valid := utils.ParsePinSession(raw); valid &&
				session.OwnerID == owner &&
				utils.PinSessionFresh(session.IssuedAt, time.Now()) {
				c.Next()
				return
			}
		}

		active, err := pinSvc.HasActivePin(owner)
		if err != nil {
			logger.Warn("PIN gate probe failed; allowing request",
				zap.String("ownerId", owner), zap.Error(err))
			c.Next()
			return
		}
		if !active {
			c.Next()
			return
		}

		redirect := utils.PinChallengePath +
			"?requiresPinValidation=true&next=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusSeeOther, redirect)
		c.Abort()
	}
}
