package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"academix/database"
	pinRepo "academix/database/repository/pin"
	"academix/services/pin"
	"academix/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PinHandler exposes the secondary-factor PIN endpoints.
type PinHandler struct {
	Service pin.PinService
}

// NewPinHandler creates a PinHandler.
func NewPinHandler(svc pin.PinService) *PinHandler {
	return &PinHandler{Service: svc}
}

// principal extracts the authenticated user ID set by the auth middleware.
func principal(c *gin.Context) (string, bool) {
	val, exists := c.Get("userID")
	if !exists {
		return "", false
	}
	id, ok := val.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// sanitizeNext restricts post-verification redirects to local paths.
func sanitizeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/api/dashboard/overview"
	}
	return next
}

// SetPinHandler handles POST /api/pin. The body carries the PIN and may
// repeat the owner ID; when present it must match the authenticated
// principal.
func (h *PinHandler) SetPinHandler(c *gin.Context) {
	logger := getLogger(c)

	owner, ok := principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
		Pin     string `json:"pin" binding:"required"`
		OwnerID string `json:"owner_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Invalid set-pin request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.OwnerID != "" && req.OwnerID != owner {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Owner mismatch"})
		return
	}

	if err := h.Service.SetPin(owner, req.Pin); err != nil {
		var ve pin.ValidationError
		switch {
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be 4 to 6 digits"})
		case errors.Is(err, database.ErrAdminCredentialMissing):
			logger.Error("PIN write path unavailable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PIN setup is currently unavailable"})
		default:
			// Never echo store internals (or the encoded secret) back out.
			logger.Error("Failed to save PIN", zap.String("ownerId", owner), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save PIN"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PinStatusHandler handles GET /api/pin.
func (h *PinHandler) PinStatusHandler(c *gin.Context) {
	logger := getLogger(c)

	owner, ok := principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	status, err := h.Service.Status(owner)
	if err != nil {
		logger.Error("Failed to load PIN status", zap.String("ownerId", owner), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load PIN status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// VerifyPinHandler handles POST /api/pin/verify, the re-authentication entry
// point. Success mints the pin_validated cookie and redirects back to the
// originally requested path. Failure is a single generic message: wrong PIN
// and no PIN configured are indistinguishable to the caller.
func (h *PinHandler) VerifyPinHandler(c *gin.Context) {
	logger := getLogger(c)

	owner, ok := principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
		Pin string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	valid, err := h.Service.Verify(owner, req.Pin)
	if err != nil {
		logger.Error("PIN verification error", zap.String("ownerId", owner), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		return
	}
	if !valid {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect PIN"})
		return
	}

	spec, err := utils.MintPinSession(owner, time.Now())
	if err != nil {
		logger.Error("Failed to mint PIN session", zap.String("ownerId", owner), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		return
	}
	utils.SetPinCookie(c, spec)

	c.Redirect(http.StatusSeeOther, sanitizeNext(c.Query("next")))
}

// DisablePinHandler handles DELETE /api/pin. The record is kept but flagged
// inactive, and any cached validation is cleared.
func (h *PinHandler) DisablePinHandler(c *gin.Context) {
	logger := getLogger(c)

	owner, ok := principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.Service.DisablePin(owner); err != nil {
		if errors.Is(err, pinRepo.ErrPinNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No PIN configured"})
			return
		}
		if errors.Is(err, database.ErrAdminCredentialMissing) {
			logger.Error("PIN write path unavailable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PIN removal is currently unavailable"})
			return
		}
		logger.Error("Failed to disable PIN", zap.String("ownerId", owner), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable PIN"})
		return
	}

	utils.SetPinCookie(c, utils.ClearPinSession())
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PinChallengeHandler handles GET /pin/challenge, the page the gate redirects
// blocked requests to. The UI reads the markers and prompts for the PIN.
func (h *PinHandler) PinChallengeHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"requiresPinValidation": c.Query("requiresPinValidation") == "true",
		"next":                  sanitizeNext(c.Query("next")),
	})
}
