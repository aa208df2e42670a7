package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"academix/config"
	"academix/models"
	"academix/utils"

	"github.com/gin-gonic/gin"
)

// stubPinService answers HasActivePin from canned state and records whether
// it was consulted.
type stubPinService struct {
	active   bool
	probeErr error
	probed   bool
}

func (s *stubPinService) SetPin(ownerID, rawPin string) error { return nil }
func (s *stubPinService) Verify(ownerID, rawPin string) (bool, error) {
	return false, nil
}
func (s *stubPinService) HasActivePin(ownerID string) (bool, error) {
	s.probed = true
	return s.active, s.probeErr
}
func (s *stubPinService) Status(ownerID string) (*models.PinStatus, error) {
	return &models.PinStatus{}, nil
}
func (s *stubPinService) DisablePin(ownerID string) error { return nil }

func setGateSigningKey(t *testing.T) {
	t.Helper()
	prev := config.AppConfig.PinSessionSecret
	config.AppConfig.PinSessionSecret = "gate-test-signing-key"
	t.Cleanup(func() { config.AppConfig.PinSessionSecret = prev })
}

// newGateRouter builds a router with the given principal injected ahead of
// the gate, mirroring the production middleware order.
func newGateRouter(svc *stubPinService, principal string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if principal != "" {
			c.Set("userID", principal)
		}
		c.Next()
	})
	r.Use(PinGateMiddleware(svc))
	handler := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/api/dashboard/overview", handler)
	r.GET("/api/pin", handler)
	r.GET("/health", handler)
	return r
}

func gateRequest(r *gin.Engine, path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: utils.PinSessionCookieName, Value: cookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGateAllowsOwnerWithoutPin(t *testing.T) {
	setGateSigningKey(t)
	svc := &stubPinService{active: false}
	r := newGateRouter(svc, "u1")

	// Cookie contents are irrelevant when no PIN is configured.
	w := gateRequest(r, "/api/dashboard/overview", "garbage-cookie")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !svc.probed {
		t.Fatal("expected gate to probe for an active pin")
	}
}

func TestGateBlocksActivePinWithoutCookie(t *testing.T) {
	setGateSigningKey(t)
	svc := &stubPinService{active: true}
	r := newGateRouter(svc, "u1")

	w := gateRequest(r, "/api/dashboard/overview", "")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 redirect, got %d", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, utils.PinChallengePath) {
		t.Fatalf("expected redirect to challenge endpoint, got %s", loc)
	}
	if !strings.Contains(loc, "requiresPinValidation=true") {
		t.Fatalf("expected challenge marker in redirect, got %s", loc)
	}
	if !strings.Contains(loc, "next=%2Fapi%2Fdashboard%2Foverview") {
		t.Fatalf("expected original path in redirect, got %s", loc)
	}
}

func TestGateAllowsFreshCookie(t *testing.T) {
	setGateSigningKey(t)
	svc := &stubPinService{active: true}
	r := newGateRouter(svc, "u1")

	spec, err := utils.MintPinSession("u1", time.Now())
	if err != nil {
		t.Fatalf("MintPinSession failed: %v", err)
	}
	w := gateRequest(r, "/api/dashboard/overview", spec.Value)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with fresh cookie, got %d", w.Code)
	}
	if svc.probed {
		t.Fatal("expected fresh cookie to skip the store probe")
	}
}

func TestGateBlocksStaleCookie(t *testing.T) {
	setGateSigningKey(t)
	svc := &stubPinService{active: true}
	r := newGateRouter(svc, "u1")

	spec, err := utils.MintPinSession("u1", time.Now().Add(-3601*time.Second))
	if err != nil {
		t.Fatalf("MintPinSession failed: %v", err)
	}
	w := gateRequest(r, "/api/dashboard/overview", spec.Value)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected stale cookie to block, got %d", w.Code)
	}
}

func TestGateIgnoresCookieForOtherOwner(t *testing.T) {
	setGateSigningKey(t)
	svc := &stubPinService{active: true}
	r := newGateRouter(svc, "u1")

	spec, err := utils.MintPinSession("someone-else", time.Now())
	if err != nil {
		t.Fatalf("MintPinSession failed: %v", err)
	}
	w := gateRequest(r, "/api/dashboard/overview", spec.Value)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected foreign-owner cookie to block, got %d", w.Code)
	}
}

func TestGateFailsOpenOnProbeError(t *testing.T) {
	setGateSigningKey(t)
	svc := &stubPinService{probeErr: errors.New("store unavailable")}
	r := newGateRouter(svc, "u1")

	w := gateRequest(r, "/api/dashboard/overview", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected fail-open on probe error, got %d", w.Code)
	}
}

func TestGateFailsOpenWithoutPrincipal(t *testing.T) {
	setGateSigningKey(t)
	svc := &stubPinService{active: true}
	r := newGateRouter(svc, "")

	w := gateRequest(r, "/api/dashboard/overview", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected fail-open without principal, got %d", w.Code)
	}
	if svc.probed {
		t.Fatal("expected no probe without a resolved principal")
	}
}

func TestGateExemptPaths(t *testing.T) {
	setGateSigningKey(t)
	svc := &stubPinService{active: true}
	r := newGateRouter(svc, "u1")

	for _, path := range []string{"/api/pin", "/health"} {
		w := gateRequest(r, path, "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected exempt path %s to pass, got %d", path, w.Code)
		}
	}
	if svc.probed {
		t.Fatal("expected exempt paths to skip the store probe")
	}
}
