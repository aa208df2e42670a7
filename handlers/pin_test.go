package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"academix/config"
	"academix/database"
	pinRepo "academix/database/repository/pin"
	"academix/models"
	"academix/services/pin"
	"academix/utils"

	"github.com/gin-gonic/gin"
)

// stubPinService drives handler behavior from canned results.
type stubPinService struct {
	setErr    error
	verifyOK  bool
	verifyErr error
	status    *models.PinStatus
	statusErr error
	disErr    error

	lastOwner string
	lastPin   string
}

func (s *stubPinService) SetPin(ownerID, rawPin string) error {
	s.lastOwner, s.lastPin = ownerID, rawPin
	return s.setErr
}
func (s *stubPinService) Verify(ownerID, rawPin string) (bool, error) {
	s.lastOwner, s.lastPin = ownerID, rawPin
	return s.verifyOK, s.verifyErr
}
func (s *stubPinService) HasActivePin(ownerID string) (bool, error) { return false, nil }
func (s *stubPinService) Status(ownerID string) (*models.PinStatus, error) {
	return s.status, s.statusErr
}
func (s *stubPinService) DisablePin(ownerID string) error { return s.disErr }

func setHandlerSigningKey(t *testing.T) {
	t.Helper()
	prev := config.AppConfig.PinSessionSecret
	config.AppConfig.PinSessionSecret = "handler-test-signing-key"
	t.Cleanup(func() { config.AppConfig.PinSessionSecret = prev })
}

// newPinRouter wires the handler with an optional authenticated principal.
func newPinRouter(svc pin.PinService, authedAs string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPinHandler(svc)

	r := gin.New()
	auth := func(c *gin.Context) {
		if authedAs != "" {
			c.Set("userID", authedAs)
		}
		c.Next()
	}
	r.POST("/api/pin", auth, h.SetPinHandler)
	r.GET("/api/pin", auth, h.PinStatusHandler)
	r.DELETE("/api/pin", auth, h.DisablePinHandler)
	r.POST("/api/pin/verify", auth, h.VerifyPinHandler)
	r.GET("/pin/challenge", auth, h.PinChallengeHandler)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetPinSuccess(t *testing.T) {
	svc := &stubPinService{}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodPost, "/api/pin", `{"pin":"445566"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.lastOwner != "u1" || svc.lastPin != "445566" {
		t.Fatalf("expected service call for u1/445566, got %s/%s", svc.lastOwner, svc.lastPin)
	}
}

func TestSetPinMalformedReturns400(t *testing.T) {
	svc := &stubPinService{setErr: pin.ValidationError{Reason: "pin must be 4 to 6 digits"}}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodPost, "/api/pin", `{"pin":"12"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSetPinOwnerMismatchReturns400(t *testing.T) {
	svc := &stubPinService{}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodPost, "/api/pin", `{"pin":"4455","owner_id":"u2"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on owner mismatch, got %d", w.Code)
	}
	if svc.lastPin != "" {
		t.Fatal("expected service to be skipped on owner mismatch")
	}
}

func TestSetPinStoreFailureIsGeneric(t *testing.T) {
	svc := &stubPinService{setErr: errors.New("mongo: connection refused to 10.0.0.9:27017")}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodPost, "/api/pin", `{"pin":"4455"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "mongo") || strings.Contains(w.Body.String(), "10.0.0.9") {
		t.Fatalf("expected sanitized error body, got %s", w.Body.String())
	}
}

func TestSetPinWithoutAdminCredentialReturns503(t *testing.T) {
	svc := &stubPinService{setErr: fmt.Errorf("failed to create pin: %w", database.ErrAdminCredentialMissing)}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodPost, "/api/pin", `{"pin":"4455"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the elevated write path is missing, got %d", w.Code)
	}
}

func TestPinStatusRequiresAuth(t *testing.T) {
	svc := &stubPinService{status: &models.PinStatus{HasPin: true, PinEnabled: true}}
	r := newPinRouter(svc, "")

	w := doJSON(r, http.MethodGet, "/api/pin", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "has_pin") {
		t.Fatal("expected no pin status in unauthenticated response")
	}
}

func TestPinStatusAuthenticated(t *testing.T) {
	svc := &stubPinService{status: &models.PinStatus{HasPin: true, PinEnabled: true}}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodGet, "/api/pin", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"has_pin":true`) || !strings.Contains(body, `"pin_enabled":true`) {
		t.Fatalf("unexpected status body: %s", body)
	}
}

func TestVerifyPinSuccessSetsCookieAndRedirects(t *testing.T) {
	setHandlerSigningKey(t)
	svc := &stubPinService{verifyOK: true}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodPost, "/api/pin/verify?next=%2Fapi%2Fdashboard%2Fannouncements", `{"pin":"445566"}`)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/api/dashboard/announcements" {
		t.Fatalf("expected redirect to original path, got %s", loc)
	}

	var cookie *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == utils.PinSessionCookieName {
			cookie = ck
		}
	}
	if cookie == nil {
		t.Fatal("expected pin_validated cookie to be set")
	}
	if !cookie.HttpOnly {
		t.Fatal("expected HttpOnly cookie")
	}
	if cookie.MaxAge != 3600 {
		t.Fatalf("expected max-age 3600, got %d", cookie.MaxAge)
	}
	session, ok := utils.ParsePinSession(cookie.Value)
	if !ok || session.OwnerID != "u1" {
		t.Fatalf("expected signed session for u1, got %+v ok=%v", session, ok)
	}
}

func TestVerifyPinFailureIsGeneric(t *testing.T) {
	setHandlerSigningKey(t)
	// verifyOK=false covers both "wrong PIN" and "no PIN configured"; the
	// response must not distinguish them.
	svc := &stubPinService{verifyOK: false}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodPost, "/api/pin/verify", `{"pin":"000000"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Incorrect PIN") {
		t.Fatalf("expected generic message, got %s", w.Body.String())
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatal("expected no cookie on failed verification")
	}
}

func TestVerifyPinRejectsOffsiteRedirect(t *testing.T) {
	setHandlerSigningKey(t)
	svc := &stubPinService{verifyOK: true}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodPost, "/api/pin/verify?next=https%3A%2F%2Fevil.example", `{"pin":"445566"}`)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); strings.Contains(loc, "evil.example") {
		t.Fatalf("expected offsite redirect to be replaced, got %s", loc)
	}
}

func TestDisablePinNotFound(t *testing.T) {
	svc := &stubPinService{disErr: fmt.Errorf("failed to disable pin: %w", pinRepo.ErrPinNotFound)}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodDelete, "/api/pin", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDisablePinStoreFailureIsGeneric(t *testing.T) {
	svc := &stubPinService{disErr: errors.New("mongo: write concern error")}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodDelete, "/api/pin", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for unclassified error, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "mongo") {
		t.Fatalf("expected sanitized error body, got %s", w.Body.String())
	}
}

func TestPinChallengeEchoesMarkers(t *testing.T) {
	svc := &stubPinService{}
	r := newPinRouter(svc, "u1")

	w := doJSON(r, http.MethodGet, "/pin/challenge?requiresPinValidation=true&next=%2Fapi%2Fdashboard%2Foverview", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"requiresPinValidation":true`) {
		t.Fatalf("expected challenge marker, got %s", body)
	}
	if !strings.Contains(body, "/api/dashboard/overview") {
		t.Fatalf("expected next path, got %s", body)
	}
}
