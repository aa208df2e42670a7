package handlers

import (
	"net/http"

	"academix/services/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler serves the gate-protected dashboard surface. The full
// academic resource model (courses, grades, attendance) lives elsewhere;
// these endpoints are the entry points the session gate fronts.
type DashboardHandler struct {
	Users user.UserService
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(users user.UserService) *DashboardHandler {
	return &DashboardHandler{Users: users}
}

// OverviewHandler handles GET /api/dashboard/overview.
func (h *DashboardHandler) OverviewHandler(c *gin.Context) {
	logger := getLogger(c)

	id, ok := principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	usr, err := h.Users.GetUserByID(id)
	if err != nil {
		logger.Error("Failed to load dashboard profile", zap.String("userId", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    usr.ID,
		"name":  usr.Name,
		"email": usr.Email,
		"role":  usr.Role,
	})
}

// AnnouncementsHandler handles GET /api/dashboard/announcements.
func (h *DashboardHandler) AnnouncementsHandler(c *gin.Context) {
	if _, ok := principal(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": []gin.H{}})
}
