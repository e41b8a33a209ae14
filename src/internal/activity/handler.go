package activity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wellmind-session-svc/src/internal/models"
)

type Handler interface {
	Touch(c *gin.Context)
}

type handler struct {
	tracker *Tracker
}

func NewHandler(tracker *Tracker) Handler {
	return &handler{tracker: tracker}
}

type touchRequest struct {
	Action string `json:"action"`
}

// Touch records a qualifying user action from the screen layer (saving a day
// rating, opening a sponsor link, navigating to a protected screen).
func (h *handler) Touch(c *gin.Context) {
	var req touchRequest
	if err := c.ShouldBindJSON(&req); err != nil || !isQualifyingAction(req.Action) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown activity action"})
		return
	}

	email := c.GetString("user_email")
	h.tracker.TouchAction(c.Request.Context(), email, models.ServiceActivityTracker, req.Action)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func isQualifyingAction(action string) bool {
	switch action {
	case models.ActionDayRatingSaved, models.ActionSponsorLink, models.ActionNavigation:
		return true
	}
	return false
}
