package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wellmind-session-svc/src/internal/config"
)

type Handler interface {
	SendMessage(c *gin.Context)
	ListMessages(c *gin.Context)
	ClearThreads(c *gin.Context)
}

type handler struct {
	config   *config.Configuration
	pipeline *Pipeline
}

func NewHandler(cfg *config.Configuration, pipeline *Pipeline) Handler {
	return &handler{
		config:   cfg,
		pipeline: pipeline,
	}
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage runs one exchange. The response is always conversational:
// failed exchanges come back as a fallback assistant message, never as an
// error payload.
func (h *handler) SendMessage(c *gin.Context) {
	mode, err := ParseMode(c.Param("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown conversation mode"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message text is required"})
		return
	}

	result := h.pipeline.Send(c.Request.Context(), mode, req.Text)

	if result.RejectedInFlight {
		c.JSON(http.StatusConflict, gin.H{"error": "A message for this mode is already being processed"})
		return
	}
	if !result.Accepted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message text is empty"})
		return
	}

	logrus.WithField("mode", mode).Debug("Chat exchange completed")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"userMessage":      result.UserMessage,
			"assistantMessage": result.AssistantMessage,
		},
	})
}

func (h *handler) ListMessages(c *gin.Context) {
	mode, err := ParseMode(c.Param("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown conversation mode"})
		return
	}

	messages := h.pipeline.Messages(mode)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"mode":     mode,
			"messages": messages,
		},
	})
}

// ClearThreads discards both threads, mirroring the conversation surface
// unmounting on the client.
func (h *handler) ClearThreads(c *gin.Context) {
	h.pipeline.Reset()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Conversation threads cleared",
	})
}
