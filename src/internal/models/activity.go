package models

import "time"

type ActivityMessage struct {
	Email       string            `json:"email,omitempty"`
	ServiceName string            `json:"service_name"`
	Action      string            `json:"action"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Activity action constants
const (
	ActionLogin          = "login"
	ActionMessageSent    = "message_sent"
	ActionDayRatingSaved = "day_rating_saved"
	ActionSponsorLink    = "sponsor_link_opened"
	ActionNavigation     = "protected_navigation"
)

// Service name constants
const (
	ServiceSessionManager  = "session.manager"
	ServiceActivityTracker = "session.activity"
	ServiceChatPipeline    = "chat.pipeline"
)
