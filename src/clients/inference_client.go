package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"wellmind-session-svc/src/internal/config"
	"wellmind-session-svc/src/internal/models"
)

// InferenceClient handles communication with the remote conversational
// inference endpoint. Cancellation is driven entirely by the caller's
// context; the client itself sets no timeout.
type InferenceClient struct {
	baseURL    string
	httpClient *http.Client
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatProfile struct {
	Name    string `json:"name,omitempty"`
	Gender  string `json:"gender,omitempty"`
	Country string `json:"country,omitempty"`
}

type ChatRequest struct {
	Mode        string       `json:"mode"`
	Message     string       `json:"message"`
	History     []ChatTurn   `json:"history"`
	UserProfile *ChatProfile `json:"userProfile,omitempty"`
}

// NewInferenceClient creates a new inference endpoint client.
func NewInferenceClient(cfg *config.Configuration) *InferenceClient {
	return &InferenceClient{
		baseURL:    cfg.ExternalServices.InferenceService.URL,
		httpClient: &http.Client{},
	}
}

// Configured reports whether a base address for the inference endpoint is set.
func (c *InferenceClient) Configured() bool {
	return c.baseURL != ""
}

// SendMessage posts one chat exchange and returns the extracted reply text.
// Non-2xx statuses, malformed JSON and responses without a usable reply
// field are all reported as errors for the pipeline to turn into a fallback.
func (c *InferenceClient) SendMessage(ctx context.Context, chatReq *ChatRequest) (string, error) {
	if !c.Configured() {
		return "", models.ErrInferenceNotConfig
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := c.baseURL + "/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithField("mode", chatReq.Mode).Error("Failed to call inference service")
		return "", fmt.Errorf("%w: %v", models.ErrInferenceRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithFields(map[string]interface{}{
			"mode":   chatReq.Mode,
			"status": resp.StatusCode,
		}).Warn("Inference service returned error status")
		return "", fmt.Errorf("%w: status %d", models.ErrInferenceRequest, resp.StatusCode)
	}

	var payload struct {
		Reply   string `json:"reply"`
		Message string `json:"message"`
		Content string `json:"content"`
		Text    string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrInferenceRequest, err)
	}

	// First non-empty candidate wins.
	for _, candidate := range []string{payload.Reply, payload.Message, payload.Content, payload.Text} {
		if strings.TrimSpace(candidate) != "" {
			return candidate, nil
		}
	}

	return "", models.ErrEmptyReply
}
