package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wellmind-session-svc/src/clients"
	"wellmind-session-svc/src/internal/activity"
	"wellmind-session-svc/src/internal/config"
	"wellmind-session-svc/src/internal/models"
	"wellmind-session-svc/src/internal/session"
)

// Fallback texts appended in place of a network reply. Every failure path
// resolves to one of these; the user never sees an empty bubble.
const (
	FallbackReply      = "I'm having trouble answering right now. Please try again in a moment."
	NotConfiguredReply = "The assistant is not available right now. Please check the app configuration."
)

// Pipeline orchestrates request/response exchanges with the inference
// endpoint across the two conversation modes. Each mode owns an independent
// in-memory thread and in-flight guard; threads are never persisted and are
// discarded on logout.
type Pipeline struct {
	client   *clients.InferenceClient
	sessions *session.Manager
	tracker  *activity.Tracker
	deadline time.Duration

	mu      sync.Mutex
	threads map[Mode]*thread
}

func NewPipeline(
	client *clients.InferenceClient,
	sessions *session.Manager,
	tracker *activity.Tracker,
	cfg *config.Configuration,
) *Pipeline {
	deadline := time.Duration(cfg.ExternalServices.InferenceService.TimeoutSeconds) * time.Second
	if deadline <= 0 {
		deadline = 15 * time.Second
	}

	return &Pipeline{
		client:   client,
		sessions: sessions,
		tracker:  tracker,
		deadline: deadline,
		threads: map[Mode]*thread{
			ModeListen:   {},
			ModeOrganize: {},
		},
	}
}

// Messages returns a copy of the thread for the given mode.
func (p *Pipeline) Messages(mode Mode) []Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.threads[mode]
	if !ok {
		return nil
	}
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Reset discards both threads and releases any stale guards. Called when the
// conversation surface unmounts and when the session is cleared.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.threads = map[Mode]*thread{
		ModeListen:   {},
		ModeOrganize: {},
	}
}

// Send runs one exchange for the given mode. Whitespace-only input and sends
// while another request for the same mode is in flight are rejected as
// no-ops. An accepted send appends the user message synchronously, then
// appends exactly one assistant message: the remote reply when the exchange
// succeeds, a fixed fallback otherwise. Failures are never returned to the
// caller.
func (p *Pipeline) Send(ctx context.Context, mode Mode, text string) SendResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return SendResult{}
	}

	p.mu.Lock()
	t, ok := p.threads[mode]
	if !ok {
		p.mu.Unlock()
		return SendResult{}
	}
	if t.inFlight {
		p.mu.Unlock()
		logrus.WithField("mode", mode).Debug("Send rejected, request already in flight")
		return SendResult{RejectedInFlight: true}
	}
	t.inFlight = true

	history := make([]clients.ChatTurn, 0, len(t.messages))
	for _, msg := range t.messages {
		history = append(history, clients.ChatTurn{
			Role:    roleTag(msg.Author),
			Content: msg.Text,
		})
	}

	userMsg := p.appendLocked(t, RoleUser, trimmed)
	p.mu.Unlock()

	current := p.sessions.Snapshot()
	p.tracker.TouchAction(ctx, current.Email, models.ServiceChatPipeline, models.ActionMessageSent)

	reply := p.exchange(ctx, mode, trimmed, history, current)

	p.mu.Lock()
	assistantMsg := p.appendLocked(t, RoleAssistant, reply)
	t.inFlight = false
	p.mu.Unlock()

	return SendResult{
		Accepted:         true,
		UserMessage:      &userMsg,
		AssistantMessage: &assistantMsg,
	}
}

// exchange performs the network leg and maps every failure to a fallback
// text. The configuration-error path is deterministic and skips the network
// entirely.
func (p *Pipeline) exchange(ctx context.Context, mode Mode, text string, history []clients.ChatTurn, current session.Session) string {
	if !p.client.Configured() {
		return NotConfiguredReply
	}

	req := &clients.ChatRequest{
		Mode:    string(mode),
		Message: text,
		History: history,
	}
	if !current.Profile.Empty() {
		req.UserProfile = &clients.ChatProfile{
			Name:    current.Profile.Name,
			Gender:  current.Profile.Gender,
			Country: current.Profile.Country,
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	reply, err := p.client.SendMessage(reqCtx, req)
	if err != nil {
		logrus.WithError(err).WithField("mode", mode).Warn("Chat exchange failed, using fallback reply")
		return FallbackReply
	}
	return reply
}

func (p *Pipeline) appendLocked(t *thread, author Role, text string) Message {
	msg := Message{
		ID:     uuid.NewString(),
		Author: author,
		Text:   text,
	}
	t.messages = append(t.messages, msg)
	return msg
}

func roleTag(author Role) string {
	if author == RoleAssistant {
		return "assistant"
	}
	return "user"
}
