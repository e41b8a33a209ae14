package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"wellmind-session-svc/src/internal/activity"
	"wellmind-session-svc/src/internal/config"
	"wellmind-session-svc/src/internal/models"
)

// Manager owns the session state machine. It is the only component that
// touches the persisted session keys; the activity tracker shares just the
// last-activity mark.
//
// States: uninitialized -> restoring -> {logged_out, logged_in}. While
// logged in, a single periodic evaluator checks the inactivity window and
// performs the effect of Logout once it is exceeded.
type Manager struct {
	mu      sync.Mutex
	store   Store
	tracker *activity.Tracker

	session Session
	state   State

	defaultTimeoutMinutes int
	checkInterval         time.Duration
	now                   func() time.Time

	stopEvaluator chan struct{}
	onCleared     func()
}

func NewManager(store Store, tracker *activity.Tracker, cfg *config.Configuration) *Manager {
	interval := time.Duration(cfg.Session.InactivityCheckSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return &Manager{
		store:                 store,
		tracker:               tracker,
		state:                 StateUninitialized,
		defaultTimeoutMinutes: cfg.Session.DefaultTimeoutMinutes,
		checkInterval:         interval,
		now:                   time.Now,
		session:               Session{TimeoutMinutes: cfg.Session.DefaultTimeoutMinutes},
	}
}

// OnSessionCleared registers a hook invoked after the session has been
// cleared by Logout or inactivity expiry. Used to discard conversation state
// that must not outlive the session.
func (m *Manager) OnSessionCleared(hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCleared = hook
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Restore reads the persisted session once at startup. It fails soft: any
// read error or absent token resolves to logged_out with all fields cleared.
func (m *Manager) Restore(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateRestoring

	token := m.readString(ctx, models.KeyToken)
	if token == "" {
		m.clearMemoryLocked()
		m.state = StateLoggedOut
		logrus.Info("No persisted session, starting logged out")
		return
	}

	// Restoration is best-effort per field; a missing or unreadable field
	// falls back to its default rather than failing the whole restore.
	m.session = Session{
		Token: token,
		Email: m.readString(ctx, models.KeyEmail),
		Profile: Profile{
			Name:    m.readString(ctx, models.KeyName),
			Gender:  m.readString(ctx, models.KeyGender),
			Country: m.readString(ctx, models.KeyCountry),
		},
		IsSponsor:      m.readString(ctx, models.KeySponsor) == "1",
		TimeoutMinutes: m.readTimeoutMinutes(ctx),
	}
	m.state = StateLoggedIn
	m.armEvaluatorLocked()

	logrus.WithField("email", m.session.Email).Info("Session restored")
}

// Login persists the new identity and transitions to logged_in. Optional
// fields that arrive empty are cleared in both persisted and in-memory form
// so nothing leaks between identities. Calling Login while already logged in
// fully overwrites the prior identity.
func (m *Manager) Login(ctx context.Context, params LoginParams) {
	m.mu.Lock()

	m.writeString(ctx, models.KeyToken, params.Token)
	m.writeString(ctx, models.KeyEmail, params.Email)
	m.writeOptional(ctx, models.KeyName, params.Profile.Name)
	m.writeOptional(ctx, models.KeyGender, params.Profile.Gender)
	m.writeOptional(ctx, models.KeyCountry, params.Profile.Country)

	if params.Sponsor {
		m.writeString(ctx, models.KeySponsor, "1")
	} else {
		m.deleteKeys(ctx, models.KeySponsor)
	}

	m.session = Session{
		Token:          params.Token,
		Email:          params.Email,
		Profile:        params.Profile,
		IsSponsor:      params.Sponsor,
		TimeoutMinutes: m.session.TimeoutMinutes,
	}
	m.state = StateLoggedIn
	m.armEvaluatorLocked()
	m.mu.Unlock()

	m.tracker.TouchAction(ctx, params.Email, models.ServiceSessionManager, models.ActionLogin)

	logrus.WithField("email", params.Email).Info("Logged in")
}

// Logout clears the persisted and in-memory session and transitions to
// logged_out. Safe to call when already logged out.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.clearLocked(ctx)
	hook := m.onCleared
	m.mu.Unlock()

	if hook != nil {
		hook()
	}

	logrus.Info("Logged out")
}

// SetSponsor persists the sponsor flag without affecting session validity.
func (m *Manager) SetSponsor(ctx context.Context, sponsor bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sponsor {
		m.writeString(ctx, models.KeySponsor, "1")
	} else {
		m.writeString(ctx, models.KeySponsor, "0")
	}
	m.session.IsSponsor = sponsor
}

// SetSessionTimeoutMinutes persists the inactivity window. Minutes below
// zero are clamped to zero; zero disables inactivity expiry.
func (m *Manager) SetSessionTimeoutMinutes(ctx context.Context, minutes int) {
	if minutes < 0 {
		minutes = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeString(ctx, models.KeyTimeoutMinutes, strconv.Itoa(minutes))
	m.session.TimeoutMinutes = minutes
}

// EvaluateInactivity checks the persisted activity mark against the
// configured window and performs the effect of Logout when it is exceeded.
// Returns true when the session expired.
func (m *Manager) EvaluateInactivity(ctx context.Context, now time.Time) bool {
	m.mu.Lock()

	if m.state != StateLoggedIn {
		m.mu.Unlock()
		return false
	}
	if m.session.TimeoutMinutes == 0 {
		m.mu.Unlock()
		return false
	}

	raw := m.readString(ctx, models.KeyLastActivity)
	if raw == "" {
		// No mark means staleness cannot be judged.
		m.mu.Unlock()
		return false
	}
	mark, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		m.mu.Unlock()
		return false
	}

	window := int64(m.session.TimeoutMinutes) * 60_000
	if now.UnixMilli()-mark <= window {
		m.mu.Unlock()
		return false
	}

	logrus.WithFields(logrus.Fields{
		"email":           m.session.Email,
		"timeout_minutes": m.session.TimeoutMinutes,
	}).Info("Session expired after inactivity")

	m.clearLocked(ctx)
	hook := m.onCleared
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true
}

// Close tears down the inactivity evaluator on process shutdown without
// clearing the persisted session.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disarmEvaluatorLocked()
}

func (m *Manager) clearLocked(ctx context.Context) {
	m.deleteKeys(ctx,
		models.KeyToken,
		models.KeyEmail,
		models.KeyName,
		models.KeyGender,
		models.KeyCountry,
		models.KeySponsor,
		models.KeyLastActivity,
	)
	m.clearMemoryLocked()
	m.state = StateLoggedOut
	m.disarmEvaluatorLocked()
}

func (m *Manager) clearMemoryLocked() {
	// The timeout setting survives logout; identity and profile do not.
	m.session = Session{TimeoutMinutes: m.session.TimeoutMinutes}
}

func (m *Manager) armEvaluatorLocked() {
	if m.stopEvaluator != nil {
		return // one evaluator at most
	}
	stop := make(chan struct{})
	m.stopEvaluator = stop
	go m.runEvaluator(stop)
}

func (m *Manager) disarmEvaluatorLocked() {
	if m.stopEvaluator != nil {
		close(m.stopEvaluator)
		m.stopEvaluator = nil
	}
}

func (m *Manager) runEvaluator(stop <-chan struct{}) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			m.EvaluateInactivity(ctx, m.now())
			cancel()
		}
	}
}

// readString swallows storage errors; a failed read behaves like an absent
// key so a corrupted store degrades to logged-out instead of crashing.
func (m *Manager) readString(ctx context.Context, key string) string {
	value, err := m.store.Get(ctx, key)
	if err != nil {
		return ""
	}
	return value
}

func (m *Manager) readTimeoutMinutes(ctx context.Context) int {
	raw := m.readString(ctx, models.KeyTimeoutMinutes)
	if raw == "" {
		return m.defaultTimeoutMinutes
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < 0 {
		return m.defaultTimeoutMinutes
	}
	return minutes
}

func (m *Manager) writeString(ctx context.Context, key, value string) {
	if err := m.store.Set(ctx, key, value); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to persist session field")
	}
}

func (m *Manager) writeOptional(ctx context.Context, key, value string) {
	if value == "" {
		m.deleteKeys(ctx, key)
		return
	}
	m.writeString(ctx, key, value)
}

func (m *Manager) deleteKeys(ctx context.Context, keys ...string) {
	if err := m.store.Delete(ctx, keys...); err != nil {
		logrus.WithError(err).Warn("Failed to clear session fields")
	}
}
