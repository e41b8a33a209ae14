package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellmind-session-svc/src/internal/activity"
	"wellmind-session-svc/src/internal/config"
	"wellmind-session-svc/src/internal/models"
)

// fakeStore is an in-memory Store with optional fault injection.
type fakeStore struct {
	mu     sync.Mutex
	data   map[string]string
	failed bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return "", errors.New("store unavailable")
	}
	return s.data[key], nil
}

func (s *fakeStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return errors.New("store unavailable")
	}
	s.data[key] = value
	return nil
}

func (s *fakeStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed {
		return errors.New("store unavailable")
	}
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *fakeStore) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

func (s *fakeStore) put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func testConfig() *config.Configuration {
	return &config.Configuration{
		Session: config.SessionConfig{
			DefaultTimeoutMinutes:  30,
			InactivityCheckSeconds: 60,
		},
	}
}

func newTestManager(store Store) *Manager {
	cfg := testConfig()
	tracker := activity.NewTracker(store, nil, cfg)
	return NewManager(store, tracker, cfg)
}

func TestRestoreWithoutTokenResolvesToLoggedOut(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()

	m.Restore(context.Background())

	assert.Equal(t, StateLoggedOut, m.State())
	assert.False(t, m.Snapshot().LoggedIn())
}

func TestRestoreFailsSoftOnBrokenStore(t *testing.T) {
	store := newFakeStore()
	store.failed = true
	m := newTestManager(store)
	defer m.Close()

	m.Restore(context.Background())

	assert.Equal(t, StateLoggedOut, m.State())
}

func TestRestoreRebuildsSessionPerField(t *testing.T) {
	store := newFakeStore()
	store.put(models.KeyToken, "tok-1")
	store.put(models.KeyEmail, "ana@example.com")
	store.put(models.KeyName, "Ana")
	store.put(models.KeySponsor, "1")
	store.put(models.KeyTimeoutMinutes, "45")

	m := newTestManager(store)
	defer m.Close()

	m.Restore(context.Background())

	require.Equal(t, StateLoggedIn, m.State())
	require.True(t, m.Snapshot().LoggedIn())
	current := m.Snapshot()
	assert.Equal(t, "tok-1", current.Token)
	assert.Equal(t, "ana@example.com", current.Email)
	assert.Equal(t, "Ana", current.Profile.Name)
	assert.Empty(t, current.Profile.Country)
	assert.True(t, current.IsSponsor)
	assert.Equal(t, 45, current.TimeoutMinutes)
}

func TestRestoreFallsBackToDefaultTimeout(t *testing.T) {
	store := newFakeStore()
	store.put(models.KeyToken, "tok-1")
	store.put(models.KeyTimeoutMinutes, "not-a-number")

	m := newTestManager(store)
	defer m.Close()

	m.Restore(context.Background())

	assert.Equal(t, 30, m.Snapshot().TimeoutMinutes)
}

func TestLoginThenLogoutLeavesDefaultSession(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()
	ctx := context.Background()

	m.Login(ctx, LoginParams{
		Email:   "ana@example.com",
		Token:   "tok-1",
		Sponsor: true,
		Profile: Profile{Name: "Ana", Gender: GenderFemale, Country: "AR"},
	})
	require.Equal(t, StateLoggedIn, m.State())
	require.NotEmpty(t, store.get(models.KeyLastActivity))

	m.Logout(ctx)

	assert.Equal(t, StateLoggedOut, m.State())
	assert.Equal(t, Session{TimeoutMinutes: 30}, m.Snapshot())
	assert.Empty(t, store.get(models.KeyToken))
	assert.Empty(t, store.get(models.KeyEmail))
	assert.Empty(t, store.get(models.KeyName))
	assert.Empty(t, store.get(models.KeyGender))
	assert.Empty(t, store.get(models.KeyCountry))
	assert.Empty(t, store.get(models.KeySponsor))
	assert.Empty(t, store.get(models.KeyLastActivity))
}

func TestLogoutWhenAlreadyLoggedOutIsSafe(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()

	m.Logout(context.Background())
	m.Logout(context.Background())

	assert.Equal(t, StateLoggedOut, m.State())
}

func TestSecondLoginClearsPreviousProfile(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()
	ctx := context.Background()

	m.Login(ctx, LoginParams{
		Email:   "ana@example.com",
		Token:   "tok-1",
		Sponsor: true,
		Profile: Profile{Name: "Ana", Gender: GenderFemale, Country: "AR"},
	})

	m.Login(ctx, LoginParams{Email: "ben@example.com", Token: "tok-2"})

	current := m.Snapshot()
	assert.Equal(t, "ben@example.com", current.Email)
	assert.Equal(t, "tok-2", current.Token)
	assert.False(t, current.IsSponsor)
	assert.Empty(t, current.Profile.Name)
	assert.Empty(t, current.Profile.Gender)
	assert.Empty(t, current.Profile.Country)

	assert.Empty(t, store.get(models.KeyName))
	assert.Empty(t, store.get(models.KeyGender))
	assert.Empty(t, store.get(models.KeyCountry))
	assert.Empty(t, store.get(models.KeySponsor))
}

func TestSetSessionTimeoutMinutesClampsNegative(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()

	m.SetSessionTimeoutMinutes(context.Background(), -5)

	assert.Equal(t, 0, m.Snapshot().TimeoutMinutes)
	assert.Equal(t, "0", store.get(models.KeyTimeoutMinutes))
}

func TestSetSponsorPersistsFlag(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()
	ctx := context.Background()

	m.SetSponsor(ctx, true)
	assert.Equal(t, "1", store.get(models.KeySponsor))
	assert.True(t, m.Snapshot().IsSponsor)

	m.SetSponsor(ctx, false)
	assert.Equal(t, "0", store.get(models.KeySponsor))
	assert.False(t, m.Snapshot().IsSponsor)
}

func TestEvaluateInactivityExpiresStaleSession(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()
	ctx := context.Background()

	m.Login(ctx, LoginParams{Email: "ana@example.com", Token: "tok-1"})
	m.SetSessionTimeoutMinutes(ctx, 30)

	now := time.Now()
	mark := now.Add(-31 * time.Minute).UnixMilli()
	store.put(models.KeyLastActivity, strconv.FormatInt(mark, 10))

	expired := m.EvaluateInactivity(ctx, now)

	assert.True(t, expired)
	assert.Equal(t, StateLoggedOut, m.State())
	assert.Empty(t, store.get(models.KeyToken))
}

func TestEvaluateInactivityKeepsFreshSession(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()
	ctx := context.Background()

	m.Login(ctx, LoginParams{Email: "ana@example.com", Token: "tok-1"})
	m.SetSessionTimeoutMinutes(ctx, 30)

	now := time.Now()
	mark := now.Add(-29 * time.Minute).UnixMilli()
	store.put(models.KeyLastActivity, strconv.FormatInt(mark, 10))

	expired := m.EvaluateInactivity(ctx, now)

	assert.False(t, expired)
	assert.Equal(t, StateLoggedIn, m.State())
}

func TestEvaluateInactivityZeroTimeoutNeverExpires(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()
	ctx := context.Background()

	m.Login(ctx, LoginParams{Email: "ana@example.com", Token: "tok-1"})
	m.SetSessionTimeoutMinutes(ctx, 0)

	mark := time.Now().Add(-1000 * time.Hour).UnixMilli()
	store.put(models.KeyLastActivity, strconv.FormatInt(mark, 10))

	expired := m.EvaluateInactivity(ctx, time.Now())

	assert.False(t, expired)
	assert.Equal(t, StateLoggedIn, m.State())
}

func TestEvaluateInactivityWithoutMarkIsNoOp(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()
	ctx := context.Background()

	m.Login(ctx, LoginParams{Email: "ana@example.com", Token: "tok-1"})
	store.Delete(ctx, models.KeyLastActivity)

	expired := m.EvaluateInactivity(ctx, time.Now())

	assert.False(t, expired)
	assert.Equal(t, StateLoggedIn, m.State())
}

func TestEvaluateInactivityWhenLoggedOutIsNoOp(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()

	expired := m.EvaluateInactivity(context.Background(), time.Now())

	assert.False(t, expired)
}

func TestExpiryInvokesClearedHook(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	defer m.Close()
	ctx := context.Background()

	cleared := 0
	m.OnSessionCleared(func() { cleared++ })

	m.Login(ctx, LoginParams{Email: "ana@example.com", Token: "tok-1"})
	m.SetSessionTimeoutMinutes(ctx, 1)

	now := time.Now()
	mark := now.Add(-2 * time.Minute).UnixMilli()
	store.put(models.KeyLastActivity, strconv.FormatInt(mark, 10))

	require.True(t, m.EvaluateInactivity(ctx, now))
	assert.Equal(t, 1, cleared)
}
