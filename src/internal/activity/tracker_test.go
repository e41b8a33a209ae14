package activity

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellmind-session-svc/src/internal/config"
	"wellmind-session-svc/src/internal/models"
)

type fakeStore struct {
	data map[string]string
	fail bool
}

func (s *fakeStore) Set(_ context.Context, key, value string) error {
	if s.fail {
		return errors.New("store unavailable")
	}
	s.data[key] = value
	return nil
}

type fakePublisher struct {
	published []amqp.Publishing
	fail      bool
}

func (p *fakePublisher) Publish(_, _ string, _, _ bool, msg amqp.Publishing) error {
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, msg)
	return nil
}

func trackerConfig() *config.Configuration {
	return &config.Configuration{
		Queue: config.QueueConfig{
			RabbitMQ: config.RabbitMQConfig{
				Exchange:   "wellmind.activity",
				RoutingKey: "session.activity",
			},
		},
	}
}

func TestTouchWritesActivityMark(t *testing.T) {
	store := &fakeStore{data: map[string]string{}}
	tracker := NewTracker(store, nil, trackerConfig())

	fixed := time.UnixMilli(1_700_000_000_000)
	tracker.now = func() time.Time { return fixed }

	tracker.Touch(context.Background())

	mark, err := strconv.ParseInt(store.data[models.KeyLastActivity], 10, 64)
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), mark)
}

func TestTouchSwallowsStoreErrors(t *testing.T) {
	store := &fakeStore{data: map[string]string{}, fail: true}
	tracker := NewTracker(store, nil, trackerConfig())

	// Must not panic or block the calling action.
	tracker.Touch(context.Background())
	tracker.TouchAction(context.Background(), "ana@example.com",
		models.ServiceActivityTracker, models.ActionDayRatingSaved)
}

func TestTouchActionPublishesEvent(t *testing.T) {
	store := &fakeStore{data: map[string]string{}}
	publisher := &fakePublisher{}
	tracker := NewTracker(store, publisher, trackerConfig())

	tracker.TouchAction(context.Background(), "ana@example.com",
		models.ServiceActivityTracker, models.ActionSponsorLink)

	require.Len(t, publisher.published, 1)

	var msg models.ActivityMessage
	require.NoError(t, json.Unmarshal(publisher.published[0].Body, &msg))
	assert.Equal(t, "ana@example.com", msg.Email)
	assert.Equal(t, models.ActionSponsorLink, msg.Action)
	assert.Equal(t, models.ServiceActivityTracker, msg.ServiceName)
	assert.NotEmpty(t, store.data[models.KeyLastActivity])
}

func TestTouchActionSwallowsPublishErrors(t *testing.T) {
	store := &fakeStore{data: map[string]string{}}
	publisher := &fakePublisher{fail: true}
	tracker := NewTracker(store, publisher, trackerConfig())

	tracker.TouchAction(context.Background(), "", models.ServiceChatPipeline, models.ActionMessageSent)

	// The mark is still written even when publishing fails.
	assert.NotEmpty(t, store.data[models.KeyLastActivity])
}
