package activity

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"wellmind-session-svc/src/internal/config"
	"wellmind-session-svc/src/internal/models"
)

// Store is the slice of the persisted key-value storage the tracker writes
// to. It is satisfied by the session store.
type Store interface {
	Set(ctx context.Context, key, value string) error
}

// Publisher publishes activity events to the message broker. Satisfied by
// *amqp.Channel.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Tracker records the timestamp of the most recent qualifying user action.
// Every operation is best-effort: a failed write degrades toward earlier
// session expiry, never toward an error for the calling action.
type Tracker struct {
	store     Store
	publisher Publisher
	cfg       *config.RabbitMQConfig
	now       func() time.Time
}

func NewTracker(store Store, publisher Publisher, cfg *config.Configuration) *Tracker {
	return &Tracker{
		store:     store,
		publisher: publisher,
		cfg:       &cfg.Queue.RabbitMQ,
		now:       time.Now,
	}
}

// Touch stamps the last-activity mark with the current time. Safe to call at
// arbitrarily high frequency; persistence errors are swallowed.
func (t *Tracker) Touch(ctx context.Context) {
	millis := t.now().UnixMilli()
	if err := t.store.Set(ctx, models.KeyLastActivity, strconv.FormatInt(millis, 10)); err != nil {
		logrus.WithError(err).Warn("Failed to record activity mark")
	}
}

// TouchAction stamps the activity mark and publishes the qualifying action to
// the activity exchange. Publish failures are logged and swallowed.
func (t *Tracker) TouchAction(ctx context.Context, email, serviceName, action string) {
	t.Touch(ctx)

	if t.publisher == nil {
		return
	}

	message := models.ActivityMessage{
		Email:       email,
		ServiceName: serviceName,
		Action:      action,
		Timestamp:   t.now(),
	}

	body, err := json.Marshal(message)
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal activity message")
		return
	}

	err = t.publisher.Publish(
		t.cfg.Exchange,
		t.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   t.now(),
		},
	)
	if err != nil {
		logrus.WithError(err).Error("Failed to publish activity message")
		return
	}

	logrus.WithFields(logrus.Fields{
		"service": serviceName,
		"action":  action,
	}).Debug("Activity message published")
}
