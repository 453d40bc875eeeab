package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/cap-blurr/AJEY-contracts/internal/config"
	"github.com/cap-blurr/AJEY-contracts/internal/observability/metrics"
	"github.com/cap-blurr/AJEY-contracts/internal/types"
)

// Event is the envelope published for every audit-worthy engine action.
type Event struct {
	Type      types.EventType `json:"type"`
	Subject   string          `json:"subject"`
	Payload   any             `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

type QueueManager struct {
	cfg  config.QueueConfig
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s", cfg.User, cfg.Password, cfg.Url)

	var conn *amqp.Connection
	err := retry.Do(
		func() error {
			var err error
			conn, err = amqp.Dial(url)
			return err
		},
		retry.Attempts(cfg.MaxRetries),
		retry.Delay(time.Second),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("attempt", n).Msg("failed to connect to queue, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue at %s: %w", cfg.Url, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	return &QueueManager{
		cfg:  *cfg,
		conn: conn,
		ch:   ch,
	}, nil
}

// Publish sends the event to the exchange with routing key derived from
// the event type. Failures are surfaced to the caller; callers decide
// whether a publish failure is fatal for the surrounding operation.
func (qm *QueueManager) Publish(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, qm.cfg.PublishTimeout)
	defer cancel()

	routingKey := string(event.Type)
	err = qm.ch.PublishWithContext(ctx, qm.cfg.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Timestamp,
		Body:         body,
	})
	if err != nil {
		metrics.RecordQueueSendError()
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

func (qm *QueueManager) Shutdown() {
	if err := qm.ch.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close queue channel")
	}
	if err := qm.conn.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close queue connection")
	}
}
