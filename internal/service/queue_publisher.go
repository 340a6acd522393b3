// Package service publishes domain events to RabbitMQ.  Publish errors are
// logged and returned so callers can ignore them without failing the request.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/seating-plan/internal/model"
	q "github.com/iliyamo/seating-plan/internal/queue"
)

// dialTimeout bounds connect and handshake when ctx carries no deadline.
const dialTimeout = 3 * time.Second

// Publisher sends reservation.created messages.  Every publish opens its own
// connection so a broker restart never leaves a stale channel behind.
type Publisher struct {
	url string
	log *zap.Logger
	now func() time.Time
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, log: log.Named("rabbitmq"), now: time.Now}
}

// PublishReservationCreated publishes r as a persistent JSON message on the
// reservation.created queue through the default exchange.
func (p *Publisher) PublishReservationCreated(ctx context.Context, r model.Reservation) error {
	body, err := encodeReservation(r)
	if err != nil {
		p.log.Error("marshal event failed", zap.Error(err))
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := dialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if timeout = time.Until(dl); timeout <= 0 {
			return context.DeadlineExceeded
		}
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		p.log.Warn("dial failed", zap.Error(err))
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// channel and declare RPCs do not take a context; closing the
	// connection unblocks them once ctx is done.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("channel open failed", zap.Error(err))
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(q.ReservationQueue, true, false, false, false, nil); err != nil {
		p.log.Warn("queue declare failed", zap.Error(err))
		return fmt.Errorf("declare queue: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    r.ID,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.ReservationQueue, false, false, msg); err != nil {
		p.log.Warn("publish failed", zap.Error(err))
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func encodeReservation(r model.Reservation) ([]byte, error) {
	return json.Marshal(q.NewReservationCreated(r))
}
