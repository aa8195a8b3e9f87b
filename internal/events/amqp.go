package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	apperrors "nfticket-backend/internal/common/errors"
	"nfticket-backend/internal/common/logger"
)

// AMQPPublisher publishes persistent JSON messages to a durable queue on the
// default exchange. The connection is opened lazily and reopened after a
// failure.
type AMQPPublisher struct {
	url   string
	queue string
	log   zerolog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queue, log: logger.Component("amqp")}
}

func (p *AMQPPublisher) PublishTicketPurchased(ctx context.Context, ev TicketPurchased) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode ticket event")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		p.log.Error().Err(err).Msg("Failed to open channel")
		return apperrors.Wrapf(err, apperrors.ErrCodeExternalAPI, "amqp channel for queue %s", p.queue)
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.PurchaseID,
		Body:         body,
	})
	if err != nil {
		p.reset()
		p.log.Error().Err(err).Str("queue", p.queue).Msg("Failed to publish ticket event")
		return apperrors.Wrapf(err, apperrors.ErrCodeExternalAPI, "amqp publish to queue %s", p.queue)
	}
	p.log.Debug().Str("token_id", ev.TokenID).Str("queue", p.queue).Msg("Ticket event published")
	return nil
}

// Close releases the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}
