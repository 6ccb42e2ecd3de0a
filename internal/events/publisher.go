// README: Ride transition event publishing over AMQP.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"cityride/internal/modules/ride"
)

// transitionMessage is the wire form of one lifecycle transition.
type transitionMessage struct {
	RideID     string    `json:"ride_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorType  string    `json:"actor_type"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AMQPPublisher fans ride transitions out on a topic exchange with routing
// keys of the form ride.<to_status>.
type AMQPPublisher struct {
	ch       *amqp.Channel
	exchange string
	log      *slog.Logger
}

func NewAMQPPublisher(conn *amqp.Connection, exchange string, log *slog.Logger) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &AMQPPublisher{ch: ch, exchange: exchange, log: log}, nil
}

func (p *AMQPPublisher) PublishTransition(ctx context.Context, e ride.Event) error {
	msg := transitionMessage{
		RideID:     string(e.RideID),
		FromStatus: string(e.FromStatus),
		ToStatus:   string(e.ToStatus),
		ActorType:  e.ActorType,
		OccurredAt: e.CreatedAt,
	}
	if e.ActorID != nil {
		msg.ActorID = string(*e.ActorID)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		"ride."+string(e.ToStatus),
		false, false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   e.CreatedAt,
			Body:        body,
		},
	)
	if err != nil && p.log != nil {
		p.log.Error("publish ride event failed", "ride_id", e.RideID, "err", err)
	}
	return err
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}
