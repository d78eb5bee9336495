package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger zerolog.Logger
}

func NewConsumer(amqpURL string, logger zerolog.Logger) (*Consumer, error) {
	conn, ch, err := dial(amqpURL)
	if err != nil {
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, logger: logger.With().Str("component", "rabbitmq_consumer").Logger()}, nil
}

// ConsumeAll binds a private, auto-deleted queue to every routing key of exchange and
// passes each delivery to handler. Every instance of the service gets its own copy of
// each event.
func (c *Consumer) ConsumeAll(exchange string, handler func([]byte) bool) error {
	if handler == nil {
		return fmt.Errorf("no handler provided")
	}

	if err := declareExchange(c.ch, exchange); err != nil {
		return err
	}

	// Server-named, exclusive and auto-deleted: the queue lives as long as this connection.
	q, err := c.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return err
	}
	if err := c.ch.QueueBind(q.Name, "#", exchange, false, nil); err != nil {
		return err
	}

	msgs, err := c.ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			c.dispatch(d, handler)
		}
	}()
	return nil
}

func (c *Consumer) dispatch(d amqp.Delivery, handler func([]byte) bool) {
	if handler(d.Body) {
		d.Ack(false)
		return
	}
	c.logger.Warn().Str("routing_key", d.RoutingKey).Msg("handler failed; re-queuing")
	d.Nack(false, true)
}

// NotifyClose calls fn once when the broker connection closes unexpectedly.
func (c *Consumer) NotifyClose(fn func(error)) {
	closed := c.conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if amqpErr, ok := <-closed; ok && amqpErr != nil {
			c.logger.Error().Str("reason", amqpErr.Reason).Int("code", amqpErr.Code).Msg("connection closed")
			fn(amqpErr)
		}
	}()
}

func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
