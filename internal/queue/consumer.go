package queue

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

// Consumer runs a pool of workers over the submissions queue. Each worker
// owns a channel with a prefetch of one and acknowledges manually.
type Consumer struct {
	conn    *amqp.Connection
	queue   string
	workers int
	proc    *Processor
}

// NewConsumer creates a Consumer. workers below one means one.
func NewConsumer(conn *amqp.Connection, queue string, workers int, proc *Processor) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{conn: conn, queue: queue, workers: workers, proc: proc}
}

// DeclareQueue declares the durable submissions queue.
func DeclareQueue(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return nil
}

// Run consumes until ctx is cancelled or a worker loses its channel.
func (c *Consumer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < c.workers; i++ {
		id := i + 1
		g.Go(func() error {
			return c.work(ctx, id)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Consumer) work(ctx context.Context, id int) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("worker %d: failed to open channel: %w", id, err)
	}
	defer func() { _ = ch.Close() }()

	if err := DeclareQueue(ch, c.queue); err != nil {
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("worker %d: failed to set prefetch: %w", id, err)
	}

	msgs, err := ch.Consume(
		c.queue,
		fmt.Sprintf("screener-%d", id),
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("worker %d: failed to consume: %w", id, err)
	}
	log.Printf("queue=worker status=started worker=%d queue=%s", id, c.queue)

	for {
		select {
		case <-ctx.Done():
			log.Printf("queue=worker status=stopped worker=%d", id)
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("worker %d: delivery channel closed", id)
			}
			c.handle(ctx, d)
		}
	}
}

// handle processes one delivery and settles it.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	outcome := c.proc.Process(ctx, d.Body, d.Redelivered)

	var err error
	switch outcome {
	case Ack:
		err = d.Ack(false)
	case Requeue:
		err = d.Nack(false, true)
	default:
		err = d.Nack(false, false)
	}
	if err != nil {
		log.Printf("queue=settle status=failed outcome=%s tag=%d err=%v", outcome, d.DeliveryTag, err)
	}
}
