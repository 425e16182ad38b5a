// Package queue_publisher provides functions to publish domain events to
// RabbitMQ. Errors are logged and returned so callers can ignore failures
// without interrupting the main request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/joemdev/pool-scoreboard/internal/queue"
)

// PublishSessionCompleted publishes a SessionCompletedEvent to the
// session.completed queue.
func PublishSessionCompleted(ctx context.Context, event q.SessionCompletedEvent) error {
	return publishJSON(ctx, q.SessionCompletedQueue, event)
}

// PublishKellyFinished publishes a KellyGameFinishedEvent to the
// kelly.finished queue.
func PublishKellyFinished(ctx context.Context, event q.KellyGameFinishedEvent) error {
	return publishJSON(ctx, q.KellyFinishedQueue, event)
}

// publishJSON opens a short-lived connection, declares the queue (durable,
// idempotent), and publishes the event as a persistent JSON message. The
// function never panics; any error is logged and returned.
func publishJSON(ctx context.Context, queueName string, event any) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
