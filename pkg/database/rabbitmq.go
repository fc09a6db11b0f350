package database

import (
	"fmt"
	"log"
	"time"

	"github.com/streadway/amqp"
)

// ConnectRabbitMQWithRetry connect to RabbitMQ, retrying on failure
func ConnectRabbitMQWithRetry(d Connection) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for attempt := 1; attempt <= d.RetryCount; attempt++ {
		conn, err = amqp.Dial(d.ConnectStr)
		if err == nil {
			log.Printf("RabbitMQ[%s] connected (attempt %d)", d.ConnectStr, attempt)
			return conn, nil
		}

		log.Printf("RabbitMQ[%s] connect failed (attempt %d/%d): %v", d.ConnectStr, attempt, d.RetryCount, err)
		time.Sleep(d.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("could not connect RabbitMQ[%s] after %d attempts: %v", d.ConnectStr, d.RetryCount, err)
}

// GetRabbitMQChannelWithRetry open a channel on an existing RabbitMQ connection
func GetRabbitMQChannelWithRetry(conn *amqp.Connection, maxRetries int, baseDelay time.Duration) (*amqp.Channel, error) {
	var ch *amqp.Channel
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		ch, err = conn.Channel()
		if err == nil {
			log.Printf("RabbitMQ channel opened (attempt %d)", attempt)
			return ch, nil
		}

		log.Printf("RabbitMQ channel open failed (attempt %d/%d): %v", attempt, maxRetries, err)
		time.Sleep(baseDelay * time.Second)
	}

	return nil, fmt.Errorf("could not open RabbitMQ channel after %d attempts: %v", maxRetries, err)
}
