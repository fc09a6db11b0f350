package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewKafkaWriterWithRetry create a Kafka writer, checking broker reachability first
func NewKafkaWriterWithRetry(k KafkaConnection) (*kafka.Writer, error) {
	var err error

	for attempt := 1; attempt <= k.RetryCount; attempt++ {
		var conn *kafka.Conn
		conn, err = kafka.Dial("tcp", k.Brokers[0])
		if err == nil {
			conn.Close()
			log.Printf("Kafka writer ready for topic[%s] (attempt %d)", k.Topic, attempt)
			return kafka.NewWriter(kafka.WriterConfig{
				Brokers:  k.Brokers,
				Topic:    k.Topic,
				Balancer: &kafka.LeastBytes{},
			}), nil
		}

		log.Printf("Kafka broker unreachable (attempt %d/%d): %v", attempt, k.RetryCount, err)
		time.Sleep(k.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("could not reach Kafka after %d attempts: %v", k.RetryCount, err)
}

// NewKafkaReaderWithRetry create a Kafka reader on a consumer group
func NewKafkaReaderWithRetry(k KafkaConnection) (*kafka.Reader, error) {
	var err error

	for attempt := 1; attempt <= k.RetryCount; attempt++ {
		var conn *kafka.Conn
		conn, err = kafka.DialContext(context.Background(), "tcp", k.Brokers[0])
		if err == nil {
			conn.Close()
			log.Printf("Kafka reader ready for topic[%s] group[%s] (attempt %d)", k.Topic, k.GroupID, attempt)
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:     k.Brokers,
				Topic:       k.Topic,
				GroupID:     k.GroupID,
				StartOffset: kafka.FirstOffset,
			}), nil
		}

		log.Printf("Kafka broker unreachable (attempt %d/%d): %v", attempt, k.RetryCount, err)
		time.Sleep(k.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("could not reach Kafka after %d attempts: %v", k.RetryCount, err)
}
