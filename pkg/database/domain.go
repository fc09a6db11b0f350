package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Connection definition connection setting
type Connection struct {
	ConnectStr string

	RetryCount    int
	RetryInterval time.Duration
}

// MongoDB definition mongo db
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// KafkaConnection definition kafka
type KafkaConnection struct {
	Brokers       []string
	Topic         string
	GroupID       string
	RetryCount    int
	RetryInterval time.Duration
}

// TxRunner runs a function inside one store level transaction. The whole
// function commits or nothing does.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
