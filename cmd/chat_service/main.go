package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/AnkitChadoker/micro-chat/internal/chat/app"
	"github.com/AnkitChadoker/micro-chat/internal/chat/domain"
	"github.com/AnkitChadoker/micro-chat/internal/chat/repository"
	"github.com/AnkitChadoker/micro-chat/internal/chat/router"
	"github.com/AnkitChadoker/micro-chat/pkg/cache"
	"github.com/AnkitChadoker/micro-chat/pkg/config"
	"github.com/AnkitChadoker/micro-chat/pkg/database"
	"github.com/AnkitChadoker/micro-chat/pkg/logger"
	"github.com/AnkitChadoker/micro-chat/pkg/middlewares"
	"github.com/AnkitChadoker/micro-chat/pkg/queue"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Mongo (messages, statuses, members, rooms)
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.Mongo.User, cfg.Mongo.Password, cfg.Mongo.Host, cfg.Mongo.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.Mongo.RetryCount,
			RetryInterval: time.Duration(cfg.Mongo.RetryInterval),
		},
		cfg.Mongo.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", uri)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	// 2. Redis (shared cache tier)
	redisClient, err := database.NewRedisClient(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	defer redisClient.Close()

	// 3. RabbitMQ (durable job queue)
	rabbitURI := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.Rabbit.User, cfg.Rabbit.Password, cfg.Rabbit.Host, cfg.Rabbit.Port)
	rabbitConn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURI,
		RetryCount:    cfg.Rabbit.RetryCount,
		RetryInterval: time.Duration(cfg.Rabbit.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect rabbitmq err : %v", err))
	}
	defer rabbitConn.Close()

	rabbitCh, err := database.GetRabbitMQChannelWithRetry(rabbitConn, cfg.Rabbit.RetryCount, time.Duration(cfg.Rabbit.RetryInterval))
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("open rabbitmq channel err : %v", err))
	}
	defer rabbitCh.Close()

	// 4. Kafka (user lifecycle in, message events out)
	userReader, err := database.NewKafkaReaderWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.UserTopic,
		GroupID:       cfg.Kafka.GroupID,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect kafka reader err : %v", err))
	}
	defer userReader.Close()

	messageWriter, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.MessageTopic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect kafka writer err : %v", err))
	}
	defer messageWriter.Close()

	// 5. Auth service gRPC
	authConn, err := database.CreateGRPCClient(cfg.AuthService.Name + ":" + cfg.AuthService.Port)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect auth service err : %v", err))
	}
	defer authConn.Close()
	authClient := repository.NewAuthGRPCClient(authConn)

	// 6. Repositories
	memberRepo := repository.NewMongoRoomMemberRepository(mongo.Database)
	statusRepo := repository.NewMongoMessageStatusRepository(mongo.Database)
	messageRepo := repository.NewMongoMessageRepository(mongo.Database)
	roomRepo := repository.NewMongoRoomRepository(mongo.Database)

	// 7. Job queue and workers
	jobs := queue.New(rabbitCh, queue.Options{Attempts: cfg.Queue.Attempts, Backoff: cfg.Queue.Backoff})
	jobs.Register(queue.KindProcessMessage, app.NewFanOutWorker(memberRepo, statusRepo, mongo).Handle)
	jobs.Register(queue.KindHandleLastMessage, app.NewLastMessageWorker(memberRepo, statusRepo, mongo).Handle)
	jobs.Register(queue.KindClearRoomChat, app.NewClearRoomWorker(statusRepo, mongo).Handle)
	if err := jobs.Start(ctx); err != nil {
		logger.Log.Fatal(fmt.Sprintf("start job workers err : %v", err))
	}

	// 8. Cache, resolver, invalidation consumer
	userCache := cache.New[domain.User](redisClient, cache.Config{
		LocalSize: cfg.Cache.LocalSize,
		LocalTTL:  cfg.Cache.LocalTTL,
		SharedTTL: cfg.Cache.SharedTTL,
	})
	resolver := app.NewUserResolver(userCache, authClient)
	go app.NewUserEventsConsumer(userReader, userCache).Run(ctx)

	// 9. UseCases
	events := app.NewMessageEventPublisher(messageWriter)
	messageUC := app.NewMessageUseCase(messageRepo, statusRepo, roomRepo, jobs, events, mongo)
	roomUC := app.NewRoomUseCase(memberRepo, resolver)

	// 10. Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	auth := middlewares.Auth(func(ctx context.Context, token string) (string, error) {
		user, err := authClient.VerifyToken(ctx, token)
		if err != nil {
			return "", err
		}
		if user == nil {
			return "", fmt.Errorf("invalid token")
		}
		return user.ID, nil
	})
	router.RegisterRoutes(r, app.NewChatHandler(messageUC, roomUC, resolver), auth)

	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
