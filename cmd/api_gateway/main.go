package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"video2mp3_service/internal/gateway/api/handlers"
	"video2mp3_service/internal/gateway/api/router"
	"video2mp3_service/internal/gateway/app"
	"video2mp3_service/pkg/config"
	"video2mp3_service/pkg/database"
	"video2mp3_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.APIGateway, config.EnvConfig.APIGatewayLogPath)

	cfg := config.LoadConfig[config.APIGateway](config.EnvConfig.APIGateway, config.EnvConfig.APIGatewayYAMLPath)
	cfg.Queues.Validate()
	cfg.Buckets.Validate()

	// 1. 連線 MongoDB (GridFS object store)
	mongoURI := buildMongoURI(cfg.Mongo)
	mongoDB, err := database.NewMongoDB(context.Background(), database.Connection{
		ConnectStr:    mongoURI,
		RetryCount:    cfg.Mongo.RetryCount,
		RetryInterval: time.Duration(cfg.Mongo.RetryInterval) * time.Second,
	}, cfg.Mongo.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to MongoDB after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.Mongo.Host, cfg.Mongo.Port)),
			zap.Error(err),
		)
	}
	defer mongoDB.Close(context.Background())

	store := database.NewGridFSStore(mongoDB.Database)

	// 2. 連線 RabbitMQ
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.IP, cfg.RabbitMQ.Port)
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval) * time.Second,
	})
	if err != nil {
		log.Fatalf("RabbitMQ 連線失敗: %v", err)
	}

	rabbitChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval)*time.Second)
	if err != nil {
		log.Fatalf("取得 RabbitMQ Channel 失敗: %v", err)
	}

	rabbit := database.NewRabbitRepository(conn, rabbitChannel)
	defer rabbit.Close()

	// 發布前先宣告 input queue
	if err := rabbit.QueueDeclare(cfg.Queues.Video, true, false); err != nil {
		log.Fatalf("Queue Declare failed: %v", err)
	}

	// 3. 組合 usecase 與 handler
	usecase := app.NewGatewayUseCase(store, rabbit, cfg.Queues, cfg.Buckets)
	authClient := app.NewAuthClient(cfg.Auth.Address)
	gatewayHandler := handlers.NewGatewayHandler(usecase, authClient)

	// 4. 建立 Fiber 應用
	r := fiber.New()

	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.APIGatewayLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, gatewayHandler, authClient)

	// 5. 啟動 API 服務
	if err := r.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}

func buildMongoURI(db config.DatabaseConfig) string {
	if db.User != "" && db.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", db.User, db.Password, db.Host, db.Port)
	}
	return fmt.Sprintf("mongodb://%s:%d", db.Host, db.Port)
}
