package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"video2mp3_service/internal/converter/app"
	"video2mp3_service/pkg/config"
	"video2mp3_service/pkg/database"
	"video2mp3_service/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.Converter, config.EnvConfig.ConverterLogPath)

	cfg := config.LoadConfig[config.Converter](config.EnvConfig.Converter, config.EnvConfig.ConverterYAMLPath)
	cfg.Queues.Validate()
	cfg.Buckets.Validate()
	cfg.FFmpeg.Validate()

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

	// 2. 連線 RabbitMQ，連線耗盡重試次數時整個程序結束
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

	// 3. 組合 Consumer
	converter := app.NewFFmpegConverter(cfg.FFmpeg)
	consumer := app.NewConsumer(rabbit, store, converter, cfg.Queues, cfg.Buckets)

	if err := consumer.Setup(); err != nil {
		log.Fatalf("Consumer setup failed: %v", err)
	}

	// 4. 啟動消費迴圈, SIGINT/SIGTERM 觸發正常停止
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(ctx); err != nil {
		// connection loss is fatal, the supervisor restarts the process
		logger.Log.Fatal("Consumer terminated", zap.Error(err))
	}
}

func buildMongoURI(db config.DatabaseConfig) string {
	if db.User != "" && db.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", db.User, db.Password, db.Host, db.Port)
	}
	return fmt.Sprintf("mongodb://%s:%d", db.Host, db.Port)
}
