package database

import (
	"fmt"
	"log"
	"time"

	"github.com/streadway/amqp"
)

// amqpDial 讓測試可以替換連線行為
var amqpDial = amqp.Dial

// RabbitRepo definition rabbit repo
type RabbitRepo interface {
	QueueDeclare(name string, durable, autoDelete bool) error
	Qos(prefetchCount int) error
	Consume(queue string) (<-chan amqp.Delivery, error)
	Publish(queue string, body []byte) error
	Close()
}

type rabbitRepo struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitRepository create a RabbitRepository
func NewRabbitRepository(conn *amqp.Connection, channel *amqp.Channel) RabbitRepo {
	return &rabbitRepo{conn: conn, channel: channel}
}

// ConnectRabbitMQWithRetry 嘗試連線到 RabbitMQ，失敗時以固定間隔重試
func ConnectRabbitMQWithRetry(d Connection) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for attempt := 1; attempt <= d.RetryCount; attempt++ {
		conn, err = amqpDial(d.ConnectStr)
		if err == nil {
			log.Printf("RabbitMQ[%s] 連線成功 (嘗試 %d 次)", d.ConnectStr, attempt)
			return conn, nil
		}

		log.Printf("RabbitMQ[%s] 連線失敗 (嘗試 %d/%d): %v", d.ConnectStr, attempt, d.RetryCount, err)
		if attempt < d.RetryCount {
			time.Sleep(d.RetryInterval)
		}
	}

	return nil, fmt.Errorf("無法連線 RabbitMQ[%s]，經過 %d 次嘗試: %v", d.ConnectStr, d.RetryCount, err)
}

// GetRabbitMQChannelWithRetry 使用已有的 RabbitMQ 連線嘗試取得 Channel
func GetRabbitMQChannelWithRetry(conn *amqp.Connection, maxRetries int, baseDelay time.Duration) (*amqp.Channel, error) {
	var ch *amqp.Channel
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		ch, err = conn.Channel()
		if err == nil {
			log.Printf("RabbitMQ Channel 建立成功 (嘗試 %d 次)", attempt)
			return ch, nil
		}

		log.Printf("建立 RabbitMQ Channel 失敗 (嘗試 %d/%d): %v", attempt, maxRetries, err)
		if attempt < maxRetries {
			time.Sleep(baseDelay)
		}
	}

	return nil, fmt.Errorf("無法取得 RabbitMQ Channel，經過 %d 次嘗試: %v", maxRetries, err)
}

// QueueDeclare declare a queue, idempotent, must run before publish or consume
func (r *rabbitRepo) QueueDeclare(name string, durable, autoDelete bool) error {
	_, err := r.channel.QueueDeclare(
		name,
		durable,
		autoDelete,
		false, // exclusive
		false, // noWait
		nil,   // arguments
	)
	return err
}

// Qos bound the unacknowledged deliveries held by this channel
func (r *rabbitRepo) Qos(prefetchCount int) error {
	return r.channel.Qos(prefetchCount, 0, false)
}

// Consume register a manual-ack consumer on the queue
func (r *rabbitRepo) Consume(queue string) (<-chan amqp.Delivery, error) {
	return r.channel.Consume(
		queue,
		"",    // consumer tag，留空由系統分配
		false, // autoAck 為 false，使用手動確認
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // arguments
	)
}

// Publish publish a persistent JSON message on the default exchange
func (r *rabbitRepo) Publish(queue string, body []byte) error {
	return r.channel.Publish(
		"",    // 預設 exchange
		queue, // queue 名稱
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Close best-effort shutdown of channel then connection, runs on every exit path
func (r *rabbitRepo) Close() {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			log.Printf("關閉 RabbitMQ Channel 失敗: %v", err)
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			log.Printf("關閉 RabbitMQ 連線失敗: %v", err)
		}
	}
}
