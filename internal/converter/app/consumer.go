package app

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"video2mp3_service/internal/converter/domain"
	"video2mp3_service/pkg/config"
	"video2mp3_service/pkg/database"
	errprocess "video2mp3_service/pkg/err"
	"video2mp3_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// FileStore converter 端需要的物件儲存操作
type FileStore interface {
	Get(ctx context.Context, bucket, id string) (io.ReadCloser, string, int64, error)
	Put(ctx context.Context, bucket, filename string, content io.Reader) (string, error)
	Delete(ctx context.Context, bucket, id string) error
}

// Consumer 消費 video queue 的轉檔工作，將所有必要的依賴注入進來
type Consumer struct {
	rabbit    database.RabbitRepo
	store     FileStore
	converter AudioConverter

	videoQueue  string
	mp3Queue    string
	prefetch    int
	videoBucket string
	mp3Bucket   string
}

// NewConsumer 建構 Consumer 實例
func NewConsumer(rabbit database.RabbitRepo, store FileStore, converter AudioConverter,
	queues config.QueueConfig, buckets config.BucketConfig,
) *Consumer {
	return &Consumer{
		rabbit:      rabbit,
		store:       store,
		converter:   converter,
		videoQueue:  queues.Video,
		mp3Queue:    queues.MP3,
		prefetch:    queues.Prefetch,
		videoBucket: buckets.Videos,
		mp3Bucket:   buckets.MP3s,
	}
}

// Setup declare both queues and bound the channel to sequential processing
func (c *Consumer) Setup() error {
	if err := c.rabbit.QueueDeclare(c.videoQueue, true, false); err != nil {
		return fmt.Errorf("declare queue [%s]: %w", c.videoQueue, err)
	}
	if err := c.rabbit.QueueDeclare(c.mp3Queue, true, false); err != nil {
		return fmt.Errorf("declare queue [%s]: %w", c.mp3Queue, err)
	}
	if err := c.rabbit.Qos(c.prefetch); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}
	return nil
}

// Start 開始消費訊息，blocks until the context is cancelled.
// A closed delivery channel means the broker connection is gone, that is
// fatal to the process, the supervisor restarts it with a fresh connect.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.rabbit.Consume(c.videoQueue)
	if err != nil {
		return fmt.Errorf("consume queue [%s]: %w", c.videoQueue, err)
	}

	logger.Log.Info(fmt.Sprintf("Consumer 已啟動，等待轉檔工作訊息 (queue=%s)", c.videoQueue))

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				return errprocess.Set("RabbitMQ 消費 channel 已關閉")
			}
			c.processDelivery(ctx, d)
		case <-ctx.Done():
			logger.Log.Info("Consumer 收到停止訊號")
			return nil
		}
	}
}

// processDelivery run one message through the conversion pipeline.
// Exactly one terminal action is taken per delivery: ack on success,
// nack without requeue for permanent or exhausted failures, nack with
// requeue otherwise. Failures never escape to the consumption loop.
func (c *Consumer) processDelivery(ctx context.Context, d amqp.Delivery) {
	msg, err := domain.ParseConversionMessage(d.Body)
	if err != nil {
		// a malformed message cannot be fixed by redelivery
		logger.Log.Errorf("解析轉檔訊息失敗，直接 dead-letter:", err)
		c.reject(d, false)
		return
	}

	logger.Log.Info("收到轉檔工作訊息",
		zap.String("video_fid", msg.VideoFid),
		zap.String("username", msg.Username),
	)

	if err := c.process(ctx, msg); err != nil {
		retryCount := domain.RetryCount(d.Headers)

		switch {
		case domain.IsPermanentFailure(err):
			logger.Log.Errorf(fmt.Sprintf("永久性失敗，video_fid[%s] dead-letter:", msg.VideoFid), err)
			c.reject(d, false)
		case retryCount >= domain.MaxRetries:
			logger.Log.Errorf(fmt.Sprintf("重試次數已達上限 (%d)，video_fid[%s] dead-letter:", retryCount, msg.VideoFid), err)
			c.reject(d, false)
		default:
			logger.Log.Warn(fmt.Sprintf("處理失敗，重新排入佇列 (attempt %d/%d): %v", retryCount+1, domain.MaxRetries, err))
			c.reject(d, true)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		logger.Log.Errorf("確認訊息失敗:", err)
		return
	}
	logger.Log.Info("成功處理並確認訊息", zap.String("video_fid", msg.VideoFid))
}

// process download → convert → upload → publish. The ack stays with the
// caller so a failed completion publish leaves the delivery unacked.
func (c *Consumer) process(ctx context.Context, msg domain.ConversionMessage) error {
	obj, _, _, err := c.store.Get(ctx, c.videoBucket, msg.VideoFid)
	if err != nil {
		return fmt.Errorf("下載原始影片失敗: %w", err)
	}
	video, err := io.ReadAll(obj)
	obj.Close()
	if err != nil {
		return fmt.Errorf("讀取原始影片失敗: %w", err)
	}

	mp3, err := c.converter.ConvertToMP3(ctx, video)
	if err != nil {
		return fmt.Errorf("轉檔失敗: %w", err)
	}

	mp3Filename := fmt.Sprintf("audio_%s.mp3", uuid.NewString())
	mp3Fid, err := c.store.Put(ctx, c.mp3Bucket, mp3Filename, bytes.NewReader(mp3))
	if err != nil {
		return fmt.Errorf("上傳 MP3 失敗: %w", err)
	}

	completion := msg.WithMP3Fid(mp3Fid)
	body, err := completion.ToJSON()
	if err == nil {
		err = c.rabbit.Publish(c.mp3Queue, body)
	}
	if err != nil {
		// compensating delete so no orphaned MP3 survives a failed publish
		logger.Log.Warn(fmt.Sprintf("發布完成訊息失敗，清理已上傳的 MP3 [%s]", mp3Fid))
		if delErr := c.store.Delete(ctx, c.mp3Bucket, mp3Fid); delErr != nil {
			logger.Log.Errorf(fmt.Sprintf("清理 MP3 [%s] 失敗:", mp3Fid), delErr)
		}
		return fmt.Errorf("發布完成訊息失敗: %w", err)
	}

	logger.Log.Info("完成訊息已發布",
		zap.String("video_fid", msg.VideoFid),
		zap.String("mp3_fid", mp3Fid),
	)
	return nil
}

// reject nack the delivery, errors here are logged only
func (c *Consumer) reject(d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		logger.Log.Errorf("Nack 訊息失敗:", err)
	}
}
