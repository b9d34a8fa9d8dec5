package app

import (
	"context"
	"fmt"
	"io"

	convdomain "video2mp3_service/internal/converter/domain"
	"video2mp3_service/internal/gateway/domain"
	"video2mp3_service/pkg/config"
	"video2mp3_service/pkg/database"
	errprocess "video2mp3_service/pkg/err"
	"video2mp3_service/pkg/logger"

	"go.uber.org/zap"
)

// FileStore gateway 端需要的物件儲存操作
type FileStore interface {
	Put(ctx context.Context, bucket, filename string, content io.Reader) (string, error)
	Get(ctx context.Context, bucket, id string) (io.ReadCloser, string, int64, error)
	Delete(ctx context.Context, bucket, id string) error
}

// GatewayUseCase 這裡封裝了對外提供的應用服務
type GatewayUseCase interface {
	UploadVideo(ctx context.Context, up domain.UploadVideoReq) (*domain.UploadVideoRes, error)
	DownloadMP3(ctx context.Context, fid string) (*domain.DownloadMP3Res, error)
}

type gatewayUseCase struct {
	store  FileStore
	rabbit database.RabbitRepo

	videoQueue  string
	videoBucket string
	mp3Bucket   string
}

// NewGatewayUseCase 建立一個新的 GatewayUseCase
func NewGatewayUseCase(store FileStore, rabbit database.RabbitRepo,
	queues config.QueueConfig, buckets config.BucketConfig,
) GatewayUseCase {
	return &gatewayUseCase{
		store:       store,
		rabbit:      rabbit,
		videoQueue:  queues.Video,
		videoBucket: buckets.Videos,
		mp3Bucket:   buckets.MP3s,
	}
}

// UploadVideo store the video and enqueue the conversion request.
// The caller is never told success unless both steps committed: a failed
// publish rolls the stored video back before the error is returned.
func (s *gatewayUseCase) UploadVideo(ctx context.Context, up domain.UploadVideoReq) (*domain.UploadVideoRes, error) {
	videoFid, err := s.store.Put(ctx, s.videoBucket, up.FileName, up.File)
	if err != nil {
		errMsg := fmt.Sprintf("fileName[%s] 上傳 GridFS 失敗 : %v", up.FileName, err)
		logger.Log.Error(errMsg)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUpload, err)
	}

	msg := convdomain.ConversionMessage{
		VideoFid: videoFid,
		Username: up.Username,
	}
	body, err := msg.ToJSON()
	if err == nil {
		err = s.rabbit.Publish(s.videoQueue, body)
	}
	if err != nil {
		// compensating delete, best-effort, its own failure is logged only
		if delErr := s.store.Delete(ctx, s.videoBucket, videoFid); delErr != nil {
			logger.Log.Errorf(fmt.Sprintf("rollback 刪除影片 [%s] 失敗:", videoFid), delErr)
		}
		errMsg := fmt.Sprintf("video_fid[%s] 發送 RabbitMQ 訊息失敗 : %v", videoFid, err)
		logger.Log.Error(errMsg)
		return nil, fmt.Errorf("%w: %v", domain.ErrQueuePublish, err)
	}

	logger.Log.Info("影片已上傳並排入轉檔佇列",
		zap.String("video_fid", videoFid),
		zap.String("username", up.Username),
	)

	return &domain.UploadVideoRes{
		Message:  "success! Video uploaded and queued for conversion.",
		VideoFid: videoFid,
	}, nil
}

// DownloadMP3 open a store stream for the converted result.
// Not-found and any other store error are reported the same way here, the
// HTTP boundary does not distinguish them.
func (s *gatewayUseCase) DownloadMP3(ctx context.Context, fid string) (*domain.DownloadMP3Res, error) {
	content, fileName, length, err := s.store.Get(ctx, s.mp3Bucket, fid)
	if err != nil {
		return nil, errprocess.Set(fmt.Sprintf("fid[%s] 下載 MP3 失敗 : %v", fid, err))
	}

	if fileName == "" {
		fileName = fid + ".mp3"
	}

	return &domain.DownloadMP3Res{
		Content:  content,
		FileName: fileName,
		Length:   length,
	}, nil
}
