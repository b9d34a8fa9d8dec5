package domain

import (
	"errors"
	"io"
)

// UploadVideoReq usecase upload video request
type UploadVideoReq struct {
	FileName string
	File     io.Reader
	Username string
}

// UploadVideoRes usecase upload video response
type UploadVideoRes struct {
	Message  string
	VideoFid string
}

// DownloadMP3Res usecase download result, Content streams straight from the store
type DownloadMP3Res struct {
	Content  io.ReadCloser
	FileName string
	Length   int64
}

// Upload failure causes, the handler maps each to its HTTP body
var (
	//ErrStoreUpload storing the video failed, nothing was enqueued
	ErrStoreUpload = errors.New("Error Uploading to GridFS")
	//ErrQueuePublish publish failed after the video was stored, the store write was rolled back
	ErrQueuePublish = errors.New("Error publishing conversion request")
)
