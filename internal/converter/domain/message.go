package domain

import (
	"encoding/json"
	"fmt"
)

const (
	//DefaultVideoQueue queue the gateway publishes conversion requests to
	DefaultVideoQueue = "video"
	//DefaultMP3Queue queue the worker publishes completion messages to
	DefaultMP3Queue = "mp3"
	//MaxRetries cumulative redeliveries before a transient failure is dead-lettered
	MaxRetries = 3
)

// ConversionMessage 定義一筆轉檔工作的佇列訊息.
// MP3Fid is null on the inbound request and set on the completion message.
type ConversionMessage struct {
	VideoFid string  `json:"video_fid"`
	MP3Fid   *string `json:"mp3_fid"`
	Username string  `json:"username"`
}

// ParseConversionMessage decode a queue body, missing fields are rejected
func ParseConversionMessage(body []byte) (ConversionMessage, error) {
	var msg ConversionMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return ConversionMessage{}, fmt.Errorf("Invalid JSON: %v", err)
	}

	if msg.VideoFid == "" {
		return ConversionMessage{}, fmt.Errorf("Missing required field: video_fid")
	}
	if msg.Username == "" {
		return ConversionMessage{}, fmt.Errorf("Missing required field: username")
	}

	return msg, nil
}

// WithMP3Fid derive the completion message, the original value is not mutated
func (m ConversionMessage) WithMP3Fid(mp3Fid string) ConversionMessage {
	return ConversionMessage{
		VideoFid: m.VideoFid,
		MP3Fid:   &mp3Fid,
		Username: m.Username,
	}
}

// ToJSON encode the message for publishing
func (m ConversionMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
