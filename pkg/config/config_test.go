package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueConfigDefaults(t *testing.T) {
	var q QueueConfig
	q.Validate()
	assert.Equal(t, "video", q.Video)
	assert.Equal(t, "mp3", q.MP3)
	assert.Equal(t, 1, q.Prefetch)

	// explicit values survive validation
	q = QueueConfig{Video: "in", MP3: "out", Prefetch: 4}
	q.Validate()
	assert.Equal(t, "in", q.Video)
	assert.Equal(t, "out", q.MP3)
	assert.Equal(t, 4, q.Prefetch)
}

func TestBucketConfigDefaults(t *testing.T) {
	var b BucketConfig
	b.Validate()
	assert.Equal(t, "videos", b.Videos)
	assert.Equal(t, "mp3s", b.MP3s)
}

func TestFFmpegConfigDefaults(t *testing.T) {
	var f FFmpegConfig
	f.Validate()
	assert.Equal(t, "ffmpeg", f.FFmpegPath)
	assert.Equal(t, "ffprobe", f.FFprobePath)
	assert.Equal(t, 600*time.Second, f.Timeout())
}

func TestLoadConfigExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_RABBITMQ_IP", "rabbitmq.internal")
	t.Setenv("TEST_RABBITMQ_PASSWORD", "s3cret")

	yaml := `
rabbitmq:
  ip: ${TEST_RABBITMQ_IP}
  port: "5672"
  user: guest
  password: ${TEST_RABBITMQ_PASSWORD}
queues:
  video: video
  mp3: mp3
  prefetch: 1
buckets:
  videos: videos
  mp3s: mp3s
ffmpeg:
  timeout_sec: 600
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "converter_service.yaml"), []byte(yaml), 0644))

	cfg := LoadConfig[Converter]("converter_service", dir)
	assert.Equal(t, "rabbitmq.internal", cfg.RabbitMQ.IP)
	assert.Equal(t, "s3cret", cfg.RabbitMQ.Password)
	assert.Equal(t, "5672", cfg.RabbitMQ.Port)
	assert.Equal(t, 1, cfg.Queues.Prefetch)
	assert.Equal(t, 600, cfg.FFmpeg.TimeoutSec)
}

func TestGetPath(t *testing.T) {
	t.Run("finds file in current directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "probe.yaml"), []byte("x"), 0644))

		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { os.Chdir(wd) })

		path, err := GetPath("probe.yaml", 3)
		require.NoError(t, err)
		assert.Equal(t, "./probe.yaml", path)
	})

	t.Run("errors when the file is absent", func(t *testing.T) {
		_, err := GetPath("definitely-not-here.yaml", 2)
		assert.Error(t, err)
	})
}
