package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"video2mp3_service/pkg/config"
	"video2mp3_service/pkg/logger"

	"github.com/google/uuid"
)

// ErrNoAudioTrack the probe found no audio stream in the container.
// The phrase is part of the retry contract, see domain.IsPermanentFailure.
var ErrNoAudioTrack = errors.New("Video file has no audio track")

// AudioConverter turns a video byte stream into an audio byte stream
type AudioConverter interface {
	ConvertToMP3(ctx context.Context, video []byte) ([]byte, error)
}

// FFmpegConverter invokes ffprobe/ffmpeg as external processes
type FFmpegConverter struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
	timeout     time.Duration
}

// NewFFmpegConverter create a converter from the validated config
func NewFFmpegConverter(cfg config.FFmpegConfig) *FFmpegConverter {
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &FFmpegConverter{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		tempDir:     tempDir,
		timeout:     cfg.Timeout(),
	}
}

// ConvertToMP3 寫入暫存檔、探測音軌、轉成 MP3 後讀回結果.
// Temp files are removed on success and failure alike.
func (f *FFmpegConverter) ConvertToMP3(ctx context.Context, video []byte) ([]byte, error) {
	videoPath := f.tempPath(".mp4")
	mp3Path := f.tempPath(".mp3")

	if err := os.WriteFile(videoPath, video, 0644); err != nil {
		return nil, fmt.Errorf("write temp video file: %w", err)
	}
	defer cleanupTempFile(videoPath)
	defer cleanupTempFile(mp3Path)

	if !f.hasAudioStream(ctx, videoPath) {
		return nil, ErrNoAudioTrack
	}

	if err := f.executeConversion(ctx, videoPath, mp3Path); err != nil {
		return nil, err
	}

	mp3, err := os.ReadFile(mp3Path)
	if err != nil {
		return nil, fmt.Errorf("read converted MP3 file: %w", err)
	}
	return mp3, nil
}

// hasAudioStream probe the first audio stream, a failed probe counts as no audio
func (f *FFmpegConverter) hasAudioStream(ctx context.Context, videoPath string) bool {
	cmd := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_type",
		"-of", "csv=p=0",
		videoPath,
	)
	output, _ := cmd.Output()
	return audioStreamPresent(string(output))
}

// audioStreamPresent ffprobe prints exactly "audio" when a stream exists
func audioStreamPresent(probeOutput string) bool {
	return strings.TrimSpace(probeOutput) == "audio"
}

// executeConversion run ffmpeg with a bounded execution timeout
func (f *FFmpegConverter) executeConversion(ctx context.Context, videoPath, mp3Path string) error {
	execCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, f.ffmpegPath,
		"-i", videoPath,
		"-vn", // no video
		"-acodec", "libmp3lame",
		"-ab", "192k",
		"-ar", "44100",
		"-y", // overwrite output
		mp3Path,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("FFmpeg conversion failed: %v, output: %s", err, string(output))
	}
	return nil
}

func (f *FFmpegConverter) tempPath(extension string) string {
	return filepath.Join(f.tempDir, fmt.Sprintf("converter_%s%s", uuid.NewString(), extension))
}

func cleanupTempFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		logger.Log.Warn(fmt.Sprintf("清理暫存檔案失敗 [%s]: %v", path, err))
	}
}
