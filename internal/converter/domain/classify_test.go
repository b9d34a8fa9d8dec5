package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"video2mp3_service/internal/converter/domain"
	"video2mp3_service/pkg/database"

	"github.com/stretchr/testify/assert"
)

// The converter routes dead-letter vs requeue off these exact phrases, so a
// rewording in the store or ffmpeg wrapper would silently turn a permanent
// failure into an endlessly retried one. Pin them here.
func TestIsPermanentFailureStrings(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"store not found sentinel", database.ErrFileNotFound, true},
		{"store invalid id sentinel", database.ErrInvalidFileID, true},
		{"wrapped not found", fmt.Errorf("下載原始影片失敗: %w", fmt.Errorf("%w: 65f1a2b3c4d5e6f708192a3b", database.ErrFileNotFound)), true},
		{"wrapped invalid id", fmt.Errorf("%w format: zzz", database.ErrInvalidFileID), true},
		{"free-text not found", errors.New("Video file not found: 65f1a2b3c4d5e6f708192a3b"), true},
		{"free-text invalid id", errors.New("Invalid file ID format: zzz"), true},
		{"no audio track is transient", errors.New("Video file has no audio track"), false},
		{"ffmpeg failure is transient", errors.New("FFmpeg conversion failed: exit status 1"), false},
		{"network failure is transient", errors.New("connection reset by peer"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.permanent, domain.IsPermanentFailure(tt.err))
		})
	}
}
