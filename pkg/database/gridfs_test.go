package database

import (
	"context"
	"errors"
	"testing"

	"video2mp3_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// id validation runs before any database access, these cases need no
// live MongoDB behind the store.

func TestParseFileID(t *testing.T) {
	for _, tt := range []struct {
		name  string
		id    string
		valid bool
	}{
		{"valid ObjectID hex", "65f1a2b3c4d5e6f708192a3b", true},
		{"empty", "", false},
		{"too short", "65f1a2b3", false},
		{"too long", "65f1a2b3c4d5e6f708192a3b00", false},
		{"uppercase hex rejected", "65F1A2B3C4D5E6F708192A3B", false},
		{"non-hex characters", "zzzzzzzzzzzzzzzzzzzzzzzz", false},
		{"path traversal attempt", "../../etc/passwd", false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFileID(tt.id)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFileID))
			}
		})
	}
}

func TestGetMalformedID(t *testing.T) {
	logger.SetNewNop()
	store := NewGridFSStore(nil)

	_, _, _, err := store.Get(context.Background(), "videos", "not-an-object-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFileID))
	// the exact phrase feeds the consumer's permanent-failure classification
	assert.Equal(t, "Invalid file ID format: not-an-object-id", err.Error())
}

func TestExistsMalformedIDIsFalse(t *testing.T) {
	logger.SetNewNop()
	store := NewGridFSStore(nil)

	assert.False(t, store.Exists(context.Background(), "videos", "short"))
}

func TestDeleteMalformedID(t *testing.T) {
	logger.SetNewNop()
	store := NewGridFSStore(nil)

	err := store.Delete(context.Background(), "mp3s", "short")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFileID))
}
