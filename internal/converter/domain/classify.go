package domain

import (
	"errors"
	"strings"

	"video2mp3_service/pkg/database"
)

// Failure phrases that mark a message as unprocessable no matter how often
// it is redelivered. Kept in lockstep with the store and converter error
// texts, a regression test pins them.
const (
	permanentNotFound  = "not found"
	permanentInvalidID = "Invalid file ID"
)

// IsPermanentFailure report whether no retry can resolve the failure.
// The two store conditions are routed explicitly, everything else falls back
// to inspecting the message text so converter subprocess failures keep the
// same routing they had before.
func IsPermanentFailure(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, database.ErrFileNotFound) || errors.Is(err, database.ErrInvalidFileID) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, permanentNotFound) || strings.Contains(msg, permanentInvalidID)
}
