package session

import (
	"context"
	"errors"

	"pos_tracker_backend/internal/models"
)

// ErrNoSession is returned when a caller has no session id to scope state to.
var ErrNoSession = errors.New("no session id")

// DraftStore keeps one registration draft per authenticated session.
// Concurrent writers for the same session are last-writer-wins.
type DraftStore interface {
	// Load returns an empty draft when nothing is stored for the session.
	Load(ctx context.Context, sessionID string) (*models.RegistrationDraft, error)
	Save(ctx context.Context, sessionID string, draft *models.RegistrationDraft) error
	Clear(ctx context.Context, sessionID string) error
}

func draftKey(sessionID string) string {
	return "wizard:" + sessionID
}
