package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"pos_tracker_backend/internal/models"
)

type memoryDraft struct {
	data      []byte
	expiresAt time.Time
}

// MemoryDraftStore keeps drafts in process. Drafts are stored encoded so
// callers never share a pointer with the store.
type MemoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string]memoryDraft
	ttl    time.Duration
}

func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string]memoryDraft), ttl: ttl}
}

func (s *MemoryDraftStore) Load(_ context.Context, sessionID string) (*models.RegistrationDraft, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	entry, ok := s.drafts[draftKey(sessionID)]
	if ok && s.ttl > 0 && time.Now().After(entry.expiresAt) {
		delete(s.drafts, draftKey(sessionID))
		ok = false
	}
	s.mu.Unlock()

	draft := &models.RegistrationDraft{}
	if !ok {
		return draft, nil
	}
	if err := json.Unmarshal(entry.data, draft); err != nil {
		return nil, fmt.Errorf("decoding registration draft: %w", err)
	}
	return draft, nil
}

func (s *MemoryDraftStore) Save(_ context.Context, sessionID string, draft *models.RegistrationDraft) error {
	if sessionID == "" {
		return ErrNoSession
	}
	draft.UpdatedAt = time.Now()
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encoding registration draft: %w", err)
	}
	s.mu.Lock()
	s.drafts[draftKey(sessionID)] = memoryDraft{data: data, expiresAt: draft.UpdatedAt.Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryDraftStore) Clear(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	s.mu.Lock()
	delete(s.drafts, draftKey(sessionID))
	s.mu.Unlock()
	return nil
}
