package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pos_tracker_backend/internal/models"
)

// RedisDraftStore persists drafts as JSON with a sliding TTL.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl}
}

func (s *RedisDraftStore) Load(ctx context.Context, sessionID string) (*models.RegistrationDraft, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	data, err := s.client.Get(ctx, draftKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &models.RegistrationDraft{}, nil
		}
		return nil, fmt.Errorf("loading registration draft: %w", err)
	}
	draft := &models.RegistrationDraft{}
	if err := json.Unmarshal(data, draft); err != nil {
		return nil, fmt.Errorf("decoding registration draft: %w", err)
	}
	return draft, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, sessionID string, draft *models.RegistrationDraft) error {
	if sessionID == "" {
		return ErrNoSession
	}
	draft.UpdatedAt = time.Now()
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encoding registration draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving registration draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	if err := s.client.Del(ctx, draftKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clearing registration draft: %w", err)
	}
	return nil
}
