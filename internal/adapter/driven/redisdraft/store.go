// Package redisdraft implements the DraftStore port on Redis. The draft lives
// under one well-known key with a native TTL, so expiry needs no read-time
// bookkeeping beyond the location match.
package redisdraft

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ericfisherdev/threadkit/internal/domain/model"
	"github.com/ericfisherdev/threadkit/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DraftStore = (*Store)(nil)

const draftKey = "threadkit:pending_draft"

// draftJSON is the stored representation of a pending submission.
type draftJSON struct {
	PostID    string  `json:"post_id"`
	ParentID  *string `json:"parent_comment_id"`
	Content   string  `json:"content"`
	CreatedAt int64   `json:"created_at_millis"`
}

// Store is the Redis implementation of the DraftStore port.
type Store struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

// New connects to Redis at the given URL and verifies the connection.
func New(redisURL string, log *slog.Logger) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewWithClient(client, log), nil
}

// NewWithClient creates a Store from an existing Redis client.
func NewWithClient(client *redis.Client, log *slog.Logger) *Store {
	return &Store{client: client, log: log, ttl: model.DraftTTL}
}

// Stash persists the draft under the well-known key, overwriting any prior
// entry and arming the TTL.
func (s *Store) Stash(ctx context.Context, draft model.PendingSubmission) error {
	data, err := json.Marshal(draftJSON{
		PostID:    draft.PostID,
		ParentID:  draft.ParentID,
		Content:   draft.Content,
		CreatedAt: draft.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	if err := s.client.Set(ctx, draftKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("stash draft: %w", err)
	}
	return nil
}

// Consume reads and clears the stashed draft, returning it only on a location
// match. Expiry is Redis's job; a vanished key simply means nothing pending.
func (s *Store) Consume(ctx context.Context, postID string, parentID *string) (*model.PendingSubmission, error) {
	data, err := s.client.Get(ctx, draftKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		// Fail open: an unreachable stash reads as nothing pending.
		s.log.Warn("reading pending draft failed, discarding", "error", err)
		return nil, nil
	}

	if err := s.Clear(ctx); err != nil {
		return nil, err
	}

	var stored draftJSON
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		// Fail open: an undecodable stash is treated as nothing pending.
		s.log.Warn("undecodable pending draft, discarding", "error", err)
		return nil, nil
	}

	draft := model.PendingSubmission{
		PostID:    stored.PostID,
		ParentID:  stored.ParentID,
		Content:   stored.Content,
		CreatedAt: stored.CreatedAt,
	}
	if !draft.Matches(postID, parentID) {
		s.log.Info("pending draft targets another compose location, discarding",
			"draft_post_id", draft.PostID,
			"post_id", postID,
		)
		return nil, nil
	}

	return &draft, nil
}

// Clear drops any stashed draft.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, draftKey).Err(); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
