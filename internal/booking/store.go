package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FlowStore persists flow state between conversation turns.
type FlowStore interface {
	Load(ctx context.Context, workspaceID, conversationID string) (FlowState, bool, error)
	Save(ctx context.Context, fs FlowState) error
	Delete(ctx context.Context, workspaceID, conversationID string) error
}

// RedisStore keeps flow state in redis with a TTL; an abandoned slot offer
// expires on its own instead of living forever.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

const defaultFlowTTL = 30 * time.Minute

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client, TTL: defaultFlowTTL}
}

func flowKey(workspaceID, conversationID string) string {
	return fmt.Sprintf("booking:flow:%s:%s", workspaceID, conversationID)
}

func (s *RedisStore) Load(ctx context.Context, workspaceID, conversationID string) (FlowState, bool, error) {
	raw, err := s.Client.Get(ctx, flowKey(workspaceID, conversationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return FlowState{}, false, nil
		}
		return FlowState{}, false, err
	}
	var fs FlowState
	if err := json.Unmarshal(raw, &fs); err != nil {
		return FlowState{}, false, err
	}
	return fs, true, nil
}

func (s *RedisStore) Save(ctx context.Context, fs FlowState) error {
	raw, err := json.Marshal(fs)
	if err != nil {
		return err
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = defaultFlowTTL
	}
	return s.Client.Set(ctx, flowKey(fs.WorkspaceID, fs.ConversationID), raw, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, workspaceID, conversationID string) error {
	return s.Client.Del(ctx, flowKey(workspaceID, conversationID)).Err()
}
