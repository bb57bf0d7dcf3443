package booking

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory FlowStore for tests.
type MemoryStore struct {
	mu    sync.Mutex
	flows map[string]FlowState

	SaveErr error
	LoadErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flows: map[string]FlowState{}}
}

func (s *MemoryStore) Load(ctx context.Context, workspaceID, conversationID string) (FlowState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return FlowState{}, false, s.LoadErr
	}
	fs, ok := s.flows[flowKey(workspaceID, conversationID)]
	return fs, ok, nil
}

func (s *MemoryStore) Save(ctx context.Context, fs FlowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.flows[flowKey(fs.WorkspaceID, fs.ConversationID)] = fs
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, workspaceID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, flowKey(workspaceID, conversationID))
	return nil
}
