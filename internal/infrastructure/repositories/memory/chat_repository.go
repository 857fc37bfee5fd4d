package memory

import (
	"context"
	"sync"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
)

const defaultChatRetention = 500

type MemoryChatRepository struct {
	messages  map[domain.SessionID][]*domain.ChatMessage
	retention int
	mu        sync.RWMutex
}

func NewMemoryChatRepository() ports.ChatRepository {
	return &MemoryChatRepository{
		messages:  make(map[domain.SessionID][]*domain.ChatMessage),
		retention: defaultChatRetention,
	}
}

func (r *MemoryChatRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *msg
	log := append(r.messages[msg.SessionID], &copied)
	if len(log) > r.retention {
		log = log[len(log)-r.retention:]
	}
	r.messages[msg.SessionID] = log
	return nil
}

func (r *MemoryChatRepository) Recent(ctx context.Context, sessionID domain.SessionID, limit int) ([]*domain.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	log := r.messages[sessionID]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}

	out := make([]*domain.ChatMessage, len(log))
	for i, msg := range log {
		copied := *msg
		out[i] = &copied
	}
	return out, nil
}

func (r *MemoryChatRepository) Purge(ctx context.Context, sessionID domain.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.messages, sessionID)
	return nil
}
