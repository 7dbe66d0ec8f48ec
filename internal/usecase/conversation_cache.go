package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"lucid/internal/domain"
	"lucid/internal/ports"
)

// activeConversation is the slice of the orchestrator the cache needs when a
// deletion hits the active conversation.
type activeConversation interface {
	ActiveConversationID() string
	Reset()
}

// ConversationListCache holds the local list of conversation summaries for
// the selection sidebar.
type ConversationListCache struct {
	store  ports.ConversationStore
	active activeConversation
	events ports.EventSink
	log    *zap.Logger

	mu        sync.Mutex
	summaries []domain.Conversation
}

func NewConversationListCache(store ports.ConversationStore, active activeConversation, events ports.EventSink, log *zap.Logger) *ConversationListCache {
	return &ConversationListCache{store: store, active: active, events: events, log: log}
}

// Refresh repopulates the summary list from the remote store.
func (c *ConversationListCache) Refresh(ctx context.Context) ([]domain.Conversation, error) {
	summaries, err := c.store.ListConversations(ctx)
	if err != nil {
		c.log.Error("list conversations failed", zap.Error(err))
		c.events.ClientError(domain.ErrorCodeSync, err.Error())
		return nil, err
	}

	c.mu.Lock()
	c.summaries = summaries
	c.mu.Unlock()
	return c.Summaries(), nil
}

// Remove deletes a conversation remotely and drops it from the local list.
// When the removed conversation was active, the orchestrator is reset to a
// fresh, unsaved conversation.
func (c *ConversationListCache) Remove(ctx context.Context, id string) error {
	if err := c.store.DeleteConversation(ctx, id); err != nil {
		c.log.Error("delete conversation failed", zap.String("conversation_id", id), zap.Error(err))
		c.events.ClientError(domain.ErrorCodeSync, err.Error())
		return err
	}

	c.mu.Lock()
	kept := c.summaries[:0]
	for _, summary := range c.summaries {
		if summary.ID != id {
			kept = append(kept, summary)
		}
	}
	c.summaries = kept
	c.mu.Unlock()

	if c.active.ActiveConversationID() == id {
		c.active.Reset()
	}
	return nil
}

// Summaries returns a snapshot of the cached summary list.
func (c *ConversationListCache) Summaries() []domain.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Conversation, len(c.summaries))
	copy(out, c.summaries)
	return out
}
