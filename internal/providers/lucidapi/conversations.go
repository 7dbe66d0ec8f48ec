package lucidapi

import (
	"context"
	"net/http"
	"net/url"

	"lucid/internal/domain"
)

type createConversationRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

type startConversationRequest struct {
	FirstMessage string `json:"first_message"`
}

type createMessageRequest struct {
	ConversationID string      `json:"conversation_id"`
	Role           domain.Role `json:"role"`
	Content        string      `json:"content"`
}

// ListConversations returns the conversation summaries for the current user.
func (c *Client) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var out []domain.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConversation returns one conversation with its ordered messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*domain.ConversationWithMessages, error) {
	var out domain.ConversationWithMessages
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConversation creates an empty conversation with an explicit title.
func (c *Client) CreateConversation(ctx context.Context, title string) (*domain.Conversation, error) {
	var out domain.Conversation
	body := createConversationRequest{UserID: c.cfg.UserID, Title: title}
	if err := c.doJSON(ctx, http.MethodPost, "/api/conversations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartConversation atomically creates a conversation and appends its first
// user message. The returned message ids are server-authoritative.
func (c *Client) StartConversation(ctx context.Context, firstMessage string) (*domain.ConversationWithMessages, error) {
	var out domain.ConversationWithMessages
	body := startConversationRequest{FirstMessage: firstMessage}
	if err := c.doJSON(ctx, http.MethodPost, "/api/conversations/start", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddMessage appends one message to an existing conversation.
func (c *Client) AddMessage(ctx context.Context, conversationID string, role domain.Role, content string) (*domain.Message, error) {
	var out domain.Message
	body := createMessageRequest{ConversationID: conversationID, Role: role, Content: content}
	path := "/api/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/conversations/"+url.PathEscape(id), nil, nil)
}
