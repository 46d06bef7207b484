// Package chatapi is the client for the external chat-history storage API.
// The adapter pushes each completed exchange (the inbound question and the
// produced answer) and can fetch stored history; storage failures are
// reported to the caller but are never allowed to fail a turn.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// AgentMessageType tags answers produced by the agent in chat storage.
const AgentMessageType = "agent"

// TokenSource supplies an optional bearer credential for outbound calls.
// An empty token means unauthenticated requests.
type TokenSource interface {
	Token() string
}

// Message is one stored chat message.
type Message struct {
	ID        string `json:"id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Message   string `json:"message"`
	Type      string `json:"type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Client talks to the chat API.
type Client struct {
	httpc   *http.Client
	tokens  TokenSource
	logger  *slog.Logger
	baseURL string
}

// NewClient creates a chat API client. tokens may be nil.
func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		logger:  logger,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// BaseURL returns the configured chat API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// PushMessage stores one message.
func (c *Client) PushMessage(ctx context.Context, projectID, userID, message, messageType string) error {
	payload := map[string]string{
		"project_id": projectID,
		"user_id":    userID,
		"message":    message,
		"type":       messageType,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/add_message", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chat API push returned status %d", resp.StatusCode)
	}
	c.logger.Debug("pushed chat message", "project", projectID, "type", messageType)
	return nil
}

// FetchMessages retrieves stored history for a project.
func (c *Client) FetchMessages(ctx context.Context, projectID string, limit int) ([]Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/chat/get_messages", nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("project_id", projectID)
	q.Set("limit", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat API fetch returned status %d", resp.StatusCode)
	}

	var payload struct {
		Messages []Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Messages, nil
}

// MessageCount reports how many messages a project has stored.
func (c *Client) MessageCount(ctx context.Context, projectID string) (int, error) {
	messages, err := c.FetchMessages(ctx, projectID, 100)
	if err != nil {
		return 0, err
	}
	return len(messages), nil
}

// SaveExchange stores the question and its answer as a pair. The two pushes
// are independent; either failing fails the save.
func (c *Client) SaveExchange(ctx context.Context, conversationKey, actorID, question, answer, messageType string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.PushMessage(ctx, conversationKey, actorID, question, messageType)
	})
	g.Go(func() error {
		return c.PushMessage(ctx, conversationKey, actorID, answer, AgentMessageType)
	})
	return g.Wait()
}

// authorize attaches the bearer credential when one is available.
func (c *Client) authorize(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
