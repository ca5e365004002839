package whapi

// WHATSAPP GATEWAY CLIENT

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries uint64
	logger     *zap.Logger
}

// Message is one inbound message as the gateway reports it.
type Message struct {
	ChatID    string `json:"chat_id"`
	From      string `json:"from"`
	FromMe    bool   `json:"from_me"`
	Text      *Text  `json:"text,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type Text struct {
	Body string `json:"body"`
}

type listResponse struct {
	Messages []Message `json:"messages"`
}

type sendRequest struct {
	TypingTime int    `json:"typing_time"`
	To         string `json:"to"`
	Body       string `json:"body"`
}

func NewClient(baseURL, token string, timeout time.Duration, maxRetries uint64, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// ListMessages fetches up to 100 messages with timestamp >= since.
// The gateway returns them newest-first.
func (c *Client) ListMessages(ctx context.Context, since int64) ([]Message, error) {
	url := fmt.Sprintf("%s/messages/list?count=100&time_from=%d", c.baseURL, since)

	var result listResponse
	err := c.doWithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		result = listResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return result.Messages, nil
}

// SendText delivers a plain text message to a user.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(sendRequest{
		TypingTime: 0,
		To:         to,
		Body:       body,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/messages/text", c.baseURL)

	err = c.doWithRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("send text: %w", err)
	}

	return nil
}

func (c *Client) doWithRetry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), c.maxRetries),
		ctx,
	)

	return backoff.RetryNotify(op, policy, func(err error, d time.Duration) {
		c.logger.Warn("Gateway request failed, retrying...",
			zap.Error(err),
			zap.Duration("next_attempt_in", d))
	})
}
