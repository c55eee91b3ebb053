package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.telegram.org/bot"
	timeout        = 10 * time.Second
)

// Bot API methods
const (
	MethodPinChatMessage   = "pinChatMessage"
	MethodUnpinChatMessage = "unpinChatMessage"
	MethodSendPoll         = "sendPoll"
	MethodStopPoll         = "stopPoll"
)

// Client represents a Telegram Bot API client
type Client struct {
	botToken   string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root. The token and method are
// appended to it, so it should end in "/bot".
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the default HTTP client (10s timeout).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Telegram client
func NewClient(botToken string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(botToken) == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	c := &Client{
		botToken: botToken,
		baseURL:  defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Response is the raw answer to a Bot API call.
type Response struct {
	Method     string
	StatusCode int
	Body       []byte
}

// MessageRef identifies an existing message in a chat.
type MessageRef struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
}

// Poll is the sendPoll request body.
type Poll struct {
	ChatID      string   `json:"chat_id"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	IsAnonymous bool     `json:"is_anonymous"`
	Type        string   `json:"type"`
}

// PinChatMessage pins a message in a chat
func (c *Client) PinChatMessage(ctx context.Context, ref MessageRef) (*Response, error) {
	return c.Call(ctx, MethodPinChatMessage, ref)
}

// UnpinChatMessage unpins a message in a chat
func (c *Client) UnpinChatMessage(ctx context.Context, ref MessageRef) (*Response, error) {
	return c.Call(ctx, MethodUnpinChatMessage, ref)
}

// SendPoll posts a new poll
func (c *Client) SendPoll(ctx context.Context, poll Poll) (*Response, error) {
	return c.Call(ctx, MethodSendPoll, poll)
}

// StopPoll closes a poll sent by the bot
func (c *Client) StopPoll(ctx context.Context, ref MessageRef) (*Response, error) {
	return c.Call(ctx, MethodStopPoll, ref)
}

// Call POSTs payload as JSON to the given Bot API method and returns the raw
// response whatever its status code.
func (c *Client) Call(ctx context.Context, method string, payload any) (*Response, error) {
	endpoint := fmt.Sprintf("%s%s/%s", c.baseURL, c.botToken, method)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", c.redact(err))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", c.redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return &Response{
		Method:     method,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// redact removes the bot token from URLs carried by transport errors.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, c.botToken, "<token>")
	}
	return err
}
