package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/letsdance/academy-api/pkg/config"
)

const sendEndpoint = "/v3/smtp/email"

// Message describes a single transactional email.
type Message struct {
	To          string
	Subject     string
	HTMLContent string
	TextContent string
}

// Client sends transactional emails through the Brevo HTTP API.
type Client struct {
	apiKey      string
	senderEmail string
	senderName  string
	baseURL     string
	http        *http.Client
}

// New builds a Brevo client from configuration.
func New(cfg config.MailerConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.brevo.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:      cfg.APIKey,
		senderEmail: cfg.SenderEmail,
		senderName:  cfg.SenderName,
		baseURL:     baseURL,
		http:        &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	Sender      sendParty   `json:"sender"`
	To          []sendParty `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
	TextContent string      `json:"textContent"`
}

type sendParty struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Send delivers a single message. The caller decides whether a failure is
// fatal; this client never retries.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.apiKey == "" {
		return fmt.Errorf("mailer: api key is not configured")
	}

	payload := sendRequest{
		Sender:      sendParty{Email: c.senderEmail, Name: c.senderName},
		To:          []sendParty{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLContent,
		TextContent: msg.TextContent,
	}
	if payload.TextContent == "" {
		payload.TextContent = msg.Subject
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mailer: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailer: build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mailer: brevo responded %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
