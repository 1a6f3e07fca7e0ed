// Package whatsapp implements the WhatsApp Cloud API boundary: outbound text
// and button sends, and webhook verification plus inbound payload parsing.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultGraphAPIBase = "https://graph.facebook.com/v20.0"
	defaultHTTPTimeout  = 10 * time.Second

	// maxReplyButtons is the Cloud API limit on reply buttons per message.
	maxReplyButtons = 3
)

// Client sends messages via the WhatsApp Cloud (Graph) API.
type Client struct {
	accessToken  string
	graphAPIBase string
	httpClient   *http.Client
}

// NewClient creates a Graph API client for the given access token.
func NewClient(accessToken string) *Client {
	return &Client{
		accessToken:  accessToken,
		graphAPIBase: defaultGraphAPIBase,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetGraphAPIBase overrides the Graph API base URL (useful for testing).
func (c *Client) SetGraphAPIBase(base string) {
	c.graphAPIBase = base
}

// SendText sends a plain text message from the given business number.
func (c *Client) SendText(ctx context.Context, phoneNumberID, to, text string) error {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &Text{Body: text},
	}
	return c.send(ctx, phoneNumberID, req)
}

// SendButtons sends a body with up to three (id, title) reply buttons.
func (c *Client) SendButtons(ctx context.Context, phoneNumberID, to, body string, buttons []ReplyButton) error {
	if len(buttons) > maxReplyButtons {
		buttons = buttons[:maxReplyButtons]
	}
	action := sendAction{Buttons: make([]sendButton, 0, len(buttons))}
	for _, b := range buttons {
		action.Buttons = append(action.Buttons, sendButton{Type: "reply", Reply: b})
	}
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &sendInteractive{
			Type:   "button",
			Body:   sendBody{Text: body},
			Action: action,
		},
	}
	return c.send(ctx, phoneNumberID, req)
}

func (c *Client) send(ctx context.Context, phoneNumberID string, req sendRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphAPIBase, phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("whatsapp: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("whatsapp: read response: %w", err)
	}

	var sendResp sendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return fmt.Errorf("whatsapp: unmarshal response: %w", err)
	}
	if sendResp.Error != nil {
		return fmt.Errorf("whatsapp: API error %d: %s", sendResp.Error.Code, sendResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whatsapp: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
