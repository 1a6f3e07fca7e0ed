package whatsapp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"terminbot/pkg/logging"
)

// WebhookHandler handles Meta webhook verification and inbound deliveries.
type WebhookHandler struct {
	verifyToken string
	logger      *logging.Logger
	onMessage   func(msg InboundMessage)
}

// NewWebhookHandler creates a webhook handler. onMessage is called for each
// parsed inbound message after the delivery has been acknowledged.
func NewWebhookHandler(verifyToken string, logger *logging.Logger, onMessage func(InboundMessage)) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		verifyToken: verifyToken,
		logger:      logger,
		onMessage:   onMessage,
	}
}

// HandleVerification handles the GET verification challenge from Meta.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	// An unconfigured verify token must never verify anything.
	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}

	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleInbound handles POST deliveries. The provider contract guarantees a
// success acknowledgment regardless of payload validity, so the 200 is
// written before any parsing; a malformed payload is logged and dropped.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)

	w.WriteHeader(http.StatusOK)

	if err != nil {
		h.logger.Warn("failed to read webhook body", "error", err)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("malformed webhook payload", "error", err)
		return
	}

	for _, msg := range ParseWebhookEvent(event) {
		if h.onMessage != nil {
			h.onMessage(msg)
		}
	}
}

// ParseWebhookEvent extracts typed InboundMessages from a webhook event.
// Entries without a sender, a routing key, or any usable content are skipped.
func ParseWebhookEvent(event WebhookEvent) []InboundMessage {
	var messages []InboundMessage

	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			phoneNumberID := change.Value.Metadata.PhoneNumberID
			for _, m := range change.Value.Messages {
				parsed := InboundMessage{
					PhoneNumberID: phoneNumberID,
					From:          m.From,
					MessageID:     m.ID,
					Timestamp:     parseUnixSeconds(m.Timestamp),
				}
				if m.Text != nil {
					parsed.Text = m.Text.Body
				}
				if m.Interactive != nil && m.Interactive.ButtonReply != nil {
					parsed.ButtonID = m.Interactive.ButtonReply.ID
					if parsed.Text == "" {
						parsed.Text = m.Interactive.ButtonReply.Title
					}
				}
				if parsed.Text == "" && parsed.ButtonID == "" {
					continue
				}
				messages = append(messages, parsed)
			}
		}
	}
	return messages
}

func parseUnixSeconds(v string) time.Time {
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
