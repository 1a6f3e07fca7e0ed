package whatsapp

import "time"

// WebhookEvent is the top-level structure Meta delivers to the webhook.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is a single entry in the webhook payload.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps one value object per changed field.
type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// Value carries the inbound messages and the metadata identifying which
// business phone number they arrived on.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Messages         []Message `json:"messages"`
}

// Metadata identifies the receiving business phone number.
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Message is one inbound message from a correspondent.
type Message struct {
	From        string       `json:"from"`
	ID          string       `json:"id"`
	Timestamp   string       `json:"timestamp"`
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

// Text is the body of a plain text message.
type Text struct {
	Body string `json:"body"`
}

// Interactive carries a button-style reply.
type Interactive struct {
	Type        string       `json:"type"`
	ButtonReply *ButtonReply `json:"button_reply,omitempty"`
}

// ButtonReply identifies which reply button the correspondent tapped.
type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// InboundMessage is the normalized, strongly-typed result of parsing a
// webhook event. All downstream logic operates on this, never on the raw
// nested payload.
type InboundMessage struct {
	// PhoneNumberID routes the message to a tenant.
	PhoneNumberID string
	// From is the sender identity within the channel.
	From      string
	Text      string
	ButtonID  string
	MessageID string
	Timestamp time.Time
}

// sendRequest is the payload for outbound Graph API sends.
type sendRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *Text            `json:"text,omitempty"`
	Interactive      *sendInteractive `json:"interactive,omitempty"`
}

type sendInteractive struct {
	Type   string     `json:"type"`
	Body   sendBody   `json:"body"`
	Action sendAction `json:"action"`
}

type sendBody struct {
	Text string `json:"text"`
}

type sendAction struct {
	Buttons []sendButton `json:"buttons"`
}

type sendButton struct {
	Type  string      `json:"type"`
	Reply ReplyButton `json:"reply"`
}

// ReplyButton is one tappable (id, title) choice attached to a message.
type ReplyButton struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// sendResponse is the Graph API response for outbound sends.
type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}
