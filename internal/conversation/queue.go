package conversation

import (
	"context"

	"github.com/google/uuid"

	"terminbot/internal/whatsapp"
	"terminbot/pkg/logging"
)

// queueItem wraps an inbound message with a job id for log correlation.
type queueItem struct {
	ID  string
	Msg whatsapp.InboundMessage
}

// Queue hands parsed inbound messages from the webhook to the single worker.
// The webhook acknowledges deliveries before enqueueing, so processing is
// asynchronous but conversations all run on one logical worker, interleaving
// only around outbound network calls.
type Queue struct {
	ch chan queueItem
}

// NewQueue creates a queue with the given buffer capacity.
func NewQueue(buffer int) *Queue {
	if buffer <= 0 {
		buffer = 128
	}
	return &Queue{ch: make(chan queueItem, buffer)}
}

// TryEnqueue adds a message without blocking. It reports false when the
// buffer is full; the caller drops the message and logs.
func (q *Queue) TryEnqueue(msg whatsapp.InboundMessage) bool {
	item := queueItem{ID: uuid.NewString(), Msg: msg}
	select {
	case q.ch <- item:
		return true
	default:
		return false
	}
}

// Run drains the queue until ctx is done, processing one message at a time
// through the orchestrator.
func (q *Queue) Run(ctx context.Context, orchestrator *Orchestrator, logger *logging.Logger) {
	if logger == nil {
		logger = logging.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-q.ch:
			logger.Debug("processing inbound message", "job_id", item.ID, "from", item.Msg.From)
			orchestrator.HandleMessage(ctx, item.Msg)
		}
	}
}
