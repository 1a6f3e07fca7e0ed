package conversation

import (
	"context"

	"terminbot/internal/observability/metrics"
	"terminbot/internal/tenant"
	"terminbot/internal/whatsapp"
	"terminbot/pkg/logging"
)

// Orchestrator is the sole entry point for inbound messages. It resolves the
// tenant, enforces the drop rules and the rate limit, and hands accepted
// messages to the state machine.
type Orchestrator struct {
	tenants *tenant.Registry
	machine *Machine
	limiter Limiter
	metrics *metrics.BotMetrics
	logger  *logging.Logger
}

// NewOrchestrator wires the orchestrator. botMetrics may be nil.
func NewOrchestrator(tenants *tenant.Registry, machine *Machine, limiter Limiter, botMetrics *metrics.BotMetrics, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		tenants: tenants,
		machine: machine,
		limiter: limiter,
		metrics: botMetrics,
		logger:  logger,
	}
}

// HandleMessage processes one inbound message. Malformed or unroutable
// messages are dropped silently (logged only); collaborator failures are
// caught here, logged in full, and leave the conversation untouched so the
// sender can retry with another message.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg whatsapp.InboundMessage) {
	kind := "text"
	if msg.ButtonID != "" {
		kind = "button"
	}
	o.metrics.ObserveInbound(kind)

	if msg.PhoneNumberID == "" || msg.From == "" {
		o.metrics.ObserveDrop("incomplete")
		o.logger.Warn("dropping message without routing key or sender",
			"phone_number_id", msg.PhoneNumberID, "has_sender", msg.From != "")
		return
	}
	if msg.Text == "" && msg.ButtonID == "" {
		o.metrics.ObserveDrop("empty")
		o.logger.Warn("dropping message without text or choice", "from", msg.From)
		return
	}

	cfg, ok := o.tenants.ByRoutingKey(msg.PhoneNumberID)
	if !ok {
		o.metrics.ObserveDrop("unknown_tenant")
		o.logger.Warn("dropping message for unknown routing key", "phone_number_id", msg.PhoneNumberID)
		return
	}

	if !o.limiter.Allow(ctx, msg.From) {
		o.metrics.ObserveDrop("rate_limited")
		o.logger.Info("rate limited", "from", msg.From)
		return
	}

	if err := o.machine.Advance(ctx, cfg, msg); err != nil {
		o.metrics.ObserveDrop("collaborator_error")
		o.logger.Error("message processing failed, conversation state unchanged",
			"error", err,
			"phone_number_id", msg.PhoneNumberID,
			"from", msg.From,
		)
	}
}
