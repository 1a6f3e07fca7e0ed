package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"terminbot/internal/observability/metrics"
	"terminbot/internal/schedule"
	"terminbot/internal/tenant"
	"terminbot/internal/whatsapp"
	"terminbot/pkg/logging"
)

// Button ids advertised in the greeting menu.
const (
	ButtonBook   = "zakazi_termin"
	ButtonCancel = "otkazi_termin"
	ButtonCheck  = "proveri_termin"
)

// alternativeCount is how many replacement slots are offered when the
// requested one is taken.
const alternativeCount = 3

const (
	msgGreeting = "Dobar dan! Hvala sto ste se javili. Izaberite opciju ispod:"
	msgNotYet   = "Ova opcija jos uvek nije dostupna. Hvala na strpljenju!"
	msgAskWhen  = "Kada zelite termin? Napisite dan i vreme, npr. 'sutra u 14' ili 'petak u 16:30'."
	msgBadTime  = "Nisam uspeo da razumem datum i vreme. Pokusajte ponovo, npr. 'sutra u 14' ili 'cetvrtak u 10:30'."
	msgNoSlots  = "Nazalost, nema slobodnih termina blizu tog vremena. Predlozite drugo vreme."
	msgBadName  = "Molim vas napisite vase ime (najmanje 2 slova)."
)

var greetingButtons = []whatsapp.ReplyButton{
	{ID: ButtonBook, Title: "Zakazi termin"},
	{ID: ButtonCancel, Title: "Otkazi termin"},
	{ID: ButtonCheck, Title: "Proveri termin"},
}

// Reply is the outbound response a stage handler produces. Buttons, when
// present, turn the reply into a button-choice message.
type Reply struct {
	Text    string
	Buttons []whatsapp.ReplyButton
}

// Messenger sends replies to the correspondent. Both operations are addressed
// by routing key and recipient identity.
type Messenger interface {
	SendText(ctx context.Context, phoneNumberID, to, text string) error
	SendButtons(ctx context.Context, phoneNumberID, to, body string, buttons []whatsapp.ReplyButton) error
}

// CalendarService is the external calendar collaborator: the batched
// free/busy availability check and the final event creation.
type CalendarService interface {
	schedule.AvailabilityResolver
	CreateEvent(ctx context.Context, calendarID string, start, end time.Time, timezone, summary, description string) error
}

// BookingNotifier is told about every confirmed booking. Implementations are
// best effort; failures never affect the booking.
type BookingNotifier interface {
	BookingConfirmed(ctx context.Context, cfg *tenant.Config, name, service string, slot schedule.Slot)
}

// Machine advances one conversation per inbound message.
type Machine struct {
	store     SessionStore
	calendar  CalendarService
	messenger Messenger
	notifier  BookingNotifier
	metrics   *metrics.BotMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewMachine wires the state machine to its collaborators. notifier and
// botMetrics may be nil.
func NewMachine(store SessionStore, calendar CalendarService, messenger Messenger, notifier BookingNotifier, botMetrics *metrics.BotMetrics, logger *logging.Logger) *Machine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Machine{
		store:     store,
		calendar:  calendar,
		messenger: messenger,
		notifier:  notifier,
		metrics:   botMetrics,
		logger:    logger,
		now:       time.Now,
	}
}

// stageResult is what a stage handler decides: the session write to perform
// (next to replace, remove to end the conversation, neither to keep the
// session exactly as it was) and the reply to send.
type stageResult struct {
	next   *Session
	remove bool
	reply  Reply
}

// Advance runs one inbound message through the conversation. A returned error
// means a collaborator call failed: the session has not been touched and no
// reply was sent, so the sender can simply retry.
func (m *Machine) Advance(ctx context.Context, cfg *tenant.Config, msg whatsapp.InboundMessage) error {
	key := SessionKey(cfg.PhoneNumberID, msg.From)
	session, err := m.store.Get(ctx, key)
	if err != nil {
		return err
	}

	var result stageResult
	switch {
	case session == nil:
		result = m.handleNone(msg)
	case session.Stage == StageAwaitingDateTime:
		result, err = m.handleAwaitingDateTime(ctx, cfg, msg)
	case session.Stage == StageAwaitingName:
		result = m.handleAwaitingName(cfg, session, msg)
	case session.Stage == StageAwaitingService:
		result, err = m.handleAwaitingService(ctx, cfg, session, msg)
	default:
		m.logger.Warn("unknown conversation stage, resetting", "stage", session.Stage, "key", key)
		result = m.handleNone(msg)
	}
	if err != nil {
		return err
	}

	// Commit the transition, then reply. Reply failures are logged and never
	// surfaced: the conversation has already moved and the sender's next
	// message continues it.
	if result.remove {
		if err := m.store.Delete(ctx, key); err != nil {
			return err
		}
	} else if result.next != nil {
		if err := m.store.Set(ctx, key, result.next); err != nil {
			return err
		}
	}

	m.send(ctx, cfg.PhoneNumberID, msg.From, result.reply)
	return nil
}

func (m *Machine) send(ctx context.Context, phoneNumberID, to string, reply Reply) {
	var err error
	if len(reply.Buttons) > 0 {
		err = m.messenger.SendButtons(ctx, phoneNumberID, to, reply.Text, reply.Buttons)
	} else {
		err = m.messenger.SendText(ctx, phoneNumberID, to, reply.Text)
	}
	if err != nil {
		m.logger.Error("failed to send reply", "error", err, "to", to)
	}
}

// handleNone greets new correspondents and opens a booking conversation when
// asked. The cancel and check choices are advertised but not yet implemented.
func (m *Machine) handleNone(msg whatsapp.InboundMessage) stageResult {
	choice := msg.ButtonID
	if choice == "" {
		switch schedule.Normalize(msg.Text) {
		case "zakazi termin":
			choice = ButtonBook
		case "otkazi termin":
			choice = ButtonCancel
		case "proveri termin":
			choice = ButtonCheck
		}
	}

	switch choice {
	case ButtonBook:
		return stageResult{
			next:  &Session{Stage: StageAwaitingDateTime},
			reply: Reply{Text: msgAskWhen},
		}
	case ButtonCancel, ButtonCheck:
		return stageResult{reply: Reply{Text: msgNotYet}}
	default:
		return stageResult{reply: Reply{Text: msgGreeting, Buttons: greetingButtons}}
	}
}

func (m *Machine) handleAwaitingDateTime(ctx context.Context, cfg *tenant.Config, msg whatsapp.InboundMessage) (stageResult, error) {
	loc := cfg.Location()
	start, ok := schedule.Parse(msg.Text, loc, m.now())
	if !ok {
		return stageResult{reply: Reply{Text: msgBadTime}}, nil
	}
	end := start.Add(cfg.SlotDuration())

	// A slot is bookable only when it is inside working hours AND a calendar
	// is free; neither check alone is sufficient.
	if schedule.IsOpen(start, cfg.SlotDurationMinutes, cfg.WorkingHours) {
		calendarID, err := m.calendar.FindFreeCalendar(ctx, cfg.CalendarIDs, start, end)
		if err != nil {
			return stageResult{}, err
		}
		if calendarID != "" {
			return stageResult{
				next: &Session{
					Stage:      StageAwaitingName,
					CalendarID: calendarID,
					SlotStart:  start,
					SlotEnd:    end,
				},
				reply: Reply{Text: fmt.Sprintf("Termin %s je slobodan. Kako se zovete?", formatSlotTime(start, loc))},
			}, nil
		}
	}

	alternatives, err := schedule.FindAlternatives(ctx, m.calendar, cfg.SearchConfig(), start, alternativeCount)
	if err != nil {
		return stageResult{}, err
	}
	if len(alternatives) == 0 {
		return stageResult{reply: Reply{Text: msgNoSlots}}, nil
	}

	var b strings.Builder
	b.WriteString("Trazeni termin je zauzet. Slobodni su:\n")
	for _, slot := range alternatives {
		fmt.Fprintf(&b, "- %s\n", formatSlotTime(slot.Start, loc))
	}
	b.WriteString("Napisite koje vreme vam odgovara.")
	return stageResult{reply: Reply{Text: b.String()}}, nil
}

func (m *Machine) handleAwaitingName(cfg *tenant.Config, session *Session, msg whatsapp.InboundMessage) stageResult {
	name := strings.TrimSpace(msg.Text)
	if utf8.RuneCountInString(name) < 2 {
		return stageResult{reply: Reply{Text: msgBadName}}
	}

	next := *session
	next.Stage = StageAwaitingService
	next.CustomerName = name
	return stageResult{
		next:  &next,
		reply: Reply{Text: fmt.Sprintf("Hvala, %s! Koju uslugu zelite?\n%s", name, serviceList(cfg))},
	}
}

func (m *Machine) handleAwaitingService(ctx context.Context, cfg *tenant.Config, session *Session, msg whatsapp.InboundMessage) (stageResult, error) {
	service, ok := cfg.MatchService(msg.Text)
	if !ok {
		return stageResult{reply: Reply{Text: "Nisam pronasao tu uslugu. Izaberite jednu od:\n" + serviceList(cfg)}}, nil
	}

	summary := fmt.Sprintf("Termin: %s", session.CustomerName)
	description := fmt.Sprintf("Usluga: %s\nIme: %s\nWhatsApp: %s", service, session.CustomerName, msg.From)
	if err := m.calendar.CreateEvent(ctx, session.CalendarID, session.SlotStart, session.SlotEnd, cfg.Timezone, summary, description); err != nil {
		return stageResult{}, err
	}

	slot := schedule.Slot{Start: session.SlotStart, End: session.SlotEnd, CalendarID: session.CalendarID}
	m.logger.Info("booking confirmed",
		"tenant", cfg.PhoneNumberID,
		"calendar_id", slot.CalendarID,
		"start", slot.Start,
		"service", service,
	)
	m.metrics.ObserveBooking()
	if m.notifier != nil {
		m.notifier.BookingConfirmed(ctx, cfg, session.CustomerName, service, slot)
	}

	confirmation := fmt.Sprintf("Vas termin je zakazan!\nUsluga: %s\nVreme: %s\nVidimo se!",
		service, formatSlotTime(session.SlotStart, cfg.Location()))
	return stageResult{remove: true, reply: Reply{Text: confirmation}}, nil
}

func serviceList(cfg *tenant.Config) string {
	var b strings.Builder
	for _, svc := range cfg.Services {
		fmt.Fprintf(&b, "- %s\n", svc)
	}
	return strings.TrimRight(b.String(), "\n")
}

// weekdayNames are the Serbian output names, indexed by time.Weekday.
var weekdayNames = [7]string{"nedelja", "ponedeljak", "utorak", "sreda", "cetvrtak", "petak", "subota"}

// formatSlotTime renders an instant the way replies present it,
// e.g. "utorak 03.03. u 14:00".
func formatSlotTime(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return fmt.Sprintf("%s %02d.%02d. u %02d:%02d",
		weekdayNames[local.Weekday()], local.Day(), int(local.Month()), local.Hour(), local.Minute())
}
