package bot

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/pathakanu/careMemo/internal/app"
	"github.com/pathakanu/careMemo/internal/model"
	myopenai "github.com/pathakanu/careMemo/internal/openai"
	"github.com/pathakanu/careMemo/internal/store"
	"github.com/pathakanu/careMemo/internal/twilio"
)

// Bot lets the reminder list be managed over WhatsApp.
type Bot struct {
	app    *app.App
	openAI *myopenai.Client
	owner  string
	state  *conversationStore
	logger *log.Logger
}

// New creates a Bot. When owner is set, messages from other numbers are refused.
func New(reminders *app.App, openAI *myopenai.Client, owner string, logger *log.Logger) *Bot {
	return &Bot{
		app:    reminders,
		openAI: openAI,
		owner:  twilio.NormalizeAddress(owner),
		state:  newConversationStore(),
		logger: logger,
	}
}

// Handler returns the HTTP handler for incoming Twilio messages.
func (b *Bot) Handler() http.HandlerFunc {
	return b.handleIncomingMessage
}

// handleIncomingMessage processes Twilio webhook POST requests.
func (b *Bot) handleIncomingMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		b.logger.Printf("webhook: parse error: %v", err)
		b.writeTwilioResponse(w, "Sorry, I couldn't understand that request.")
		return
	}

	from := r.FormValue("From")
	body := strings.TrimSpace(r.FormValue("Body"))
	if from == "" || body == "" {
		b.writeTwilioResponse(w, "I need a message to work with. Please try again.")
		return
	}

	userID := twilio.NormalizeAddress(from)
	if b.owner != "" && userID != b.owner {
		b.logger.Printf("webhook: ignoring message from %s", userID)
		b.writeTwilioResponse(w, "Sorry, this reminder list is private.")
		return
	}

	if id, ok := b.state.PopPendingEdit(userID); ok {
		b.writeTwilioResponse(w, b.finishEdit(r.Context(), id, body))
		return
	}

	b.writeTwilioResponse(w, b.reply(r.Context(), userID, body))
}

func (b *Bot) reply(ctx context.Context, userID, body string) string {
	cmd := parseCommand(body)
	if cmd.intent == myopenai.IntentUnknown {
		cmd.intent = b.classify(ctx, body)
	}

	switch cmd.intent {
	case myopenai.IntentListReminders:
		return b.listReminders()
	case myopenai.IntentAddReminder:
		if cmd.candidate == nil {
			return "To add a reminder send e.g. 'add 09:30 medication take aspirin'."
		}
		return b.addReminder(ctx, *cmd.candidate)
	case myopenai.IntentEditReminder:
		if cmd.id == "" {
			return "Tell me which reminder to edit, e.g. 'edit 1704096000000'."
		}
		return b.startEdit(userID, cmd.id)
	case myopenai.IntentDeleteReminder:
		if cmd.id == "" {
			return "Tell me which reminder to delete, e.g. 'delete 1704096000000'."
		}
		return b.deleteReminder(ctx, cmd.id)
	case intentTest:
		return b.simulate(cmd.id)
	case myopenai.IntentHelp:
		return helpResponse()
	default:
		return "Sorry, I didn't get that. Send 'help' to see what I can do."
	}
}

func (b *Bot) classify(ctx context.Context, message string) myopenai.Intent {
	if b.openAI == nil {
		return myopenai.IntentUnknown
	}
	intent, err := b.openAI.ClassifyIntent(ctx, message)
	if err != nil {
		if !errors.Is(err, myopenai.ErrClientNotInitialised) {
			b.logger.Printf("intent classification error: %v", err)
		}
		return myopenai.IntentUnknown
	}
	return intent
}

// addReminder stores the reminder, guessing the type from the text when none was given.
func (b *Bot) addReminder(ctx context.Context, c model.Candidate) string {
	if c.Type == "" && b.openAI != nil && b.openAI.Enabled() {
		kind, err := b.openAI.ClassifyType(ctx, c.Text)
		if err != nil {
			b.logger.Printf("type classification error: %v", err)
		} else {
			c.Type = kind
		}
	}

	out, err := b.app.Add(ctx, c)
	if err != nil {
		if errors.Is(err, model.ErrInvalidTime) {
			return "Times look like 09:30 or 18:05. Please try again."
		}
		if errors.Is(err, store.ErrInvalidInput) {
			return "I need both a time and some text for the reminder."
		}
		b.logger.Printf("add reminder: %v", err)
		return "I couldn't save the reminder. Please try again."
	}
	return fmt.Sprintf("%s: %s at %s (%s, id %s).", out.Message, out.Reminder.Text, out.Reminder.Time, out.Reminder.Type, out.Reminder.ID)
}

// listReminders returns a human-readable list of reminders.
func (b *Bot) listReminders() string {
	reminders := b.app.Reminders()
	if len(reminders) == 0 {
		return "You have no reminders yet. Send me one to get started!"
	}

	var sb strings.Builder
	sb.WriteString("Here are your reminders:\n")
	for i, r := range reminders {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s %s (id %s)\n", i+1, r.Type, r.Time, r.Text, r.ID))
	}
	return sb.String()
}

func (b *Bot) startEdit(userID, id string) string {
	prompt, err := b.app.EditPrompt(id)
	if err != nil {
		return "I couldn't find that reminder."
	}
	b.state.SetPendingEdit(userID, id)
	return fmt.Sprintf("%s %s\ntime=%s; text=%s; type=%s\nReply with the fields to change (e.g. 'time=10:00; type=general') or 'cancel'.",
		prompt.Header, prompt.ReminderID, prompt.Time, prompt.Text, prompt.Type)
}

func (b *Bot) finishEdit(ctx context.Context, id, body string) string {
	confirmer := app.ConfirmFunc(func(context.Context, app.Prompt) (model.Patch, bool, error) {
		if strings.EqualFold(strings.TrimSpace(body), "cancel") {
			return model.Patch{}, false, nil
		}
		patch, err := parsePatch(body)
		return patch, err == nil, err
	})

	out, applied, err := b.app.Edit(ctx, id, confirmer)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "That reminder no longer exists."
	case errors.Is(err, errEmptyPatch), errors.Is(err, errPatchSyntax):
		return "I couldn't read those changes, so nothing was edited. Use e.g. 'time=10:00; text=call mom'."
	case errors.Is(err, model.ErrInvalidTime), errors.Is(err, model.ErrUnknownType):
		return fmt.Sprintf("Nothing was edited: %v.", err)
	case err != nil:
		b.logger.Printf("edit reminder: %v", err)
		return "I couldn't update the reminder. Please try again."
	case !applied:
		return "Edit cancelled."
	}
	return fmt.Sprintf("%s: %s at %s (%s).", out.Message, out.Reminder.Text, out.Reminder.Time, out.Reminder.Type)
}

// deleteReminder removes one reminder by id.
func (b *Bot) deleteReminder(ctx context.Context, id string) string {
	removed, err := b.app.Delete(ctx, id)
	if err != nil {
		b.logger.Printf("delete reminder: %v", err)
		return "I couldn't delete the reminder. Please try again later."
	}
	if !removed {
		return "I couldn't find that reminder."
	}
	return app.MsgDeleted + "."
}

func (b *Bot) simulate(id string) string {
	header, message, err := b.app.Simulate(id)
	if err != nil {
		return "I couldn't find that reminder."
	}
	return fmt.Sprintf("%s\n%s", header, message)
}

func (b *Bot) writeTwilioResponse(w http.ResponseWriter, message string) {
	twiml := struct {
		XMLName xml.Name `xml:"Response"`
		Message string   `xml:"Message"`
	}{
		Message: message,
	}

	w.Header().Set("Content-Type", "application/xml")
	if err := xml.NewEncoder(w).Encode(twiml); err != nil {
		b.logger.Printf("twilio response encode: %v", err)
	}
}

func helpResponse() string {
	return "You can say things like:\n- \"add 09:30 medication take aspirin\" to add a reminder\n- \"list\" to see everything saved\n- \"edit <id>\" to change one\n- \"delete <id>\" to remove one\n- \"test <id>\" to preview its notification"
}

type conversationStore struct {
	mu    sync.RWMutex
	state map[string]conversationState
}

type conversationState struct {
	AwaitingEdit bool
	ReminderID   string
}

func newConversationStore() *conversationStore {
	return &conversationStore{
		state: make(map[string]conversationState),
	}
}

func (c *conversationStore) SetPendingEdit(userID, reminderID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[userID] = conversationState{
		AwaitingEdit: true,
		ReminderID:   reminderID,
	}
}

func (c *conversationStore) PopPendingEdit(userID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.state[userID]
	if !ok || !state.AwaitingEdit {
		return "", false
	}
	delete(c.state, userID)
	return state.ReminderID, true
}

func (c *conversationStore) IsAwaitingEdit(userID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state, ok := c.state[userID]
	return ok && state.AwaitingEdit
}

var (
	addRegex    = regexp.MustCompile(`(?i)^(?:add|remind(?:\s+me)?)\s+(?:at\s+)?(\d{1,2}:\d{2})\s+(?:(medication|appointment|general)\s+)?(?:to\s+)?(.+)$`)
	editRegex   = regexp.MustCompile(`(?i)^edit(?:\s+reminder)?\s+(\S+)$`)
	deleteRegex = regexp.MustCompile(`(?i)^(?:delete|remove)(?:\s+reminder)?\s+(\S+)$`)
	testRegex   = regexp.MustCompile(`(?i)^test(?:\s+reminder)?\s+(\S+)$`)
)
