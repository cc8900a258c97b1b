package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pathakanu/careMemo/internal/app"
	"github.com/pathakanu/careMemo/internal/database"
	"github.com/pathakanu/careMemo/internal/model"
	"github.com/pathakanu/careMemo/internal/notify"
	myopenai "github.com/pathakanu/careMemo/internal/openai"
	"github.com/pathakanu/careMemo/internal/storage"
	"github.com/pathakanu/careMemo/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type nopService struct{}

func (nopService) Schedule(context.Context, notify.Request) error { return nil }
func (nopService) Cancel(context.Context, ...int32) error         { return nil }

func newTestBot(t *testing.T, owner string) *Bot {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1", name, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite memory: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	logger := log.New(io.Discard, "", 0)
	st, err := store.Open(context.Background(), storage.NewGormSlot(db), store.Options{Logger: logger})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	scheduler := notify.NewScheduler(nopService{}, notify.Options{Location: time.UTC, Logger: logger})
	return New(app.New(st, scheduler, nil, logger), myopenai.New(""), owner, logger)
}

func send(t *testing.T, b *Bot, from, body string) string {
	t.Helper()

	form := url.Values{"From": {from}, "Body": {body}}
	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Fatalf("unexpected content type %q", ct)
	}
	return rec.Body.String()
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	cases := map[string]myopenai.Intent{
		"help":                          myopenai.IntentHelp,
		"LIST":                          myopenai.IntentListReminders,
		"show my reminders please":      myopenai.IntentListReminders,
		"add 09:30 take aspirin":        myopenai.IntentAddReminder,
		"remind me at 7:00 to walk":     myopenai.IntentAddReminder,
		"edit 1704096000000":            myopenai.IntentEditReminder,
		"delete reminder 1704096000000": myopenai.IntentDeleteReminder,
		"remove 42":                     myopenai.IntentDeleteReminder,
		"test 42":                       intentTest,
		"what's the weather":            myopenai.IntentUnknown,
	}
	for input, want := range cases {
		if got := parseCommand(input).intent; got != want {
			t.Fatalf("parseCommand(%q) = %q, want %q", input, got, want)
		}
	}

	cmd := parseCommand("add 18:05 appointment to see Dr. Lee")
	if cmd.candidate == nil || *cmd.candidate != (model.Candidate{Time: "18:05", Text: "see Dr. Lee", Type: model.TypeAppointment}) {
		t.Fatalf("unexpected candidate %+v", cmd.candidate)
	}
}

func TestParsePatch(t *testing.T) {
	t.Parallel()

	patch, err := parsePatch("time=7:15; text= call mom ; type=General")
	if err != nil {
		t.Fatalf("parsePatch: %v", err)
	}
	if patch.Time == nil || *patch.Time != "07:15" || patch.Text == nil || *patch.Text != "call mom" || patch.Type == nil || *patch.Type != model.TypeGeneral {
		t.Fatalf("unexpected patch %+v", patch)
	}

	textOnly, err := parsePatch("text=")
	if err != nil || textOnly.Text == nil || *textOnly.Text != "" || textOnly.Time != nil {
		t.Fatalf("empty text should be accepted on edit: %+v, %v", textOnly, err)
	}

	for _, bad := range []string{"", "hello", "colour=red", "time=25:00", "type=chore"} {
		if _, err := parsePatch(bad); err == nil {
			t.Fatalf("parsePatch(%q) should fail", bad)
		}
	}
}

func TestAddAndListOverWebhook(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, "")

	reply := send(t, b, "whatsapp:+15551234567", "add 09:30 take aspirin")
	if !strings.Contains(reply, app.MsgAdded) || !strings.Contains(reply, "Medication") {
		t.Fatalf("unexpected add reply %q", reply)
	}

	reply = send(t, b, "whatsapp:+15551234567", "list")
	if !containsAll(reply, []string{"Here are your reminders", "[Medication] 09:30 take aspirin"}) {
		t.Fatalf("unexpected list reply %q", reply)
	}
}

func TestAddRejectsBadTime(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, "")

	reply := send(t, b, "+1555", "add 29:30 take aspirin")
	if !strings.Contains(reply, "Times look like") {
		t.Fatalf("unexpected reply %q", reply)
	}
	if len(b.app.Reminders()) != 0 {
		t.Fatalf("invalid reminder was stored")
	}
}

func TestEditConversation(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, "")
	from := "whatsapp:+15551234567"

	send(t, b, from, "add 09:30 take aspirin")
	id := b.app.Reminders()[0].ID

	reply := send(t, b, from, "edit "+id)
	if !strings.Contains(reply, "Edit Reminder") || !b.state.IsAwaitingEdit(twilioUser(from)) {
		t.Fatalf("edit prompt not shown: %q", reply)
	}

	reply = send(t, b, from, "time=10:00; type=general")
	if !strings.Contains(reply, app.MsgUpdated) {
		t.Fatalf("unexpected edit reply %q", reply)
	}
	got, _ := b.app.Reminder(id)
	if want := (model.Reminder{ID: id, Time: "10:00", Text: "take aspirin", Type: model.TypeGeneral}); got != want {
		t.Fatalf("reminder = %+v, want %+v", got, want)
	}
}

func TestEditCancel(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, "")
	from := "+15551234567"

	send(t, b, from, "add 09:30 take aspirin")
	before := b.app.Reminders()[0]

	send(t, b, from, "edit "+before.ID)
	if reply := send(t, b, from, "cancel"); !strings.Contains(reply, "Edit cancelled") {
		t.Fatalf("unexpected reply %q", reply)
	}
	if after, _ := b.app.Reminder(before.ID); after != before {
		t.Fatalf("cancelled edit changed the reminder: %+v", after)
	}
}

func TestDeleteOverWebhook(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, "")
	from := "+15551234567"

	send(t, b, from, "add 09:30 take aspirin")
	send(t, b, from, "add 12:00 general water plants")
	id := b.app.Reminders()[0].ID

	if reply := send(t, b, from, "delete "+id); !strings.Contains(reply, app.MsgDeleted) {
		t.Fatalf("unexpected delete reply %q", reply)
	}
	if reply := send(t, b, from, "delete "+id); !strings.Contains(reply, "find that reminder") {
		t.Fatalf("unexpected reply for missing id %q", reply)
	}
	if got := b.app.Reminders(); len(got) != 1 || got[0].Text != "water plants" {
		t.Fatalf("unexpected remaining reminders %+v", got)
	}
}

func TestSimulateOverWebhook(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, "")

	send(t, b, "+1555", "add 14:00 appointment dentist")
	id := b.app.Reminders()[0].ID
	if reply := send(t, b, "+1555", "test "+id); !containsAll(reply, []string{"Appointment Reminder", "dentist (14:00)"}) {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestOwnerOnly(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, "+15551234567")

	if reply := send(t, b, "whatsapp:+19998887777", "add 09:30 take aspirin"); !strings.Contains(reply, "private") {
		t.Fatalf("stranger was not refused: %q", reply)
	}
	if reply := send(t, b, "whatsapp:+15551234567", "add 09:30 take aspirin"); !strings.Contains(reply, app.MsgAdded) {
		t.Fatalf("owner was refused: %q", reply)
	}
}

func TestUnknownMessageWithoutOpenAI(t *testing.T) {
	t.Parallel()
	b := newTestBot(t, "")

	if reply := send(t, b, "+1555", "what's the weather"); !strings.Contains(reply, "help") {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func twilioUser(from string) string {
	return strings.TrimPrefix(from, "whatsapp:")
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
