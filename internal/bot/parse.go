package bot

import (
	"errors"
	"strings"

	"github.com/pathakanu/careMemo/internal/model"
	myopenai "github.com/pathakanu/careMemo/internal/openai"
)

// intentTest previews a reminder's notification. It has no model label.
const intentTest myopenai.Intent = "test_reminder"

var (
	errEmptyPatch  = errors.New("no fields to change")
	errPatchSyntax = errors.New("expected key=value pairs")
)

type command struct {
	intent    myopenai.Intent
	id        string
	candidate *model.Candidate
}

// parseCommand recognises the fixed command phrases. Anything else is
// returned as IntentUnknown.
func parseCommand(message string) command {
	trimmed := strings.TrimSpace(message)
	lower := strings.ToLower(trimmed)

	switch {
	case lower == "help" || lower == "?":
		return command{intent: myopenai.IntentHelp}
	case isListRequest(lower):
		return command{intent: myopenai.IntentListReminders}
	}

	if m := addRegex.FindStringSubmatch(trimmed); m != nil {
		c := &model.Candidate{Time: m[1], Text: strings.TrimSpace(m[3])}
		if m[2] != "" {
			c.Type, _ = model.ParseType(m[2])
		}
		return command{intent: myopenai.IntentAddReminder, candidate: c}
	}
	if m := editRegex.FindStringSubmatch(trimmed); m != nil {
		return command{intent: myopenai.IntentEditReminder, id: m[1]}
	}
	if m := deleteRegex.FindStringSubmatch(trimmed); m != nil {
		return command{intent: myopenai.IntentDeleteReminder, id: m[1]}
	}
	if m := testRegex.FindStringSubmatch(trimmed); m != nil {
		return command{intent: intentTest, id: m[1]}
	}
	return command{intent: myopenai.IntentUnknown}
}

func isListRequest(body string) bool {
	return body == "list" ||
		strings.Contains(body, "show my reminders") ||
		strings.Contains(body, "list my reminders") ||
		strings.Contains(body, "show reminders") ||
		strings.Contains(body, "list reminders")
}

// parsePatch reads "time=10:00; text=call mom; type=general". Values are
// taken verbatim; validation happens in the store.
func parsePatch(body string) (model.Patch, error) {
	var patch model.Patch
	for _, part := range strings.Split(body, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return model.Patch{}, errPatchSyntax
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "time":
			clock, err := model.NormalizeClock(value)
			if err != nil {
				return model.Patch{}, err
			}
			patch.Time = &clock
		case "text":
			patch.Text = &value
		case "type":
			kind, err := model.ParseType(value)
			if err != nil {
				return model.Patch{}, err
			}
			patch.Type = &kind
		default:
			return model.Patch{}, errPatchSyntax
		}
	}
	if patch.IsEmpty() {
		return model.Patch{}, errEmptyPatch
	}
	return patch, nil
}
