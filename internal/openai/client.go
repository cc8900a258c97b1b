package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pathakanu/careMemo/internal/model"
)

// Client wraps the OpenAI SDK and provides utility helpers.
type Client struct {
	apiKey string
	client *openai.Client
	model  openai.ChatModel
}

// ErrClientNotInitialised is returned when attempting to call the API without a configured client.
var ErrClientNotInitialised = errors.New("openai client not initialised")

// Intent represents the high-level action inferred from a user message.
type Intent string

const (
	// IntentUnknown indicates the message intent could not be resolved.
	IntentUnknown Intent = "unknown"
	// IntentAddReminder instructs the bot to capture a new reminder.
	IntentAddReminder Intent = "add_reminder"
	// IntentListReminders asks the bot to list current reminders.
	IntentListReminders Intent = "list_reminders"
	// IntentEditReminder starts editing an existing reminder.
	IntentEditReminder Intent = "edit_reminder"
	// IntentDeleteReminder requests deletion of a specific reminder.
	IntentDeleteReminder Intent = "delete_reminder"
	// IntentHelp asks for usage guidance.
	IntentHelp Intent = "help"
)

// New returns a client; without an apiKey every call reports ErrClientNotInitialised.
func New(apiKey string) *Client {
	if apiKey == "" {
		return &Client{}
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		apiKey: apiKey,
		client: &client,
		model:  openai.ChatModelGPT4oMini,
	}
}

// Enabled reports whether an API key was configured.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// ClassifyType asks the model whether a reminder text is about medication,
// an appointment or something else.
func (c *Client) ClassifyType(ctx context.Context, text string) (model.Type, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("content cannot be empty")
	}
	if !c.Enabled() {
		return "", ErrClientNotInitialised
	}

	label, err := c.complete(ctx,
		"Classify a reminder. Reply with exactly one word: Medication, Appointment, or General.",
		text, 10*time.Second)
	if err != nil {
		return "", err
	}
	return ParseTypeLabel(label)
}

// ClassifyIntent uses the language model to infer the user's intent.
func (c *Client) ClassifyIntent(ctx context.Context, content string) (Intent, error) {
	if strings.TrimSpace(content) == "" {
		return IntentUnknown, fmt.Errorf("content cannot be empty")
	}
	if !c.Enabled() {
		return IntentUnknown, ErrClientNotInitialised
	}

	label, err := c.complete(ctx,
		"Classify the user's request for a reminder bot. Reply with exactly one label: add_reminder, list_reminders, edit_reminder, delete_reminder, help, or unknown.",
		content, 10*time.Second)
	if err != nil {
		return IntentUnknown, err
	}
	return ParseIntent(label), nil
}

func (c *Client) complete(ctx context.Context, system, user string, timeout time.Duration) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(system),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(user),
					},
				},
			},
		},
		Temperature:         openai.Float(0.0),
		MaxCompletionTokens: openai.Int(8),
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion received")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ParseTypeLabel maps a model answer onto a reminder type, tolerating
// trailing punctuation.
func ParseTypeLabel(label string) (model.Type, error) {
	return model.ParseType(strings.Trim(label, " .\n\"'"))
}

// ParseIntent maps a model answer onto a known intent.
func ParseIntent(label string) Intent {
	switch Intent(strings.ToLower(strings.Trim(label, " .\n\"'"))) {
	case IntentAddReminder:
		return IntentAddReminder
	case IntentListReminders:
		return IntentListReminders
	case IntentEditReminder:
		return IntentEditReminder
	case IntentDeleteReminder:
		return IntentDeleteReminder
	case IntentHelp:
		return IntentHelp
	default:
		return IntentUnknown
	}
}
