package twilio

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/pathakanu/careMemo/internal/notify"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client wraps Twilio messaging operations used for reminders.
type Client struct {
	client       *twilio.RestClient
	fromWhatsApp string
	notifyTo     string
	logger       *log.Logger
}

// New creates a Twilio client bound to the configured WhatsApp sender number.
// notifyTo receives fired reminder notifications.
func New(accountSID, authToken, fromWhatsApp, notifyTo string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c := &Client{
		fromWhatsApp: fromWhatsApp,
		notifyTo:     notifyTo,
		logger:       logger,
	}
	if accountSID != "" && authToken != "" {
		c.client = twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken})
	}
	return c
}

// Configured reports whether credentials, sender and recipient are all set.
func (c *Client) Configured() bool {
	return c != nil && c.client != nil && normalizeWhatsAppAddress(c.fromWhatsApp) != "" && normalizeWhatsAppAddress(c.notifyTo) != ""
}

// Deliver sends a fired notification to the configured recipient.
func (c *Client) Deliver(_ context.Context, n notify.Notification) error {
	return c.SendWhatsAppMessage(c.notifyTo, notify.Message(n))
}

// SendWhatsAppMessage sends a WhatsApp message via Twilio's API.
func (c *Client) SendWhatsAppMessage(to, body string) error {
	if c.client == nil {
		return fmt.Errorf("twilio client not initialised")
	}

	sender := normalizeWhatsAppAddress(c.fromWhatsApp)
	if sender == "" {
		return fmt.Errorf("twilio sender WhatsApp number is not configured")
	}

	recipient := normalizeWhatsAppAddress(to)
	if recipient == "" {
		return fmt.Errorf("recipient number missing or invalid")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send message error: %w", err)
	}

	if resp.Sid != nil {
		c.logger.Printf("twilio: message to %s sent, SID: %s", recipient, *resp.Sid)
	}
	return nil
}

// NormalizeAddress strips the whatsapp: scheme so numbers compare equal.
func NormalizeAddress(number string) string {
	return strings.TrimPrefix(normalizeWhatsAppAddress(number), "whatsapp:")
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}
