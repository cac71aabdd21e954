// Package notifications alerts the office about new quote requests.
package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/bissquit/quotedesk/internal/domain"
	"github.com/bissquit/quotedesk/internal/pkg/ctxlog"
)

// Message is a rendered alert ready for delivery.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// QuoteNotifier implements quotes.QuoteCreatedHandler.
type QuoteNotifier struct {
	sender     Sender
	renderer   *Renderer
	recipients []string
	baseURL    string
}

// NewQuoteNotifier creates a new QuoteNotifier. baseURL is the public
// address of the site, used to link the dashboard; it may be empty.
func NewQuoteNotifier(sender Sender, renderer *Renderer, recipients []string, baseURL string) *QuoteNotifier {
	return &QuoteNotifier{
		sender:     sender,
		renderer:   renderer,
		recipients: recipients,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// OnQuoteCreated sends the new quote to the configured recipients.
func (n *QuoteNotifier) OnQuoteCreated(ctx context.Context, quote *domain.Quote) error {
	if len(n.recipients) == 0 {
		ctxlog.FromContext(ctx).Debug("no quote alert recipients", "quote_id", quote.ID)
		return nil
	}

	payload := QuotePayload{Quote: quote}
	if n.baseURL != "" {
		payload.DashboardURL = n.baseURL + "/dashboard"
	}

	subject, body, err := n.renderer.RenderQuoteCreated(payload)
	if err != nil {
		return fmt.Errorf("render quote alert: %w", err)
	}

	err = n.sender.Send(ctx, Message{
		To:      n.recipients,
		ReplyTo: quote.Email,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("send quote alert: %w", err)
	}

	ctxlog.FromContext(ctx).Info("quote alert sent", "quote_id", quote.ID, "recipients", len(n.recipients))
	return nil
}
