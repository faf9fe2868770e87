// Package notifier fans a new event out to every eligible subscriber.
package notifier

import (
	"context"
	"time"

	"github.com/polydictions/bot/internal/format"
	"github.com/polydictions/bot/internal/logger"
	"github.com/polydictions/bot/internal/matcher"
	"github.com/polydictions/bot/internal/models"
	"github.com/polydictions/bot/internal/registry"
)

// Transport delivers one rendered message to one recipient.
type Transport interface {
	SendNotification(userID int64, text string) error
}

// Notifier renders an event once and delivers it to each subscriber that is
// not paused and whose keyword filters match.
type Notifier struct {
	transport Transport
	registry  *registry.Registry
	siteURL   string
	sendDelay time.Duration
}

// New wires a notifier. sendDelay is the pause between consecutive sends,
// keeping the fan-out under Telegram's rate limits.
func New(transport Transport, reg *registry.Registry, siteURL string, sendDelay time.Duration) *Notifier {
	return &Notifier{
		transport: transport,
		registry:  reg,
		siteURL:   siteURL,
		sendDelay: sendDelay,
	}
}

// Notify delivers the event to all eligible subscribers. A failed send is
// logged and never blocks delivery to the remaining recipients.
func (n *Notifier) Notify(ctx context.Context, event *models.Event) {
	text := "<b>New Polymarket Event</b>\n\n" + format.Event(event, n.siteURL)

	sent, skipped, failed := 0, 0, 0
	for _, userID := range n.registry.Subscribers() {
		if ctx.Err() != nil {
			return
		}
		if n.registry.IsPaused(userID) {
			skipped++
			continue
		}
		if filters := n.registry.Keywords(userID); !matcher.Matches(event, filters) {
			skipped++
			continue
		}

		if err := n.transport.SendNotification(userID, text); err != nil {
			failed++
			logger.Error("Failed to notify user %d about event %s: %v", userID, event.ID, err)
		} else {
			sent++
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(n.sendDelay):
		}
	}

	logger.Info("Notified for event %s (%q): %d sent, %d skipped, %d failed",
		event.ID, event.Title, sent, skipped, failed)
}
