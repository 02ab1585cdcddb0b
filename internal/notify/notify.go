// Package notify provides a notification dispatcher that routes messages to
// configured adapters.
package notify

import (
	"log"

	"github.com/thaaaru/kadiya/internal/webhook"
)

// Sender can send a plain text message.
type Sender interface {
	Send(msg string) error
}

// Dispatcher fans notifications out to the configured senders.
type Dispatcher struct {
	telegram Sender
	webhook  *webhook.Dispatcher
}

// New creates a Dispatcher. Either adapter may be nil/disabled.
func New(telegram Sender, wh *webhook.Dispatcher) *Dispatcher {
	return &Dispatcher{telegram: telegram, webhook: wh}
}

// Send delivers a message to all configured adapters. Delivery failures are
// logged, never propagated — notifications are best-effort.
func (d *Dispatcher) Send(msg string) {
	if d.telegram != nil {
		if err := d.telegram.Send(msg); err != nil {
			log.Printf("notify: telegram send: %v", err)
		}
	}
	if d.webhook.Enabled() {
		d.webhook.Fire("notification", map[string]string{"message": msg})
	}
}
