// Package notify delivers best-effort ops alerts to chat platforms.
package notify

import (
	"context"
	"log"
)

// Severity levels for alerts.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Alert is one ops notification. Alerts are advisory: losing one never
// fails the flow that raised it.
type Alert struct {
	Title    string
	Body     string
	Severity string
}

// Notifier is the interface platform-specific senders implement.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// Multi fans an alert out to several notifiers. Send failures are logged
// and swallowed; Multi itself never returns an error.
type Multi []Notifier

// Send delivers the alert to every notifier, best-effort.
func (m Multi) Send(ctx context.Context, alert Alert) error {
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			log.Printf("notify: send %q: %v", alert.Title, err)
		}
	}
	return nil
}

// Nop discards all alerts, for deployments with no channel configured.
type Nop struct{}

// Send is a no-op.
func (Nop) Send(context.Context, Alert) error { return nil }
