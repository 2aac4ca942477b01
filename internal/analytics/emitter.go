// Package analytics records usage events and aggregates them for the
// dashboard.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bwengye/bwengye/internal/models"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"gorm.io/gorm"
)

// Event types emitted by the request path. The tag set is open; the
// dashboard groups whatever it finds.
const (
	EventChat            = "ai_chat"
	EventRouting         = "model_routing"
	EventImageGeneration = "ai_image_generation"
)

// Event is one usage record handed to the Emitter.
type Event struct {
	UserID    string
	EventType string
	Data      map[string]interface{}
	SessionID string
}

// Sink accepts events fire-and-forget. The chat orchestrator and HTTP
// handlers depend on this interface, not on the concrete Emitter.
type Sink interface {
	Emit(event Event)
}

// insertTimeout bounds each background insert so a stuck store cannot pile
// up goroutines forever.
const insertTimeout = 10 * time.Second

// Emitter writes events to the store in the background. Losing an
// analytics event is acceptable, so insert failures are logged and
// swallowed — never propagated, never retried, never deduplicated.
type Emitter struct {
	db  *gorm.DB
	wg  *conc.WaitGroup
	out io.Writer
}

// NewEmitter creates an Emitter writing through the given store connection.
func NewEmitter(db *gorm.DB, out io.Writer) *Emitter {
	if out == nil {
		out = os.Stdout
	}
	return &Emitter{db: db, wg: conc.NewWaitGroup(), out: out}
}

// Emit queues one event for background insertion and returns immediately.
func (e *Emitter) Emit(event Event) {
	row := models.AnalyticsEvent{
		ID:        uuid.NewString(),
		UserID:    event.UserID,
		EventType: event.EventType,
		EventData: marshalData(event.Data),
		SessionID: event.SessionID,
		CreatedAt: time.Now().UTC(),
	}

	e.wg.Go(func() {
		// Deliberately not the request context: the event outlives the
		// request that raised it.
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		defer cancel()
		if err := e.db.WithContext(ctx).Create(&row).Error; err != nil {
			fmt.Fprintf(e.out, "analytics: emit %s for user %s: %v\n", event.EventType, event.UserID, err)
		}
	})
}

// Close waits for queued inserts to finish. Panics from the background
// goroutines are recovered and logged rather than crashing shutdown.
func (e *Emitter) Close() {
	if r := e.wg.WaitAndRecover(); r != nil {
		fmt.Fprintf(e.out, "analytics: emitter goroutine panicked: %v\n", r.Value)
	}
}

// marshalData encodes the payload, falling back to an empty object so a
// bad payload never blocks the event itself.
func marshalData(data map[string]interface{}) string {
	if data == nil {
		return "{}"
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
