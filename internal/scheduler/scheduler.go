// Package scheduler wraps robfig/cron to fire due reminders and the daily
// usage report.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/thaaaru/kadiya/internal/memory"
	"github.com/thaaaru/kadiya/internal/notify"
	"github.com/thaaaru/kadiya/internal/ws"
)

// UsageReporter renders the current usage summary line.
type UsageReporter interface {
	FormatSummary() string
}

// EventSink receives fired-reminder events. May be nil (disabled).
type EventSink interface {
	Broadcast(eventType string, data interface{})
}

// Engine manages the cron scheduler.
type Engine struct {
	cron   *cron.Cron
	store  *memory.Store
	notify *notify.Dispatcher
	usage  UsageReporter
	events EventSink
}

// New creates a cron-based Engine. events may be nil.
func New(store *memory.Store, notifier *notify.Dispatcher, usage UsageReporter, events EventSink) *Engine {
	return &Engine{
		cron:   cron.New(cron.WithSeconds()),
		store:  store,
		notify: notifier,
		usage:  usage,
		events: events,
	}
}

// Start registers the built-in jobs and begins the cron engine. The engine
// stops when ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	// Due reminders, checked every minute.
	if _, err := e.cron.AddFunc("0 * * * * *", func() { e.fireDueReminders(ctx) }); err != nil {
		return fmt.Errorf("scheduler.Start: reminders job: %w", err)
	}
	// Daily usage report at 21:00.
	if _, err := e.cron.AddFunc("0 0 21 * * *", e.sendUsageReport); err != nil {
		return fmt.Errorf("scheduler.Start: usage job: %w", err)
	}

	e.cron.Start()
	go func() {
		<-ctx.Done()
		e.cron.Stop()
	}()
	return nil
}

func (e *Engine) fireDueReminders(ctx context.Context) {
	due, err := e.store.DueReminders(ctx, time.Now())
	if err != nil {
		log.Printf("scheduler: due reminders: %v", err)
		return
	}
	for _, r := range due {
		e.notify.Send("⏰ Reminder: " + r.Text)
		if e.events != nil {
			e.events.Broadcast(ws.TypeReminder, map[string]string{"id": r.ID, "text": r.Text})
		}
		if err := e.store.MarkReminderSent(ctx, r.ID); err != nil {
			log.Printf("scheduler: mark sent %s: %v", r.ID, err)
		}
	}
}

func (e *Engine) sendUsageReport() {
	if e.usage == nil {
		return
	}
	e.notify.Send("📊 Daily usage\n" + e.usage.FormatSummary())
}
