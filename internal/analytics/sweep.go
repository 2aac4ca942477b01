package analytics

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bwengye/bwengye/internal/models"
	"github.com/bwengye/bwengye/internal/notify"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// danglingGrace is how long an unanswered user turn may sit before the
// sweep reports it. Keeps in-flight requests out of the report.
const danglingGrace = 10 * time.Minute

// Sweeper runs scheduled maintenance over the analytics log: retention
// deletes plus a dangling-turn report. Both are advisory; a failed sweep
// never affects request handling.
type Sweeper struct {
	db        *gorm.DB
	retention time.Duration
	schedule  string
	notifier  notify.Notifier
	out       io.Writer
	cron      *cron.Cron
}

// SweeperOpts holds parameters for creating a Sweeper.
type SweeperOpts struct {
	DB            *gorm.DB
	RetentionDays int
	Schedule      string // 5-field cron expression
	Notifier      notify.Notifier
	Out           io.Writer
}

// NewSweeper creates a Sweeper.
func NewSweeper(opts SweeperOpts) (*Sweeper, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("analytics: sweeper: db is required")
	}
	if opts.RetentionDays <= 0 {
		return nil, fmt.Errorf("analytics: sweeper: retention days must be positive")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Sweeper{
		db:        opts.DB,
		retention: time.Duration(opts.RetentionDays) * 24 * time.Hour,
		schedule:  opts.Schedule,
		notifier:  notifier,
		out:       out,
	}, nil
}

// Start registers the sweep on its cron schedule and begins running.
func (s *Sweeper) Start() error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, _, err := s.RunOnce(context.Background()); err != nil {
			fmt.Fprintf(s.out, "analytics: sweep: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("analytics: sweeper schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule. A sweep already in flight finishes.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// RunOnce performs one sweep: delete analytics events past retention, then
// count user turns that never received an assistant reply and alert when
// any exist.
func (s *Sweeper) RunOnce(ctx context.Context) (deleted int64, dangling int64, err error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	res := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AnalyticsEvent{})
	if res.Error != nil {
		return 0, 0, fmt.Errorf("analytics: retention delete: %w", res.Error)
	}
	deleted = res.RowsAffected

	dangling, err = s.countDanglingTurns(ctx)
	if err != nil {
		return deleted, 0, err
	}

	fmt.Fprintf(s.out, "analytics: sweep: deleted %d events, %d dangling user turns\n", deleted, dangling)
	if dangling > 0 {
		s.notifier.Send(ctx, notify.Alert{
			Title:    "dangling user turns detected",
			Body:     fmt.Sprintf("%d user turns have no assistant reply", dangling),
			Severity: notify.SeverityWarning,
		})
	}
	return deleted, dangling, nil
}

// countDanglingTurns finds user turns older than the grace window that are
// still the newest message in their conversation, meaning the paired
// assistant turn never landed.
func (s *Sweeper) countDanglingTurns(ctx context.Context) (int64, error) {
	graceCutoff := time.Now().UTC().Add(-danglingGrace)
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("role = ? AND created_at < ?", models.RoleUser, graceCutoff).
		Where("NOT EXISTS (SELECT 1 FROM messages later WHERE later.conversation_id = messages.conversation_id AND later.created_at > messages.created_at)").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("analytics: dangling turn count: %w", err)
	}
	return count, nil
}
