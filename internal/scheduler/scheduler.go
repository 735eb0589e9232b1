package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"rss_monitor/internal/checker"
	"rss_monitor/internal/model"
	"rss_monitor/internal/notify"
)

// Beijing is the zone quiet hours are evaluated in.
var Beijing = time.FixedZone("UTC+8", 8*60*60)

// FeedChecker checks a single feed for a new entry.
type FeedChecker interface {
	Check(ctx context.Context, feed model.Feed) (checker.Outcome, error)
}

// Policy controls the timing of the continuous loop.
type Policy struct {
	Interval time.Duration // pause between two full cycles
	Recovery time.Duration // pause after a failed cycle

	QuietHours bool
	QuietStart int // first hour of the quiet window, inclusive
	QuietEnd   int // hour the quiet window ends, exclusive
	Zone       *time.Location
}

// DefaultPolicy polls every three hours and stays quiet between 00:00 and
// 07:00 Beijing time.
func DefaultPolicy() Policy {
	return Policy{
		Interval:   3 * time.Hour,
		Recovery:   time.Minute,
		QuietHours: true,
		QuietStart: 0,
		QuietEnd:   7,
		Zone:       Beijing,
	}
}

// Scheduler runs the feed checker over every configured feed.
type Scheduler struct {
	checker FeedChecker
	feeds   []model.Feed
	policy  Policy
	log     *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Scheduler. Feeds are checked in the given order.
func New(c FeedChecker, feeds []model.Feed, policy Policy, log *slog.Logger) *Scheduler {
	if policy.Zone == nil {
		policy.Zone = Beijing
	}
	return &Scheduler{
		checker: c,
		feeds:   feeds,
		policy:  policy,
		log:     log,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// RunOnce checks every feed once. It stops at the first storage failure.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var notified int
	for _, feed := range s.feeds {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome, err := s.checker.Check(ctx, feed)
		if err != nil {
			return fmt.Errorf("check %s: %w", feed.Name, err)
		}
		if outcome == checker.OutcomeNotified {
			notified++
		}
	}
	s.log.Info("cycle finished", "feeds", len(s.feeds), "notified", notified)
	return nil
}

// Run polls until ctx is cancelled. During quiet hours it sleeps until the
// window ends. A failed or panicking cycle is logged and retried after the
// recovery pause.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		now := s.now()
		if until, quiet := s.QuietUntil(now); quiet {
			s.log.Info("quiet hours, pausing", "until", until.Format(time.DateTime))
			if err := s.sleep(ctx, until.Sub(now)); err != nil {
				return
			}
			continue
		}

		wait := s.policy.Interval
		if err := s.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error("poll cycle failed", "error", err, "retry_in", s.policy.Recovery)
			wait = s.policy.Recovery
		}
		if err := s.sleep(ctx, wait); err != nil {
			return
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in poll cycle", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.RunOnce(ctx)
}

// QuietUntil reports whether now falls in the quiet window and, if so, when
// the window ends.
func (s *Scheduler) QuietUntil(now time.Time) (time.Time, bool) {
	p := s.policy
	if !p.QuietHours {
		return time.Time{}, false
	}
	local := now.In(p.Zone)
	if h := local.Hour(); h < p.QuietStart || h >= p.QuietEnd {
		return time.Time{}, false
	}
	y, m, d := local.Date()
	return time.Date(y, m, d, p.QuietEnd, 0, 0, 0, p.Zone), true
}

// Heartbeat announces that the monitor has started.
func Heartbeat(ctx context.Context, n checker.Notifier, now time.Time) notify.Report {
	return n.Notify(ctx, "RSS monitor started", "started at: "+now.Format(time.DateTime))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
