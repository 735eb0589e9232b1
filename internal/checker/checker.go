// Package checker decides whether a feed has published something new and
// announces it.
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rss_monitor/internal/model"
	"rss_monitor/internal/notify"
	"rss_monitor/internal/storage"
)

// ErrStorage marks failures of the seen-item store. They are not absorbed by
// the checker and end the current poll cycle.
var ErrStorage = errors.New("storage failure")

// Fetcher retrieves the entries of a feed, newest first.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]model.Entry, error)
}

// Notifier fans a notification out to the enabled channels.
type Notifier interface {
	Notify(ctx context.Context, title, body string) notify.Report
}

// Outcome is the result of checking one feed.
type Outcome int

// Possible outcomes of Check.
const (
	OutcomeEmpty    Outcome = iota // nothing fetched, or the fetch failed
	OutcomeSeen                    // newest entry was already notified
	OutcomeNotified                // newest entry was new and has been announced
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSeen:
		return "seen"
	case OutcomeNotified:
		return "notified"
	default:
		return "empty"
	}
}

// Checker inspects the newest entry of a feed against the seen-item store.
type Checker struct {
	fetcher  Fetcher
	store    storage.Storage
	notifier Notifier
	log      *slog.Logger
}

// New creates a Checker.
func New(f Fetcher, store storage.Storage, n Notifier, log *slog.Logger) *Checker {
	return &Checker{fetcher: f, store: store, notifier: n, log: log}
}

// Check fetches feed and, when its newest entry has a link that was never
// recorded, notifies and then records it. Only the newest entry is looked at.
//
// Notification happens before the entry is recorded: a crash in between
// repeats the notification on the next cycle instead of losing it.
//
// Fetch failures are logged and reported as OutcomeEmpty. The returned error
// is non-nil only for store failures and wraps ErrStorage.
func (c *Checker) Check(ctx context.Context, feed model.Feed) (Outcome, error) {
	c.log.Info("checking feed", "feed", feed.Name)

	entries, err := c.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		c.log.Warn("fetch feed", "feed", feed.Name, "url", feed.URL, "error", err)
		return OutcomeEmpty, nil
	}
	if len(entries) == 0 {
		c.log.Debug("feed has no entries", "feed", feed.Name)
		return OutcomeEmpty, nil
	}

	newest := entries[0]
	if newest.Link == "" {
		c.log.Warn("newest entry has no link", "feed", feed.Name, "title", newest.Title)
		return OutcomeEmpty, nil
	}

	seen, err := c.store.Exists(ctx, newest.Link)
	if err != nil {
		return OutcomeEmpty, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if seen {
		c.log.Debug("no new entry", "feed", feed.Name, "link", newest.Link)
		return OutcomeSeen, nil
	}

	title, body := FormatUpdate(feed.Name, newest)
	report := c.notifier.Notify(ctx, title, body)
	c.log.Info("new entry", "feed", feed.Name, "title", newest.Title, "link", newest.Link,
		"channels", report.Attempted, "failed", len(report.Failed))

	if err := c.store.Record(ctx, newest.Title, newest.Link); err != nil {
		return OutcomeNotified, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return OutcomeNotified, nil
}

// FormatUpdate builds the notification announcing entry on the named feed.
func FormatUpdate(feedName string, entry model.Entry) (title, body string) {
	return feedName + "今日更新", fmt.Sprintf("title: %s\nlink: %s", entry.Title, entry.Link)
}
