package notify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Report summarizes one fan-out.
type Report struct {
	Attempted int
	Failed    []string // names of channels whose delivery failed
}

// Dispatcher fans a notification out to every channel it holds.
//
// Channels are delivered concurrently and each delivery runs behind its own
// error and panic boundary, so a slow or broken channel never keeps another
// from being attempted. Notify never returns an error; failures are logged.
type Dispatcher struct {
	channels []Channel
	limiter  *rate.Limiter
	log      *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given channels.
func NewDispatcher(channels []Channel, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		// ~20 notifications/sec keeps chat providers from throttling us.
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
		log:     log,
	}
}

// Channels returns the number of channels notifications are sent to.
func (d *Dispatcher) Channels() int {
	return len(d.channels)
}

// Notify delivers title and body to every channel and waits for all of them.
func (d *Dispatcher) Notify(ctx context.Context, title, body string) Report {
	if len(d.channels) == 0 {
		d.log.Debug("no notification channels enabled", "title", title)
		return Report{}
	}
	if err := d.limiter.Wait(ctx); err != nil {
		d.log.Warn("notification skipped", "title", title, "error", err)
		return Report{}
	}

	errs := make([]error, len(d.channels))
	var wg sync.WaitGroup
	for i, ch := range d.channels {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = d.deliver(ctx, ch, title, body)
		}()
	}
	wg.Wait()

	report := Report{Attempted: len(d.channels)}
	for i, err := range errs {
		name := d.channels[i].Name()
		if err != nil {
			d.log.Error("deliver notification", "channel", name, "error", err)
			report.Failed = append(report.Failed, name)
			continue
		}
		d.log.Debug("notification delivered", "channel", name)
	}
	return report
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, title, body string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic in notification channel", "channel", ch.Name(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ch.Deliver(ctx, title, body)
}
