// Package scheduler executes due scheduled closes and suspends, and
// periodically sweeps for threads whose staff channel has vanished.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/switchboard/internal/relay"
	"github.com/zulandar/switchboard/internal/store"
	"gorm.io/gorm"
)

// defaultPollInterval is used when no interval is configured.
const defaultPollInterval = 10 * time.Second

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the
// duration until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// timerChan returns the timer's channel, or nil for a nil timer so the
// select arm never fires.
func timerChan(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// Scheduler polls for threads whose scheduled close or suspend time has
// arrived and executes the transition through the relay engine. An
// action already cancelled by a newer reply is simply never seen: the
// poll reads current state, so only still-pending schedules fire.
type Scheduler struct {
	db           *gorm.DB
	engine       *relay.Engine
	pollInterval time.Duration
	sweepCron    string
	out          io.Writer
}

// Opts holds parameters for creating a Scheduler.
type Opts struct {
	DB           *gorm.DB
	Engine       *relay.Engine
	PollInterval time.Duration // optional; defaults to 10s
	SweepCron    string        // optional; empty disables the orphan sweep
	Out          io.Writer     // optional; defaults to os.Stdout
}

// New creates a Scheduler with the given options.
func New(opts Opts) (*Scheduler, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("scheduler: db is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("scheduler: relay engine is required")
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Scheduler{
		db:           opts.DB,
		engine:       opts.Engine,
		pollInterval: interval,
		sweepCron:    opts.SweepCron,
		out:          out,
	}, nil
}

// Run polls until the context is cancelled. It blocks.
func (s *Scheduler) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "Scheduler online (poll interval %v)\n", s.pollInterval)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var sweepTimer *time.Timer
	if s.sweepCron != "" {
		if d := nextCronDuration(s.sweepCron); d > 0 {
			sweepTimer = time.NewTimer(d)
		}
	}
	defer func() {
		if sweepTimer != nil {
			sweepTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(s.out, "Scheduler stopped\n")
			return nil
		case <-ticker.C:
			s.Tick(ctx, time.Now())
		case <-timerChan(sweepTimer):
			s.SweepOrphans(ctx)
			if d := nextCronDuration(s.sweepCron); d > 0 {
				sweepTimer.Reset(d)
			}
		}
	}
}

// Tick runs one poll pass: all threads whose scheduled close or suspend
// time is at or before now are transitioned. A failure on one thread is
// logged and does not block the rest.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	due, err := store.ThreadsWithDueClose(s.db.WithContext(ctx), now)
	if err != nil {
		log.Printf("scheduler: query due closes: %v", err)
	}
	for i := range due {
		thread := &due[i]
		silent := thread.ScheduledCloseSilent != nil && *thread.ScheduledCloseSilent
		log.Printf("scheduler: closing thread %s (scheduled, silent=%v)", thread.ID, silent)
		if err := s.engine.Close(ctx, thread, false, silent); err != nil {
			log.Printf("scheduler: close thread %s: %v", thread.ID, err)
		}
	}

	dueSuspend, err := store.ThreadsWithDueSuspend(s.db.WithContext(ctx), now)
	if err != nil {
		log.Printf("scheduler: query due suspends: %v", err)
	}
	for i := range dueSuspend {
		thread := &dueSuspend[i]
		log.Printf("scheduler: suspending thread %s (scheduled)", thread.ID)
		if err := s.engine.Suspend(ctx, thread); err != nil {
			log.Printf("scheduler: suspend thread %s: %v", thread.ID, err)
		}
	}
}

// SweepOrphans closes open threads whose staff channel no longer
// exists, catching deletions that happened while we were not looking.
func (s *Scheduler) SweepOrphans(ctx context.Context) {
	threads, err := store.OpenThreads(s.db.WithContext(ctx))
	if err != nil {
		log.Printf("scheduler: query open threads: %v", err)
		return
	}
	for i := range threads {
		thread := &threads[i]
		if thread.ChannelID == "" {
			continue
		}
		exists, err := s.engine.ChannelExists(ctx, thread.ChannelID)
		if err != nil {
			log.Printf("scheduler: check channel %s: %v", thread.ChannelID, err)
			continue
		}
		if exists {
			continue
		}
		log.Printf("scheduler: staff channel %s gone, closing orphaned thread %s",
			thread.ChannelID, thread.ID)
		if err := s.engine.Close(ctx, thread, true, false); err != nil {
			log.Printf("scheduler: close orphaned thread %s: %v", thread.ID, err)
		}
	}
}
