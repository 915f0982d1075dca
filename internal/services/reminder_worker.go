package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper is what the worker drives once a day.
type Sweeper interface {
	RunOnce(ctx context.Context) SweepResult
}

// ReminderWorker runs the sweep once a day at a fixed local time.
type ReminderWorker struct {
	sweep      Sweeper
	hour       int
	minute     int
	loc        *time.Location
	runOnStart bool
	timeout    time.Duration
	now        func() time.Time
	log        *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type WorkerConfig struct {
	Hour       int
	Minute     int
	Location   *time.Location
	RunOnStart bool
	Timeout    time.Duration
}

func NewReminderWorker(sweep Sweeper, cfg WorkerConfig, log *zap.Logger) *ReminderWorker {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ReminderWorker{
		sweep:      sweep,
		hour:       cfg.Hour,
		minute:     cfg.Minute,
		loc:        loc,
		runOnStart: cfg.RunOnStart,
		timeout:    timeout,
		now:        time.Now,
		log:        log,
	}
}

// Start launches the scheduling loop. It returns immediately.
func (w *ReminderWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
	w.log.Info("reminder worker started",
		zap.Int("hour", w.hour),
		zap.Int("minute", w.minute),
		zap.String("timezone", w.loc.String()),
	)
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (w *ReminderWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.log.Info("reminder worker stopped")
}

func (w *ReminderWorker) run(ctx context.Context) {
	defer w.wg.Done()

	if w.runOnStart {
		w.runSweep(ctx)
	}

	for {
		next := w.nextRun(w.now())
		w.log.Debug("next reminder sweep scheduled", zap.Time("at", next))
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			w.runSweep(ctx)
		}
	}
}

func (w *ReminderWorker) runSweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("reminder sweep panicked", zap.Any("panic", r))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	w.sweep.RunOnce(runCtx)
}

// nextRun returns the first scheduled instant strictly after now.
func (w *ReminderWorker) nextRun(now time.Time) time.Time {
	local := now.In(w.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), w.hour, w.minute, 0, 0, w.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, w.hour, w.minute, 0, 0, w.loc)
	}
	return next
}
