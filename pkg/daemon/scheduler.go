package daemon

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/phmeter/pkg/config"
)

const (
	preCheckMaxTimes = 3
	preCheckInterval = time.Second * 2
)

type NotifyFunc func(data any)

// TaskFunc represents a runnable task.
type TaskFunc func() error

// Scheduler runs Task on a cron schedule. OnUpcoming fires Lead before each
// run; with a zero Lead it fires right before the run.
type Scheduler struct {
	OnUpcoming NotifyFunc // receives the time of the upcoming run
	OnError    NotifyFunc // receives precheck and task errors
	Task       TaskFunc
	PreCheck   TaskFunc // must pass before Task runs; retried a few times
	Lead       time.Duration

	schedule cron.Schedule
	nextRun  time.Time

	mu      sync.Mutex
	running bool

	controlCh chan controlMsg
	stopCh    chan struct{}
}

type controlKind int

const (
	ctrlRecalculate controlKind = iota // schedule replaced or cleared
	ctrlSkip                           // nextRun already moved forward
)

type controlMsg struct {
	kind controlKind
	data any
}

// wake says why sleepUntil returned.
type wake int

const (
	wakeTimer wake = iota
	wakeStop
	wakeControl
)

func NewScheduler(task, preCheck TaskFunc, onUpcoming, onError NotifyFunc) *Scheduler {
	if task == nil {
		panic("task function cannot be nil")
	}

	return &Scheduler{
		OnUpcoming: onUpcoming,
		OnError:    onError,
		Task:       task,
		PreCheck:   preCheck,
		controlCh:  make(chan controlMsg, 4),
		stopCh:     make(chan struct{}),
	}
}

func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.runScheduled()
}

// Schedule replaces the schedule with cronExpr.
func (s *Scheduler) Schedule(cronExpr string) error {
	sh, err := config.ScheduleParser.Parse(cronExpr)
	if err != nil {
		return err
	}
	s.apply(sh)
	return nil
}

// Unschedule clears the schedule. The scheduler keeps running idle.
func (s *Scheduler) Unschedule() {
	s.apply(nil)
}

func (s *Scheduler) apply(sh cron.Schedule) {
	s.mu.Lock()
	running := s.running
	if !running {
		s.setScheduleLocked(sh)
	}
	s.mu.Unlock()

	if running {
		s.trySendControl(ctrlRecalculate, sh)
	}
}

func (s *Scheduler) setScheduleLocked(sh cron.Schedule) {
	s.schedule = sh
	if sh == nil {
		s.nextRun = time.Time{}
		return
	}
	s.nextRun = sh.Next(time.Now())
}

// Skip drops the next run. The one after it becomes the next run.
func (s *Scheduler) Skip() error {
	s.mu.Lock()
	if s.schedule == nil || s.nextRun.IsZero() {
		s.mu.Unlock()
		return errors.New("no active schedule to skip")
	}
	s.nextRun = s.schedule.Next(s.nextRun)
	running := s.running
	s.mu.Unlock()

	if running {
		s.trySendControl(ctrlSkip, nil)
	}
	return nil
}

func (s *Scheduler) Status() (nextRun time.Time, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun, s.running
}

func (s *Scheduler) runScheduled() {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logrus.Debug("scheduler stopped")
	}()

	logrus.Debug("scheduler started")

	for {
		sh, next := s.snapshot()
		if sh == nil || next.IsZero() {
			if s.sleepUntil(time.Time{}) == wakeStop {
				return
			}
			continue
		}

		switch s.sleepUntil(next.Add(-s.Lead)) {
		case wakeStop:
			return
		case wakeControl:
			continue
		}
		logrus.Debugf("upcoming scheduled capture at %s", next.Format(time.DateTime))
		s.sendNotify(next)

		switch s.sleepUntil(next) {
		case wakeStop:
			return
		case wakeControl:
			continue
		}
		if s.runDue(next) == wakeStop {
			return
		}
	}
}

// sleepUntil blocks until t, Stop or a control message. A zero t waits for
// the latter two only.
func (s *Scheduler) sleepUntil(t time.Time) wake {
	var timeout <-chan time.Time
	if !t.IsZero() {
		timer := time.NewTimer(max(time.Until(t), 0))
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-timeout:
		return wakeTimer
	case <-s.stopCh:
		return wakeStop
	case msg := <-s.controlCh:
		logrus.WithFields(logrus.Fields{
			"kind": msg.kind,
			"data": msg.data,
		}).Debug("scheduler control message")
		if msg.kind == ctrlRecalculate {
			sh, _ := msg.data.(cron.Schedule)
			s.mu.Lock()
			s.setScheduleLocked(sh)
			s.mu.Unlock()
		}
		return wakeControl
	}
}

// runDue starts Task for the run at runAt once PreCheck passes. The run is
// consumed whether or not the task starts. Repeated precheck errors with the
// same text are reported once.
func (s *Scheduler) runDue(runAt time.Time) wake {
	var lastErr error
	for attempt := 0; s.PreCheck != nil; attempt++ {
		err := s.PreCheck()
		if err == nil {
			break
		}
		if lastErr == nil || err.Error() != lastErr.Error() {
			s.sendError(fmt.Errorf("precheck failed: %v", err))
		}
		lastErr = err

		if attempt >= preCheckMaxTimes {
			logrus.Warnf("dropping scheduled capture at %s: %v", runAt.Format(time.DateTime), err)
			s.advanceNextRun()
			return wakeTimer
		}
		logrus.Debugf("precheck failed (%d/%d): %v; retrying in %s", attempt+1, preCheckMaxTimes, err, preCheckInterval)
		if w := s.sleepUntil(time.Now().Add(preCheckInterval)); w != wakeTimer {
			return w
		}
	}

	logrus.Debugf("running scheduled capture at %s", runAt.Format(time.DateTime))
	go func() {
		if err := s.Task(); err != nil {
			s.sendError(fmt.Errorf("task failed: %v", err))
		}
	}()
	s.advanceNextRun()
	return wakeTimer
}

func (s *Scheduler) snapshot() (cron.Schedule, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule, s.nextRun
}

func (s *Scheduler) advanceNextRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedule == nil {
		return
	}
	// Never schedule into the past after a slow precheck or a long sleep.
	next := s.schedule.Next(s.nextRun)
	if now := time.Now(); next.Before(now) {
		next = s.schedule.Next(now)
	}
	s.nextRun = next
}

func (s *Scheduler) sendNotify(runAt time.Time) {
	if s.OnUpcoming != nil {
		go s.OnUpcoming(runAt)
	}
}

func (s *Scheduler) sendError(err error) {
	if s.OnError != nil {
		go s.OnError(err)
	}
}

func (s *Scheduler) trySendControl(kind controlKind, data any) {
	select {
	case s.controlCh <- controlMsg{kind: kind, data: data}:
	default:
	}
}
