package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Loop is the production Scheduler: one goroutine drains a callback queue,
// and robfig/cron supplies the timing.
type Loop struct {
	cron     *cron.Cron
	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once

	mu   sync.Mutex
	next Handle
	live map[Handle]cron.EntryID

	log zerolog.Logger
}

var _ Scheduler = (*Loop)(nil)

// NewLoop creates a loop. Nothing fires until Run is called.
func NewLoop(baseLogger *zerolog.Logger) *Loop {
	log := baseLogger.With().Str("component", "scheduler_loop").Logger()
	return &Loop{
		cron:  cron.New(cron.WithLogger(cronLogger{log: log})),
		queue: make(chan func(), 64),
		done:  make(chan struct{}),
		live:  make(map[Handle]cron.EntryID),
		log:   log,
	}
}

// Run processes callbacks until ctx is cancelled. It must be called exactly once.
func (l *Loop) Run(ctx context.Context) error {
	l.cron.Start()
	l.log.Info().Msg("Scheduler loop started")

	defer func() {
		l.stopOnce.Do(func() { close(l.done) })
		<-l.cron.Stop().Done()
		l.log.Info().Msg("Scheduler loop stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

func (l *Loop) Every(interval time.Duration, fn func()) Handle {
	if interval <= 0 {
		panic("scheduler: non-positive interval")
	}
	return l.schedule(everySchedule{interval: interval}, fn, false)
}

func (l *Loop) After(delay time.Duration, fn func()) Handle {
	return l.schedule(&onceSchedule{delay: delay}, fn, true)
}

func (l *Loop) schedule(s cron.Schedule, fn func(), once bool) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	h := l.next
	// The cron goroutine only enqueues; fire decides on the loop whether h is still live.
	id := l.cron.Schedule(s, cron.FuncJob(func() {
		l.post(func() { l.fire(h, fn, once) })
	}))
	l.live[h] = id
	return h
}

func (l *Loop) fire(h Handle, fn func(), once bool) {
	l.mu.Lock()
	id, ok := l.live[h]
	if ok && once {
		delete(l.live, h)
	}
	l.mu.Unlock()

	if !ok {
		return // cancelled after the timer expired
	}
	if once {
		l.cron.Remove(id)
	}
	fn()
}

func (l *Loop) Cancel(h Handle) {
	l.mu.Lock()
	id, ok := l.live[h]
	delete(l.live, h)
	l.mu.Unlock()

	if ok {
		l.cron.Remove(id)
	}
}

func (l *Loop) Async(work func(), done func()) {
	go func() {
		work()
		l.post(done)
	}()
}

// Do runs fn on the loop. If the loop has already stopped, fn is dropped.
func (l *Loop) Do(fn func()) {
	finished := make(chan struct{})
	l.post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
	case <-l.done:
	}
}

func (l *Loop) Now() time.Time { return time.Now() }

func (l *Loop) post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// everySchedule is a fixed-delay cron.Schedule with sub-second resolution
// (cron.Every rounds to whole seconds).
type everySchedule struct {
	interval time.Duration
}

func (s everySchedule) Next(t time.Time) time.Time { return t.Add(s.interval) }

// onceSchedule fires once; a zero Next parks the entry forever.
// cron only calls Next from its own goroutine.
type onceSchedule struct {
	delay time.Duration
	fired bool
}

func (s *onceSchedule) Next(t time.Time) time.Time {
	if s.fired {
		return time.Time{}
	}
	s.fired = true
	return t.Add(s.delay)
}

// cronLogger routes cron's internal logging into zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
