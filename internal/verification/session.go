// Package verification tracks the asynchronous verification of a submitted registration.
//
// A Session polls the status API on a fixed cadence, animates a progress value while
// the outcome is unknown, flags a stalled verification after a deadline and stops after
// too many transport failures in a row. All of its state is owned by the scheduler loop;
// every timer callback carries the generation it was scheduled under and does nothing
// once that generation has been superseded.
package verification

import (
	"AssocVerify/internal/core/domain"
	"AssocVerify/internal/core/ports"
	"AssocVerify/internal/scheduler"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Phase is the state machine position of a session.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePolling  Phase = "polling"
	PhaseTimedOut Phase = "timed_out" // deadline passed, still polling
	PhaseResolved Phase = "resolved"
)

// Outcome describes how a resolved attempt ended.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeVerified Outcome = "verified"
	OutcomeFailed   Outcome = "failed"
	// OutcomeDegraded means polling stopped after repeated transport failures
	// without the server ever confirming an outcome.
	OutcomeDegraded Outcome = "degraded"
)

// User-facing copy. The degraded and deadline texts must never read like a confirmed failure.
const (
	msgSubmitted = "Registration submitted. Your documents are being verified."
	msgVerified  = "Your association has been verified."
	msgFailed    = "Verification failed."
	msgSlow      = "Verification is taking longer than expected. We are still checking."
	msgDegraded  = "Verification is taking longer than expected. Please retry in a moment."
)

var (
	ErrSessionActive = errors.New("verification session already active")
	ErrSessionClosed = errors.New("verification session closed")
	ErrIDMismatch    = errors.New("verification record belongs to another association")
)

// PollingState is the bookkeeping of the current attempt.
type PollingState struct {
	AttemptCount        int
	ConsecutiveFailures int
	VisibleProgress     int
	Generation          uint64
	DeadlineReached     bool
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID        domain.AssociationID
	Phase     Phase
	Outcome   Outcome
	Record    domain.VerificationRecord
	State     PollingState
	StartedAt time.Time
}

type timerSet struct {
	poll     scheduler.Handle
	deadline scheduler.Handle
	progress scheduler.Handle
}

// Session owns the polling state machine for one association.
type Session struct {
	id       domain.AssociationID
	sched    scheduler.Scheduler
	client   ports.StatusQueryClient
	notifier ports.Notifier
	policy   Policy
	progress ProgressSimulator
	baseLog  zerolog.Logger

	// Loop-owned from here on.
	log         zerolog.Logger
	generation  uint64
	phase       Phase
	outcome     Outcome
	closed      bool
	state       PollingState
	record      domain.VerificationRecord
	startedAt   time.Time
	inFlight    bool
	timers      timerSet
	noticeCtx   context.Context
	queryCtx    context.Context
	cancelQuery context.CancelFunc
	done        chan struct{}
}

// NewSession creates an idle session bound to one association.
func NewSession(
	id domain.AssociationID,
	sched scheduler.Scheduler,
	client ports.StatusQueryClient,
	notifier ports.Notifier,
	policy Policy,
	baseLogger *zerolog.Logger,
) (*Session, error) {
	if id == "" {
		return nil, errors.New("association id is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid polling policy: %w", err)
	}

	log := baseLogger.With().
		Str("component", "verification_session").
		Str("association_id", id.String()).
		Str("session_id", uuid.NewString()).
		Logger()

	return &Session{
		id:        id,
		sched:     sched,
		client:    client,
		notifier:  notifier,
		policy:    policy,
		progress:  policy.simulator(),
		baseLog:   log,
		log:       log,
		phase:     PhaseIdle,
		record:    domain.VerificationRecord{ID: id, Status: domain.VerificationPending},
		noticeCtx: context.Background(),
		done:      make(chan struct{}),
	}, nil
}

// Begin starts an attempt from the record returned by registration.
// A terminal record resolves immediately and never polls.
func (s *Session) Begin(ctx context.Context, initial domain.VerificationRecord) error {
	var err error
	s.sched.Do(func() { err = s.begin(ctx, initial) })
	return err
}

// Retry discards the current attempt and starts polling again for the same association.
func (s *Session) Retry(ctx context.Context) error {
	var err error
	s.sched.Do(func() {
		if s.closed {
			err = ErrSessionClosed
			return
		}
		s.reset()
		err = s.begin(ctx, domain.VerificationRecord{ID: s.id, Status: domain.VerificationPending})
	})
	return err
}

// Reset cancels all timers of the current attempt and returns to Idle.
func (s *Session) Reset() {
	s.sched.Do(func() {
		if s.closed {
			return
		}
		s.reset()
	})
}

// Close tears the session down for good (the owning view went away).
func (s *Session) Close() {
	s.sched.Do(func() {
		if s.closed {
			return
		}
		s.endSession()
		s.phase = PhaseIdle
		s.closed = true
		s.log.Info().Msg("Verification session closed")
	})
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	var snap Snapshot
	s.sched.Do(func() {
		snap = Snapshot{
			ID:        s.id,
			Phase:     s.phase,
			Outcome:   s.outcome,
			Record:    s.record,
			State:     s.state,
			StartedAt: s.startedAt,
		}
	})
	return snap
}

// Done returns a channel closed when the current (or next) attempt ends.
func (s *Session) Done() <-chan struct{} {
	var ch chan struct{}
	s.sched.Do(func() { ch = s.done })
	return ch
}

func (s *Session) begin(ctx context.Context, initial domain.VerificationRecord) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.phase != PhaseIdle {
		return ErrSessionActive
	}
	if initial.ID != s.id {
		return fmt.Errorf("%w: got %s", ErrIDMismatch, initial.ID)
	}
	if !initial.Status.Valid() {
		return fmt.Errorf("invalid initial verification status %q", initial.Status)
	}

	s.generation++
	gen := s.generation
	s.state = PollingState{Generation: gen}
	s.record = initial
	s.outcome = OutcomeNone
	s.startedAt = s.sched.Now()
	s.noticeCtx = context.WithoutCancel(ctx)
	s.log = s.baseLog.With().Uint64("generation", gen).Logger()
	if isClosed(s.done) {
		s.done = make(chan struct{})
	}

	if initial.Status.IsTerminal() {
		s.log.Info().Str("status", string(initial.Status)).Msg("Registration already resolved, not polling")
		s.resolve(initial)
		return nil
	}

	s.queryCtx, s.cancelQuery = context.WithCancel(s.noticeCtx)
	s.phase = PhasePolling
	s.timers = timerSet{
		poll:     s.sched.Every(s.policy.PollInterval, func() { s.onPollTick(gen) }),
		deadline: s.sched.After(s.policy.Deadline, func() { s.onDeadline(gen) }),
		progress: s.sched.Every(s.policy.ProgressInterval, func() { s.onProgressTick(gen) }),
	}

	s.log.Info().
		Dur("poll_interval", s.policy.PollInterval).
		Dur("deadline", s.policy.Deadline).
		Msg("Verification polling started")
	s.notify(domain.NoticeInfo, msgSubmitted)
	return nil
}

func (s *Session) reset() {
	s.endSession()
	s.phase = PhaseIdle
	s.outcome = OutcomeNone
	s.state = PollingState{Generation: s.generation}
	s.record = domain.VerificationRecord{ID: s.id, Status: domain.VerificationPending}
	s.log.Info().Msg("Verification session reset")
}

// endSession is the one teardown path: it cancels all three timers, aborts an in-flight
// query and bumps the generation in a single loop step.
func (s *Session) endSession() {
	s.sched.Cancel(s.timers.poll)
	s.sched.Cancel(s.timers.deadline)
	s.sched.Cancel(s.timers.progress)
	s.timers = timerSet{}

	if s.cancelQuery != nil {
		s.cancelQuery()
		s.cancelQuery = nil
	}
	s.inFlight = false

	s.generation++
	s.state.Generation = s.generation

	if !isClosed(s.done) {
		close(s.done)
	}
}

func (s *Session) current(gen uint64) bool {
	return !s.closed && gen == s.generation
}

func (s *Session) onPollTick(gen uint64) {
	if !s.current(gen) {
		return
	}
	if s.inFlight {
		s.log.Debug().Msg("Previous status query still running, skipping tick")
		return
	}

	s.inFlight = true
	s.state.AttemptCount++
	attempt := s.state.AttemptCount
	ctx := s.queryCtx

	var (
		rec *domain.VerificationRecord
		err error
	)
	s.sched.Async(func() {
		rec, err = s.client.Query(ctx, s.id)
	}, func() {
		s.onQueryResult(gen, attempt, rec, err)
	})
}

func (s *Session) onQueryResult(gen uint64, attempt int, rec *domain.VerificationRecord, err error) {
	if !s.current(gen) {
		s.baseLog.Debug().Uint64("stale_generation", gen).Msg("Dropping status result of a superseded attempt")
		return
	}
	s.inFlight = false

	if err == nil && rec == nil {
		err = errors.New("status query returned no record")
	}
	if err == nil && !rec.Status.Valid() {
		err = fmt.Errorf("status query returned unknown status %q", rec.Status)
	}

	if err != nil {
		s.state.ConsecutiveFailures++
		s.log.Warn().Err(err).
			Int("attempt", attempt).
			Int("consecutive_failures", s.state.ConsecutiveFailures).
			Msg("Status query failed")
		if s.policy.failuresExceeded(s.state.ConsecutiveFailures) {
			s.halt()
		}
		return
	}

	s.state.ConsecutiveFailures = 0
	if !rec.Status.IsTerminal() {
		s.log.Debug().Int("attempt", attempt).Msg("Verification still pending")
		return
	}

	result := *rec
	result.ID = s.id
	s.resolve(result)
}

func (s *Session) onDeadline(gen uint64) {
	if !s.current(gen) || s.state.DeadlineReached {
		return
	}
	s.state.DeadlineReached = true
	s.phase = PhaseTimedOut
	s.timers.deadline = 0

	// Polling goes on; only the simulated progress stops.
	s.sched.Cancel(s.timers.progress)
	s.timers.progress = 0
	s.state.VisibleProgress = 100

	s.log.Warn().
		Int("attempts", s.state.AttemptCount).
		Dur("elapsed", s.sched.Now().Sub(s.startedAt)).
		Msg("Verification deadline reached while pending")
	s.notify(domain.NoticeInfo, msgSlow)
}

func (s *Session) onProgressTick(gen uint64) {
	if !s.current(gen) || s.phase != PhasePolling {
		return
	}
	s.state.VisibleProgress = s.progress.Advance(s.state.VisibleProgress)
}

// resolve ends the attempt on a server-confirmed terminal status.
func (s *Session) resolve(rec domain.VerificationRecord) {
	s.record = rec
	s.endSession()
	s.phase = PhaseResolved
	s.state.VisibleProgress = 100

	s.log.Info().
		Str("status", string(rec.Status)).
		Int("attempts", s.state.AttemptCount).
		Msg("Verification resolved")

	if rec.Status == domain.VerificationVerified {
		s.outcome = OutcomeVerified
		s.notify(domain.NoticeSuccess, msgVerified)
		return
	}
	s.outcome = OutcomeFailed
	s.notify(domain.NoticeError, failedMessage(rec))
}

// halt ends the attempt after too many consecutive transport failures.
func (s *Session) halt() {
	s.endSession()
	s.phase = PhaseResolved
	s.outcome = OutcomeDegraded
	s.state.VisibleProgress = 100

	s.log.Error().
		Int("attempts", s.state.AttemptCount).
		Int("consecutive_failures", s.state.ConsecutiveFailures).
		Msg("Status queries keep failing, polling halted")
	s.notify(domain.NoticeError, msgDegraded)
}

func (s *Session) notify(kind domain.NoticeKind, message string) {
	s.notifier.Notify(s.noticeCtx, kind, message)
}

func failedMessage(rec domain.VerificationRecord) string {
	if notes := rec.NotesOrEmpty(); notes != "" {
		return msgFailed + " " + notes
	}
	return msgFailed
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
