package scheduler

import "time"

// Manual is a Scheduler driven by a virtual clock. Time only moves on Advance,
// and everything runs on the caller's goroutine, so it is not safe for concurrent use.
type Manual struct {
	now    time.Time
	next   Handle
	timers map[Handle]*manualTimer

	// HoldAsync queues Async calls until Flush instead of running them inline.
	HoldAsync bool
	held      []func()
}

type manualTimer struct {
	at    time.Time
	every time.Duration // zero for one-shot timers
	fn    func()
}

var _ Scheduler = (*Manual)(nil)

// NewManual returns a Manual whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:    start,
		timers: make(map[Handle]*manualTimer),
	}
}

func (m *Manual) Every(interval time.Duration, fn func()) Handle {
	if interval <= 0 {
		panic("scheduler: non-positive interval")
	}
	return m.add(&manualTimer{at: m.now.Add(interval), every: interval, fn: fn})
}

func (m *Manual) After(delay time.Duration, fn func()) Handle {
	return m.add(&manualTimer{at: m.now.Add(delay), fn: fn})
}

func (m *Manual) add(t *manualTimer) Handle {
	m.next++
	m.timers[m.next] = t
	return m.next
}

func (m *Manual) Cancel(h Handle) {
	delete(m.timers, h)
}

func (m *Manual) Async(work func(), done func()) {
	if m.HoldAsync {
		m.held = append(m.held, func() {
			work()
			done()
		})
		return
	}
	work()
	done()
}

// Flush completes held Async calls in submission order.
func (m *Manual) Flush() {
	for len(m.held) > 0 {
		fn := m.held[0]
		m.held = m.held[1:]
		fn()
	}
}

func (m *Manual) Do(fn func()) { fn() }

func (m *Manual) Now() time.Time { return m.now }

// Pending reports how many timers are still scheduled.
func (m *Manual) Pending() int { return len(m.timers) }

// Advance moves the clock forward by d, firing due timers in time order.
// Timers due at the same instant fire in the order they were scheduled.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		h, t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.at
		if t.every > 0 {
			t.at = t.at.Add(t.every)
		} else {
			delete(m.timers, h)
		}
		t.fn()
	}
	m.now = target
}

func (m *Manual) nextDue(target time.Time) (Handle, *manualTimer) {
	var (
		bestH Handle
		best  *manualTimer
	)
	for h, t := range m.timers {
		if t.at.After(target) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && h < bestH) {
			bestH, best = h, t
		}
	}
	return bestH, best
}
