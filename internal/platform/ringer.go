package platform

import (
	"container/heap"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// RingEvent is emitted once when an alarm fires. A fired alarm disappears
// from the pending list without further notice, exactly like a platform
// alarm being consumed by the OS.
type RingEvent struct {
	ID     string
	FireAt time.Time
	Label  string
	RangAt time.Time
}

type alarmEntry struct {
	id     string
	fireAt time.Time
	label  string
	paused bool
}

type queueRef struct {
	id     string
	fireAt time.Time
}

type ringQueue []queueRef

func (q ringQueue) Len() int { return len(q) }

func (q ringQueue) Less(i, j int) bool {
	return q[i].fireAt.Before(q[j].fireAt)
}

func (q ringQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *ringQueue) Push(x any) {
	*q = append(*q, x.(queueRef))
}

func (q *ringQueue) Pop() any {
	old := *q
	n := len(old)
	ref := old[n-1]
	*q = old[0 : n-1]
	return ref
}

// Ringer is the in-process alarm clock behind LocalService: a heap of armed
// alarms drained by a single timer goroutine. Cancelled and paused alarms
// leave stale refs in the heap; the drain loop skips them against the entry
// map, so mutation stays O(log n) without heap surgery.
type Ringer struct {
	mu      sync.Mutex
	queue   ringQueue
	entries map[string]*alarmEntry
	out     chan RingEvent
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewRinger(bufferSize int) *Ringer {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Ringer{
		queue:   make(ringQueue, 0),
		entries: make(map[string]*alarmEntry),
		out:     make(chan RingEvent, bufferSize),
		wakeup:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func (r *Ringer) C() <-chan RingEvent {
	return r.out
}

func (r *Ringer) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	heap.Init(&r.queue)
	go r.loop()
}

func (r *Ringer) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	close(r.stopCh)
	r.mu.Unlock()
	<-r.doneCh
}

func (r *Ringer) Arm(id string, fireAt time.Time, label string) error {
	if id == "" {
		return errors.New("platform: alarm id is required")
	}
	if fireAt.IsZero() {
		return ErrInvalidFireTime
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return errors.New("platform: ringer stopped")
	}
	if _, exists := r.entries[id]; exists {
		return ErrDuplicateID
	}

	r.entries[id] = &alarmEntry{id: id, fireAt: fireAt, label: label}
	heap.Push(&r.queue, queueRef{id: id, fireAt: fireAt})
	r.signalWakeup()
	return nil
}

func (r *Ringer) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; !exists {
		return ErrAlarmNotFound
	}
	delete(r.entries, id)
	r.signalWakeup()
	return nil
}

func (r *Ringer) Pause(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.entries[id]
	if !exists {
		return ErrAlarmNotFound
	}
	entry.paused = true
	return nil
}

// Resume re-arms a paused alarm. An alarm whose fire time passed while
// paused rings immediately.
func (r *Ringer) Resume(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.entries[id]
	if !exists {
		return ErrAlarmNotFound
	}
	if !entry.paused {
		return nil
	}
	entry.paused = false
	heap.Push(&r.queue, queueRef{id: id, fireAt: entry.fireAt})
	r.signalWakeup()
	return nil
}

// Pending lists the alarms the ringer still knows about, soonest first.
// Fired alarms are gone by the time this is called.
func (r *Ringer) Pending() []AlarmView {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]AlarmView, 0, len(r.entries))
	for _, entry := range r.entries {
		state := AlarmStateScheduled
		if entry.paused {
			state = AlarmStatePaused
		}
		out = append(out, AlarmView{ID: entry.id, FireAt: entry.fireAt, State: state})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

func (r *Ringer) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}

func (r *Ringer) loop() {
	defer close(r.doneCh)
	defer close(r.out)

	var timer *time.Timer
	for {
		next, hasNext := r.peek()
		if !hasNext {
			select {
			case <-r.wakeup:
				continue
			case <-r.stopCh:
				return
			}
		}

		wait := time.Until(next.fireAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, ev := range r.popDue(time.Now().UTC()) {
				select {
				case r.out <- ev:
				default:
					atomic.AddUint64(&r.dropped, 1)
				}
			}
		case <-r.wakeup:
			continue
		case <-r.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (r *Ringer) signalWakeup() {
	select {
	case r.wakeup <- struct{}{}:
	default:
	}
}

func (r *Ringer) peek() (queueRef, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.queue) > 0 {
		ref := r.queue[0]
		if r.refLive(ref) {
			return ref, true
		}
		heap.Pop(&r.queue)
	}
	return queueRef{}, false
}

func (r *Ringer) popDue(now time.Time) []RingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RingEvent, 0)
	for len(r.queue) > 0 {
		ref := r.queue[0]
		if ref.fireAt.After(now) {
			break
		}
		heap.Pop(&r.queue)
		if !r.refLive(ref) {
			continue
		}
		entry := r.entries[ref.id]
		delete(r.entries, ref.id)
		out = append(out, RingEvent{ID: entry.id, FireAt: entry.fireAt, Label: entry.label, RangAt: now})
	}
	return out
}

// refLive must be called with the mutex held. A ref is stale when its alarm
// was cancelled or re-armed, or is paused and therefore not runnable.
func (r *Ringer) refLive(ref queueRef) bool {
	entry, exists := r.entries[ref.id]
	if !exists {
		return false
	}
	if entry.paused {
		return false
	}
	return entry.fireAt.Equal(ref.fireAt)
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
