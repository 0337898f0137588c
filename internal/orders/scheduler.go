package orders

import (
	"container/heap"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Deadline is a point-in-time snapshot of a pending order's acknowledgment deadline.
type Deadline struct {
	OrderID  uuid.UUID `json:"order_id"`
	StoreID  uuid.UUID `json:"store_id"`
	Deadline time.Time `json:"deadline"`
}

// Scheduler owns one expiry timer per pending order plus a per-store deadline heap.
// fire is invoked from the timer goroutine and never while the scheduler lock is held.
type Scheduler struct {
	clock Clock
	fire  func(orderID uuid.UUID)

	mu     sync.Mutex
	byID   map[uuid.UUID]*scheduled
	queues map[uuid.UUID]*deadlineHeap
}

// NewScheduler wires fire as the expiry callback.
func NewScheduler(clock Clock, fire func(orderID uuid.UUID)) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{
		clock:  clock,
		fire:   fire,
		byID:   map[uuid.UUID]*scheduled{},
		queues: map[uuid.UUID]*deadlineHeap{},
	}
}

// Schedule arms the countdown for orderID, replacing any earlier one.
func (s *Scheduler) Schedule(orderID, storeID uuid.UUID, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(orderID)

	entry := &scheduled{orderID: orderID, storeID: storeID, deadline: deadline}
	queue, ok := s.queues[storeID]
	if !ok {
		queue = &deadlineHeap{}
		s.queues[storeID] = queue
	}
	heap.Push(queue, entry)
	s.byID[orderID] = entry

	delay := deadline.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	entry.timer = s.clock.AfterFunc(delay, func() {
		if s.fire != nil {
			s.fire(orderID)
		}
	})
}

// Cancel stops the countdown and forgets the deadline. It reports whether one was armed.
func (s *Scheduler) Cancel(orderID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(orderID)
}

func (s *Scheduler) removeLocked(orderID uuid.UUID) bool {
	entry, ok := s.byID[orderID]
	if !ok {
		return false
	}
	delete(s.byID, orderID)
	if entry.timer != nil {
		entry.timer.Stop()
	}
	if queue, ok := s.queues[entry.storeID]; ok && entry.index >= 0 {
		heap.Remove(queue, entry.index)
		if queue.Len() == 0 {
			delete(s.queues, entry.storeID)
		}
	}
	return true
}

// MostUrgent returns the pending order of storeID with the earliest deadline.
func (s *Scheduler) MostUrgent(storeID uuid.UUID) (Deadline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, ok := s.queues[storeID]
	if !ok {
		return Deadline{}, false
	}
	top := queue.peek()
	if top == nil {
		return Deadline{}, false
	}
	return Deadline{OrderID: top.orderID, StoreID: top.storeID, Deadline: top.deadline}, true
}

// DueBy lists every armed deadline at or before horizon, earliest first.
func (s *Scheduler) DueBy(horizon time.Time) []Deadline {
	s.mu.Lock()
	var due []*scheduled
	for _, queue := range s.queues {
		due = queue.until(horizon, due)
	}
	out := make([]Deadline, 0, len(due))
	for _, entry := range due {
		out = append(out, Deadline{OrderID: entry.orderID, StoreID: entry.storeID, Deadline: entry.deadline})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out
}

// Armed reports how many countdowns are outstanding.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Stop cancels every countdown. Used on shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.byID {
		s.removeLocked(id)
	}
}
