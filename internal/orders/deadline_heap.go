package orders

import (
	"container/heap"
	"time"

	"github.com/google/uuid"
)

type scheduled struct {
	orderID  uuid.UUID
	storeID  uuid.UUID
	deadline time.Time
	timer    Timer
	index    int
}

// deadlineHeap is a min-heap of pending orders keyed by acknowledgment deadline.
type deadlineHeap []*scheduled

var _ heap.Interface = (*deadlineHeap)(nil)

func (h deadlineHeap) Len() int { return len(h) }

func (h deadlineHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].orderID.String() < h[j].orderID.String()
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h deadlineHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *deadlineHeap) Push(x any) {
	item := x.(*scheduled)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

func (h deadlineHeap) peek() *scheduled {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// until collects entries due at or before horizon, pruning subtrees that start later.
func (h deadlineHeap) until(horizon time.Time, out []*scheduled) []*scheduled {
	var walk func(i int)
	walk = func(i int) {
		if i >= len(h) || h[i].deadline.After(horizon) {
			return
		}
		out = append(out, h[i])
		walk(2*i + 1)
		walk(2*i + 2)
	}
	walk(0)
	return out
}
