package sim

import "container/heap"

type queued struct {
	event Event
	seq   uint64
}

// eventHeap is a min-heap ordered by (timestamp, insertion sequence), so
// events sharing a timestamp come out in the order they went in.
type eventHeap []queued

func (h eventHeap) Len() int      { return len(h) }
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h eventHeap) Less(i, j int) bool {
	ti, tj := h[i].event.Timestamp(), h[j].event.Timestamp()
	if ti != tj {
		return ti < tj
	}
	return h[i].seq < h[j].seq
}

func (h *eventHeap) Push(x any) { *h = append(*h, x.(queued)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = queued{}
	*h = old[:n-1]
	return item
}

// Queue is a priority queue of events, earliest timestamp first, FIFO among
// equal timestamps.
type Queue struct {
	items eventHeap
	seq   uint64
}

func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(&q.items)
	return q
}

func (q *Queue) Push(e Event) {
	q.seq++
	heap.Push(&q.items, queued{event: e, seq: q.seq})
}

// Pop removes and returns the next event. ok is false when the queue is empty.
func (q *Queue) Pop() (e Event, ok bool) {
	if q.items.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(queued).event, true
}

func (q *Queue) Len() int { return q.items.Len() }
