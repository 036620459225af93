package cache

import (
	"container/heap"
	"time"
)

// expiryItem is one scheduled deadline in the expiry queue.
type expiryItem struct {
	key string
	at  time.Time
}

// expiryQueue orders keys by expiration deadline so the next entry due is
// always available in O(1) and every mutation costs O(log n). Keys without
// a deadline are simply never scheduled. Not safe for concurrent use.
//
// The queue is a binary min-heap with a position index so deadlines can be
// cancelled or rescheduled by key when an entry is deleted, evicted, or
// overwritten with a different TTL.
type expiryQueue struct {
	heap []expiryItem
	pos  map[string]int
}

func newExpiryQueue() *expiryQueue {
	return &expiryQueue{pos: make(map[string]int)}
}

// heap.Interface

func (q *expiryQueue) Len() int { return len(q.heap) }

func (q *expiryQueue) Less(i, j int) bool {
	return q.heap[i].at.Before(q.heap[j].at)
}

func (q *expiryQueue) Swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.pos[q.heap[i].key] = i
	q.pos[q.heap[j].key] = j
}

func (q *expiryQueue) Push(x any) {
	item := x.(expiryItem)
	q.pos[item.key] = len(q.heap)
	q.heap = append(q.heap, item)
}

func (q *expiryQueue) Pop() any {
	last := len(q.heap) - 1
	item := q.heap[last]
	q.heap = q.heap[:last]
	delete(q.pos, item.key)
	return item
}

// schedule records or replaces the deadline for key.
func (q *expiryQueue) schedule(key string, at time.Time) {
	if i, ok := q.pos[key]; ok {
		q.heap[i].at = at
		heap.Fix(q, i)
		return
	}
	heap.Push(q, expiryItem{key: key, at: at})
}

// cancel drops the deadline for key if one is scheduled.
func (q *expiryQueue) cancel(key string) {
	if i, ok := q.pos[key]; ok {
		heap.Remove(q, i)
	}
}

// peek returns the earliest scheduled deadline without removing it.
func (q *expiryQueue) peek() (string, time.Time, bool) {
	if len(q.heap) == 0 {
		return "", time.Time{}, false
	}
	return q.heap[0].key, q.heap[0].at, true
}

// pop removes and returns the earliest scheduled key.
func (q *expiryQueue) pop() string {
	return heap.Pop(q).(expiryItem).key
}

func (q *expiryQueue) reset() {
	q.heap = q.heap[:0]
	q.pos = make(map[string]int)
}
