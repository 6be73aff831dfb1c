/*
Package match implements the anonymous pairing engine: a bucketed wait-time
priority queue and the Matchmaker scheduling loop that drives it.

This file defines the PriorityQueue, which groups waiting users into wait-time
bands (buckets) and selects pairs by a time-weighted, jittered priority score.
*/
package match

import (
	"math/rand"
	"slices"
	"sync"
	"time"

	"havenchat/internal/pkg/randx"
)

// BucketCount is the number of wait-time bands users are classified into.
const BucketCount = 4

// DefaultBucketThresholds are the upper bounds of buckets 0..2.
// Bucket 3 holds everyone who has waited at least the last threshold.
var DefaultBucketThresholds = [BucketCount - 1]time.Duration{
	1 * time.Second,
	3 * time.Second,
	6 * time.Second,
}

// waiter is a single queued user. One waiter per user id at any time.
type waiter struct {
	userID   string
	joinedAt time.Time
	priority float64
	bucket   int
}

// Result describes a confirmed pairing. Both users have already been removed
// from the queue when a Result is produced.
type Result struct {
	UserA     string
	UserB     string
	SessionID string
}

// QueueStatus is a point-in-time snapshot of queue occupancy.
type QueueStatus struct {
	Total    int              `json:"total"`
	ByBucket [BucketCount]int `json:"byBucket"`
}

// PriorityQueue holds waiting users grouped by wait-time band.
//
// The bucket slices and the id index are always mutated together under mu;
// every queued user appears in exactly one bucket and in the index. Bucket
// membership may lag real elapsed time between Rebalance passes.
type PriorityQueue struct {
	mu         sync.Mutex
	buckets    [BucketCount][]*waiter
	index      map[string]*waiter
	thresholds [BucketCount - 1]time.Duration

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewPriorityQueue creates an empty queue with the given bucket thresholds.
func NewPriorityQueue(thresholds [BucketCount - 1]time.Duration) *PriorityQueue {
	return &PriorityQueue{
		index:      make(map[string]*waiter),
		thresholds: thresholds,
		now:        time.Now,
	}
}

// bucketForWait returns the band a user with the given elapsed wait belongs to.
func (q *PriorityQueue) bucketForWait(wait time.Duration) int {
	for i, limit := range q.thresholds {
		if wait < limit {
			return i
		}
	}
	return BucketCount - 1
}

// score computes a fresh priority for the given wait time: elapsed milliseconds
// scaled by a uniform jitter in [0.8, 1.2]. Longer waits dominate in
// expectation while near-simultaneous joiners are not ordered deterministically.
func score(wait time.Duration) float64 {
	jitter := 0.8 + 0.4*rand.Float64()
	return float64(wait.Milliseconds()) * jitter
}

// Add inserts the user into bucket 0 with a fresh join time. If the user is
// already queued, the stale entry is removed first: re-joining resets the wait
// rather than accumulating it.
func (q *PriorityQueue) Add(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if old, ok := q.index[userID]; ok {
		q.dropLocked(old)
	}

	w := &waiter{
		userID:   userID,
		joinedAt: q.now(),
		bucket:   0,
	}
	w.priority = score(0)

	q.buckets[0] = append(q.buckets[0], w)
	q.index[userID] = w
}

// Remove takes the user out of whichever bucket holds it. It reports whether
// the user was queued; removing an absent user is a no-op.
func (q *PriorityQueue) Remove(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	w, ok := q.index[userID]
	if !ok {
		return false
	}

	q.dropLocked(w)
	return true
}

// dropLocked removes w from its bucket and the index. Caller holds mu.
func (q *PriorityQueue) dropLocked(w *waiter) {
	b := q.buckets[w.bucket]
	for i, cur := range b {
		if cur == w {
			q.buckets[w.bucket] = slices.Delete(b, i, i+1)
			break
		}
	}
	delete(q.index, w.userID)
}

// Contains reports whether the user is currently queued.
func (q *PriorityQueue) Contains(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.index[userID]
	return ok
}

// Status returns the current total and per-bucket occupancy.
func (q *PriorityQueue) Status() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	var s QueueStatus
	for i, b := range q.buckets {
		s.ByBucket[i] = len(b)
		s.Total += len(b)
	}
	return s
}

// Len returns the number of queued users.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.index)
}

// FindMatch scans buckets from the longest-waiting band down and, in the first
// bucket with at least two members, re-scores everyone with fresh jitter and
// pops the two highest-priority users. Pairs are never formed across bucket
// boundaries: a bucket with a single member waits for company or for a
// rebalance pass to move it.
func (q *PriorityQueue) FindMatch() (Result, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()

	for i := BucketCount - 1; i >= 0; i-- {
		b := q.buckets[i]
		if len(b) < 2 {
			continue
		}

		for _, w := range b {
			w.priority = score(now.Sub(w.joinedAt))
		}

		slices.SortFunc(b, func(a, c *waiter) int {
			switch {
			case a.priority > c.priority:
				return -1
			case a.priority < c.priority:
				return 1
			default:
				return 0
			}
		})

		first, second := b[0], b[1]
		q.buckets[i] = b[2:]
		delete(q.index, first.userID)
		delete(q.index, second.userID)

		return Result{
			UserA:     first.userID,
			UserB:     second.userID,
			SessionID: randx.SessionID(),
		}, true
	}

	return Result{}, false
}

// Rebalance reclassifies every queued user into the band matching its current
// elapsed wait. A user whose band changed is moved to the new bucket and its
// priority compounded by (1 + waitMillis/10000), so long waiters keep gaining
// weight on top of the jittered base score.
func (q *PriorityQueue) Rebalance() {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()

	for i := range q.buckets {
		kept := q.buckets[i][:0]
		for _, w := range q.buckets[i] {
			wait := now.Sub(w.joinedAt)
			target := q.bucketForWait(wait)
			if target == i {
				kept = append(kept, w)
				continue
			}

			w.bucket = target
			w.priority = score(wait) * (1 + float64(wait.Milliseconds())/10000)
			q.buckets[target] = append(q.buckets[target], w)
		}
		q.buckets[i] = kept
	}
}
