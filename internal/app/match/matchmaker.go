/*
Package match implements the anonymous pairing engine: a bucketed wait-time
priority queue and the Matchmaker scheduling loop that drives it.

This file defines the Matchmaker, which owns the PriorityQueue and runs the
periodic matching and rebalancing tickers, publishing results to subscribers.
*/
package match

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"havenchat/internal/pkg/logx"
)

const (
	// DefaultMatchTick is how often the scheduler attempts a match scan.
	DefaultMatchTick = 50 * time.Millisecond

	// DefaultMatchWindow is the minimum gap between two match scans. A tick
	// firing sooner than this after the last successful match is skipped.
	DefaultMatchWindow = 50 * time.Millisecond

	// DefaultRebalanceTick is how often queued users are reclassified into
	// the bucket matching their elapsed wait.
	DefaultRebalanceTick = 2 * time.Second
)

// Config carries the scheduler cadences and bucket thresholds.
type Config struct {
	MatchTick        time.Duration
	MatchWindow      time.Duration
	RebalanceTick    time.Duration
	BucketThresholds [BucketCount - 1]time.Duration
}

// DefaultConfig returns the production cadences.
func DefaultConfig() Config {
	return Config{
		MatchTick:        DefaultMatchTick,
		MatchWindow:      DefaultMatchWindow,
		RebalanceTick:    DefaultRebalanceTick,
		BucketThresholds: DefaultBucketThresholds,
	}
}

// Subscriber receives each confirmed pairing exactly once. Subscribers are
// invoked synchronously from the scheduling goroutine (or from AddUser on the
// eager path) and must hand off slow work themselves.
type Subscriber func(Result)

// Matchmaker owns the PriorityQueue and drives it on two independent cadences:
// a fast match tick with a throttle window, and a slower rebalance tick.
// It is an explicit service object with Start/Stop lifecycle; the composition
// root owns the single instance.
type Matchmaker struct {
	cfg   Config
	queue *PriorityQueue

	mu          sync.Mutex
	lastMatch   time.Time
	subscribers []Subscriber
	running     bool

	stop   chan struct{}
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// New constructs a stopped Matchmaker with the given configuration.
// Zero durations fall back to the defaults.
func New(cfg Config) *Matchmaker {
	def := DefaultConfig()
	if cfg.MatchTick <= 0 {
		cfg.MatchTick = def.MatchTick
	}
	if cfg.MatchWindow <= 0 {
		cfg.MatchWindow = def.MatchWindow
	}
	if cfg.RebalanceTick <= 0 {
		cfg.RebalanceTick = def.RebalanceTick
	}
	var zero [BucketCount - 1]time.Duration
	if cfg.BucketThresholds == zero {
		cfg.BucketThresholds = def.BucketThresholds
	}

	return &Matchmaker{
		cfg:    cfg,
		queue:  NewPriorityQueue(cfg.BucketThresholds),
		stop:   make(chan struct{}),
		logger: logx.Logger().With().Str("component", "Matchmaker").Logger(),
	}
}

// Subscribe registers fn to receive every future match result.
// All subscriptions must happen before Start.
func (m *Matchmaker) Subscribe(fn Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscribers = append(m.subscribers, fn)
}

// Start launches the matching and rebalancing loops. Calling Start on a
// running Matchmaker is a no-op.
func (m *Matchmaker) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	m.logger.Info().
		Dur("match_tick", m.cfg.MatchTick).
		Dur("rebalance_tick", m.cfg.RebalanceTick).
		Msg("Matchmaker starting.")

	m.wg.Add(1)
	go m.run()
}

// Stop shuts both loops down and waits for them to exit.
func (m *Matchmaker) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stop)
	m.wg.Wait()
	m.logger.Info().Msg("Matchmaker stopped.")
}

// run is the scheduling loop. Both tickers live in one goroutine, so match
// scans and rebalance passes never overlap each other.
func (m *Matchmaker) run() {
	defer m.wg.Done()

	matchTicker := time.NewTicker(m.cfg.MatchTick)
	defer matchTicker.Stop()

	rebalanceTicker := time.NewTicker(m.cfg.RebalanceTick)
	defer rebalanceTicker.Stop()

	for {
		select {
		case <-matchTicker.C:
			m.tryMatch()

		case <-rebalanceTicker.C:
			m.queue.Rebalance()

		case <-m.stop:
			return
		}
	}
}

// tryMatch performs one throttled match attempt. The throttle is keyed off the
// last successful match, so an eager match on join can suppress the next
// scheduled scan; that coupling comes with the algorithm and is intentional.
func (m *Matchmaker) tryMatch() {
	m.mu.Lock()
	if time.Since(m.lastMatch) < m.cfg.MatchWindow {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.matchOnce()
}

// matchOnce runs a single FindMatch and publishes the result, if any.
func (m *Matchmaker) matchOnce() {
	res, ok := m.queue.FindMatch()
	if !ok {
		return
	}

	m.mu.Lock()
	m.lastMatch = time.Now()
	subs := m.subscribers
	m.mu.Unlock()

	m.logger.Info().
		Str("session_id", res.SessionID).
		Str("user_a", res.UserA).
		Str("user_b", res.UserB).
		Msg("Match found.")

	for _, fn := range subs {
		fn(res)
	}
}

// AddUser enqueues the user, resetting any prior wait. When at least two
// users are waiting, a match scan runs immediately so a ready pair does not
// sit out the next tick.
func (m *Matchmaker) AddUser(userID string) {
	m.queue.Add(userID)

	m.logger.Debug().Str("user_id", userID).Msg("User joined queue.")

	if m.queue.Len() >= 2 {
		m.matchOnce()
	}
}

// RemoveUser drops the user from the queue. Safe to call whether or not the
// user is queued; reports whether an entry was removed.
func (m *Matchmaker) RemoveUser(userID string) bool {
	removed := m.queue.Remove(userID)
	if removed {
		m.logger.Debug().Str("user_id", userID).Msg("User left queue.")
	}
	return removed
}

// InQueue reports whether the user is currently waiting.
func (m *Matchmaker) InQueue(userID string) bool {
	return m.queue.Contains(userID)
}

// Status returns the current queue occupancy snapshot.
func (m *Matchmaker) Status() QueueStatus {
	return m.queue.Status()
}
