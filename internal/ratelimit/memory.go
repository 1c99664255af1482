package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	log "github.com/sirupsen/logrus"
)

const (
	defaultShardCount      = 32
	defaultMaxKeys         = 100000
	defaultIdleTTL         = 10 * time.Minute
	defaultCleanupInterval = time.Minute
)

// window is the fixed-window counter of one key. mu guards every field;
// evicted is set once the window has been removed from its shard.
type window struct {
	mu       sync.Mutex
	count    int
	start    time.Time
	length   time.Duration
	lastSeen time.Time
	evicted  bool
}

// shard holds a bounded set of windows. Keys that arrive while the shard is
// full of live windows share the overflow window.
type shard struct {
	mu       sync.RWMutex
	windows  map[string]*window
	overflow *window
}

// MemoryOptions tunes the in-memory limiter.
type MemoryOptions struct {
	// Shards is the number of independently locked key maps.
	Shards int
	// MaxKeys bounds the number of tracked keys across all shards.
	MaxKeys int
	// IdleTTL is how long an expired window is kept after its last hit.
	IdleTTL time.Duration
	// CleanupInterval is the janitor period.
	CleanupInterval time.Duration
	// Now overrides the clock.
	Now func() time.Time
}

// MemoryLimiter implements a fixed-window in-memory rate limiter.
//
// A window admits up to maxCount calls; it resets on the first call made
// more than windowSeconds after it started. Calls straddling a boundary can
// therefore see up to 2*maxCount admissions in a short span. A live window
// is never dropped; once a shard is full of live windows, new keys share
// the shard's overflow window until expired ones can be reclaimed.
type MemoryLimiter struct {
	shards          []*shard
	perShardMax     int
	idleTTL         time.Duration
	cleanupInterval time.Duration
	nowFn           func() time.Time
}

// NewMemoryLimiter constructs a MemoryLimiter. Zero options take defaults.
func NewMemoryLimiter(opts MemoryOptions) *MemoryLimiter {
	if opts.Shards <= 0 {
		opts.Shards = defaultShardCount
	}
	if opts.MaxKeys <= 0 {
		opts.MaxKeys = defaultMaxKeys
	}
	if opts.IdleTTL < 0 {
		opts.IdleTTL = 0
	} else if opts.IdleTTL == 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	perShard := (opts.MaxKeys + opts.Shards - 1) / opts.Shards
	if perShard < 1 {
		perShard = 1
	}
	l := &MemoryLimiter{
		shards:          make([]*shard, opts.Shards),
		perShardMax:     perShard,
		idleTTL:         opts.IdleTTL,
		cleanupInterval: opts.CleanupInterval,
		nowFn:           opts.Now,
	}
	for i := range l.shards {
		l.shards[i] = &shard{windows: make(map[string]*window), overflow: &window{}}
	}
	return l
}

// TryAcquire records one attempt for key and reports whether it is admitted.
func (l *MemoryLimiter) TryAcquire(key string, maxCount, windowSeconds int) bool {
	return l.Acquire(key, maxCount, windowSeconds).Allowed
}

// Acquire records one attempt for key. Rejected attempts are counted too.
func (l *MemoryLimiter) Acquire(key string, maxCount, windowSeconds int) Result {
	if key == "" || maxCount <= 0 || windowSeconds <= 0 {
		return Result{Allowed: true}
	}
	length := time.Duration(windowSeconds) * time.Second
	s := l.shardFor(key)

	for {
		w := s.get(key)
		if w == nil {
			w = l.insert(s, key)
		}

		w.mu.Lock()
		if w.evicted {
			w.mu.Unlock()
			continue
		}
		now := l.nowFn()
		if w.count == 0 || now.Sub(w.start) > length {
			w.count = 1
			w.start = now
		} else {
			w.count++
		}
		w.length = length
		w.lastSeen = now
		count := w.count
		reset := w.start.Add(length)
		w.mu.Unlock()

		remaining := maxCount - count
		if remaining < 0 {
			remaining = 0
		}
		return Result{Allowed: count <= maxCount, Count: count, Remaining: remaining, Reset: reset}
	}
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	total := 0
	for _, s := range l.shards {
		s.mu.RLock()
		total += len(s.windows)
		s.mu.RUnlock()
	}
	return total
}

// Sweep removes windows that have expired and stayed idle for IdleTTL.
// Removing them is lossless: the next call would reset them anyway.
func (l *MemoryLimiter) Sweep() int {
	now := l.nowFn()
	removed := 0
	for _, s := range l.shards {
		s.mu.Lock()
		removed += l.sweepShard(s, now, l.idleTTL)
		s.mu.Unlock()
	}
	return removed
}

// Start runs the janitor until ctx is cancelled.
func (l *MemoryLimiter) Start(ctx context.Context) {
	ticker := time.NewTicker(l.cleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := l.Sweep(); removed > 0 {
					log.WithField("removed", removed).Debug("rate limit: swept idle windows")
				}
			}
		}
	}()
}

func (l *MemoryLimiter) shardFor(key string) *shard {
	return l.shards[xxhash.Sum64String(key)%uint64(len(l.shards))]
}

func (s *shard) get(key string) *window {
	s.mu.RLock()
	w := s.windows[key]
	s.mu.RUnlock()
	return w
}

func (l *MemoryLimiter) insert(s *shard, key string) *window {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w := s.windows[key]; w != nil {
		return w
	}
	if len(s.windows) >= l.perShardMax {
		now := l.nowFn()
		if l.sweepShard(s, now, 0) == 0 {
			log.WithField("key", key).Debug("rate limit: shard full of live windows, counting key in overflow window")
			return s.overflow
		}
	}
	w := &window{}
	s.windows[key] = w
	return w
}

// sweepShard removes expired windows idle for at least idle. Expired windows
// would reset on their next call, so removing them loses no count. It must
// be called with s.mu held.
func (l *MemoryLimiter) sweepShard(s *shard, now time.Time, idle time.Duration) int {
	removed := 0
	for key, w := range s.windows {
		w.mu.Lock()
		if w.count > 0 && now.Sub(w.start) > w.length && now.Sub(w.lastSeen) >= idle {
			w.evicted = true
			delete(s.windows, key)
			removed++
		}
		w.mu.Unlock()
	}
	return removed
}
