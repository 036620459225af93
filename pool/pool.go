package pool

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/cachekit/cache"
	"github.com/c360/cachekit/errors"
)

// Factory constructs a new poolable object on demand.
type Factory[T any] func() (T, error)

// DestroyFunc releases an object's resources when the pool retires it.
type DestroyFunc[T any] func(T)

// Lease is a checked-out object. The ID identifies the checkout so the
// pool can verify that Put and Discard refer to objects it handed out.
type Lease[T any] struct {
	ID     uuid.UUID
	Object T
}

// idleEntry is a returned object waiting for reuse, stamped with the
// time it went idle.
type idleEntry[T any] struct {
	object T
	since  time.Time
}

// Pool keeps a stack of reusable objects built by a factory. Get prefers
// the most recently returned object so that cold entries age out; idle
// objects older than the TTL are destroyed during every operation.
//
// Checked-out objects are tracked by lease ID until returned. The pool
// never blocks: when no idle object is available the factory runs.
type Pool[T any] struct {
	mu      sync.Mutex
	factory Factory[T]
	destroy DestroyFunc[T]
	ttl     time.Duration
	idle    []idleEntry[T] // stack, newest at the end
	leased  map[uuid.UUID]T
	clock   cache.Clock
	logger  *slog.Logger
	closed  bool

	created   int64
	reused    int64
	destroyed int64
}

// Option configures a Pool.
type Option[T any] func(*Pool[T])

// WithDestroy sets the release hook invoked when the pool retires an
// object, either because it idled past the TTL or because the pool is
// closing. Without it retired objects are simply dropped.
func WithDestroy[T any](destroy DestroyFunc[T]) Option[T] {
	return func(p *Pool[T]) {
		p.destroy = destroy
	}
}

// WithClock replaces the time source used for idle aging. Intended for
// tests; if clock is nil, this option is ignored.
func WithClock[T any](clock cache.Clock) Option[T] {
	return func(p *Pool[T]) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithLogger sets the structured logger used for lifecycle events. If
// logger is nil, this option is ignored.
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(p *Pool[T]) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pool around factory. Idle objects older than ttl are
// destroyed; a ttl of zero keeps idle objects forever.
func New[T any](factory Factory[T], ttl time.Duration, options ...Option[T]) (*Pool[T], error) {
	if factory == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "pool", "New", "factory is required")
	}
	if ttl < 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "pool", "New", "ttl must not be negative")
	}

	p := &Pool[T]{
		factory: factory,
		ttl:     ttl,
		leased:  make(map[uuid.UUID]T),
		clock:   cache.SystemClock(),
		logger:  slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Get checks out an object, reusing the most recently returned idle
// object when one is available and running the factory otherwise.
func (p *Pool[T]) Get() (*Lease[T], error) {
	now := p.clock.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.WrapFatal(errors.ErrCacheClosed, "pool", "Get", "pool is closed")
	}
	stale := p.purgeStaleLocked(now)

	var (
		object  T
		haveObj bool
	)
	if n := len(p.idle); n > 0 {
		object = p.idle[n-1].object
		p.idle = p.idle[:n-1]
		haveObj = true
		p.reused++
	}

	var id uuid.UUID
	if haveObj {
		id = uuid.New()
		p.leased[id] = object
	}
	p.mu.Unlock()
	p.retire(stale)

	if haveObj {
		return &Lease[T]{ID: id, Object: object}, nil
	}

	object, err := p.factory()
	if err != nil {
		return nil, errors.WrapTransient(errors.ErrFactoryFailed, "pool", "Get",
			fmt.Sprintf("factory: %v", err))
	}

	id = uuid.New()
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if p.destroy != nil {
			p.destroy(object)
		}
		return nil, errors.WrapFatal(errors.ErrCacheClosed, "pool", "Get", "pool is closed")
	}
	p.created++
	p.leased[id] = object
	p.mu.Unlock()

	return &Lease[T]{ID: id, Object: object}, nil
}

// Put returns a leased object to the pool for reuse. The lease must have
// come from Get and not already been returned or discarded.
func (p *Pool[T]) Put(lease *Lease[T]) error {
	if lease == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "pool", "Put", "lease is required")
	}

	now := p.clock.Now()

	p.mu.Lock()
	object, ok := p.leased[lease.ID]
	if !ok {
		p.mu.Unlock()
		return errors.WrapInvalid(errors.ErrKeyNotFound, "pool", "Put",
			fmt.Sprintf("unknown lease %s", lease.ID))
	}
	delete(p.leased, lease.ID)

	if p.closed {
		p.mu.Unlock()
		p.retire([]T{object})
		return nil
	}

	stale := p.purgeStaleLocked(now)
	p.idle = append(p.idle, idleEntry[T]{object: object, since: now})
	p.mu.Unlock()
	p.retire(stale)

	return nil
}

// Discard removes a leased object from the pool permanently, destroying
// it instead of queueing it for reuse. Use it when the object is known
// to be broken.
func (p *Pool[T]) Discard(lease *Lease[T]) error {
	if lease == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "pool", "Discard", "lease is required")
	}

	p.mu.Lock()
	object, ok := p.leased[lease.ID]
	if !ok {
		p.mu.Unlock()
		return errors.WrapInvalid(errors.ErrKeyNotFound, "pool", "Discard",
			fmt.Sprintf("unknown lease %s", lease.ID))
	}
	delete(p.leased, lease.ID)
	p.mu.Unlock()

	p.retire([]T{object})
	return nil
}

// Untrack releases the pool's claim on a leased object without
// destroying it. The caller takes ownership; the object will never
// return to the pool.
func (p *Pool[T]) Untrack(lease *Lease[T]) error {
	if lease == nil {
		return errors.WrapInvalid(errors.ErrInvalidData, "pool", "Untrack", "lease is required")
	}

	p.mu.Lock()
	_, ok := p.leased[lease.ID]
	if ok {
		delete(p.leased, lease.ID)
	}
	p.mu.Unlock()

	if !ok {
		return errors.WrapInvalid(errors.ErrKeyNotFound, "pool", "Untrack",
			fmt.Sprintf("unknown lease %s", lease.ID))
	}
	return nil
}

// IdleCount returns the number of objects waiting for reuse after
// retiring any that have idled past the TTL.
func (p *Pool[T]) IdleCount() int {
	p.mu.Lock()
	stale := p.purgeStaleLocked(p.clock.Now())
	n := len(p.idle)
	p.mu.Unlock()
	p.retire(stale)
	return n
}

// LeasedCount returns the number of objects currently checked out.
func (p *Pool[T]) LeasedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.leased)
}

// Stats is a point-in-time summary of pool activity.
type Stats struct {
	Created   int64
	Reused    int64
	Destroyed int64
	Idle      int
	Leased    int
}

// Snapshot returns current pool counters.
func (p *Pool[T]) Snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Created:   p.created,
		Reused:    p.reused,
		Destroyed: p.destroyed,
		Idle:      len(p.idle),
		Leased:    len(p.leased),
	}
}

// Close destroys every idle object and rejects further checkouts.
// Objects still leased are destroyed as they come back through Put.
// Close is idempotent.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	leased := len(p.leased)
	p.mu.Unlock()

	objects := make([]T, 0, len(idle))
	for _, e := range idle {
		objects = append(objects, e.object)
	}
	p.retire(objects)

	if leased > 0 {
		p.logger.Debug("pool closed with outstanding leases",
			"leased", leased)
	}
	return nil
}

// purgeStaleLocked removes idle objects older than the TTL and returns
// them for destruction after the lock is released. Idle entries are
// ordered oldest first, so the scan stops at the first fresh one. Must
// be called with the mutex held.
func (p *Pool[T]) purgeStaleLocked(now time.Time) []T {
	if p.ttl <= 0 || len(p.idle) == 0 {
		return nil
	}
	cutoff := now.Add(-p.ttl)

	i := 0
	for i < len(p.idle) && !p.idle[i].since.After(cutoff) {
		i++
	}
	if i == 0 {
		return nil
	}

	stale := make([]T, 0, i)
	for _, e := range p.idle[:i] {
		stale = append(stale, e.object)
	}
	p.idle = append(p.idle[:0], p.idle[i:]...)
	return stale
}

// retire destroys retired objects outside the lock and bumps the
// destroyed counter.
func (p *Pool[T]) retire(objects []T) {
	if len(objects) == 0 {
		return
	}
	for _, object := range objects {
		if p.destroy != nil {
			p.destroy(object)
		}
	}
	p.mu.Lock()
	p.destroyed += int64(len(objects))
	p.mu.Unlock()
}
