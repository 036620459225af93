package cache

import "time"

// entry is a stored record plus its expiration bookkeeping. Entries are
// owned exclusively by the store; policy ordering state lives inside the
// eviction policy, keyed by entry key.
type entry[V any] struct {
	key       string
	value     V
	createdAt time.Time
	expiresAt time.Time // zero means never
}

// expired reports whether the entry's TTL has elapsed at now. An entry
// with ttl = T is visible strictly before createdAt+T and expired at any
// instant from then on.
func (e *entry[V]) expired(now time.Time) bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return !now.Before(e.expiresAt)
}

// store pairs the key index with the eviction policy's ordering structure
// and keeps the two in lockstep: every key present in the index has
// exactly one node in the ordering structure and vice versa. Not safe for
// concurrent use; the owning cache holds its lock across every call.
type store[V any] struct {
	items  map[string]*entry[V]
	policy evictionPolicy
}

func newStore[V any](policy evictionPolicy) *store[V] {
	return &store[V]{
		items:  make(map[string]*entry[V]),
		policy: policy,
	}
}

// lookup finds an entry by key. Absence is a normal outcome, not an error.
func (s *store[V]) lookup(key string) (*entry[V], bool) {
	e, ok := s.items[key]
	return e, ok
}

// admit inserts a brand-new entry and registers it with the policy.
// The caller must have established that the key is absent.
func (s *store[V]) admit(e *entry[V]) {
	s.items[e.key] = e
	s.policy.onAdmit(e.key)
}

// touch records an access so the policy can promote the key.
func (s *store[V]) touch(key string) {
	s.policy.onAccess(key)
}

// remove deletes an entry by key, unregistering it from the policy.
func (s *store[V]) remove(key string) (*entry[V], bool) {
	e, ok := s.items[key]
	if !ok {
		return nil, false
	}
	delete(s.items, key)
	s.policy.onRemove(key)
	return e, true
}

// evict removes and returns the policy's victim. Must only be called when
// the store is non-empty.
func (s *store[V]) evict() (*entry[V], bool) {
	key, ok := s.policy.victim()
	if !ok {
		return nil, false
	}
	return s.remove(key)
}

func (s *store[V]) len() int {
	return len(s.items)
}

// keys returns all keys in policy order (next victim last).
func (s *store[V]) keys() []string {
	return s.policy.keys()
}

func (s *store[V]) reset() {
	s.items = make(map[string]*entry[V])
	s.policy.reset()
}
