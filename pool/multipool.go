package pool

import (
	"reflect"
	"sync"
)

// MultiPool is a type-keyed collection of typed Pools, guarded by one mutex,
// matching original_source/insound/core/MultiPool.h: allocate<T> routes to
// the T pool (creating it on first use), constructs the value, and runs an
// init hook; deallocate runs a release hook before returning the slot.
// Pools are never removed once created, matching the source's "pools never
// shrink during a session" contract.
type MultiPool struct {
	mu    sync.Mutex
	pools map[reflect.Type]any // reflect.Type -> *Pool[T]
}

// NewMultiPool returns an empty MultiPool.
func NewMultiPool() *MultiPool {
	return &MultiPool{pools: make(map[reflect.Type]any)}
}

func poolFor[T any](m *MultiPool) *Pool[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	key := reflect.TypeOf(&zero).Elem()
	if existing, ok := m.pools[key]; ok {
		return existing.(*Pool[T])
	}
	p := New[T](0)
	m.pools[key] = p
	return p
}

// Allocate constructs value via init (if non-nil) and stores it in the T
// pool, rolling back (never inserting) if init reports an error.
func Allocate[T any](m *MultiPool, value T, init func(*T) error) (Handle[T], error) {
	if init != nil {
		if err := init(&value); err != nil {
			var zero Handle[T]
			return zero, err
		}
	}
	p := poolFor[T](m)
	return p.Allocate(value), nil
}

// Deallocate runs release (if non-nil) against the live value, then returns
// the slot to its pool regardless of what release reports — matching the
// source's tolerance for exceptions raised during release.
func Deallocate[T any](m *MultiPool, h Handle[T], release func(*T)) {
	p := poolFor[T](m)
	if release != nil {
		p.Update(h, release)
	}
	p.Deallocate(h)
}

// Get fetches the live value for h from its T pool.
func Get[T any](m *MultiPool, h Handle[T]) (T, bool) {
	p := poolFor[T](m)
	return p.Get(h)
}

// Update mutates the live value for h in place.
func Update[T any](m *MultiPool, h Handle[T], fn func(*T)) bool {
	p := poolFor[T](m)
	return p.Update(h, fn)
}

// Len reports the number of live T values across the whole MultiPool.
func Len[T any](m *MultiPool) int {
	p := poolFor[T](m)
	return p.Len()
}
