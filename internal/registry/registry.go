// Package registry holds the collector's last-known metrics per logical host.
//
// A Registry is safe for concurrent use. Writers replace a whole metric group
// (all CPU fields or all memory fields) under the table lock, so Snapshot never
// observes a group that is half old and half new. CPU and memory are written
// independently and may be from different moments.
//
// Entries are never evicted. Once an id has a slot it keeps it for the life of
// the Registry, and the number of slots is bounded by the capacity given to New.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/rileyhilliard/hostwatch/internal/metrics"
)

// DefaultMaxHosts is the capacity used when New is given a non-positive value.
const DefaultMaxHosts = 64

// ErrCapacityExceeded is returned by the upsert methods when an unseen id
// arrives and every slot is already taken.
var ErrCapacityExceeded = errors.New("host registry is full")

// HostRecord is the latest known state of one logical host.
type HostRecord struct {
	ID        string         `json:"id" yaml:"id"`
	CPU       metrics.CPU    `json:"cpu" yaml:"cpu"`
	HasCPU    bool           `json:"has_cpu" yaml:"has_cpu"`
	Mem       metrics.Memory `json:"mem" yaml:"mem"`
	HasMem    bool           `json:"has_mem" yaml:"has_mem"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}

// Registry maps host ids to their latest record.
type Registry struct {
	mu       sync.RWMutex
	capacity int
	hosts    map[string]*HostRecord
	order    []string // insertion order, used for stable snapshots
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates an empty registry that holds at most maxHosts records.
func New(maxHosts int, opts ...Option) *Registry {
	if maxHosts <= 0 {
		maxHosts = DefaultMaxHosts
	}
	r := &Registry{
		capacity: maxHosts,
		hosts:    make(map[string]*HostRecord, maxHosts),
		order:    make([]string, 0, maxHosts),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UpsertCPU stores cpu as the latest CPU sample for id, creating the record if
// needed.
func (r *Registry) UpsertCPU(id string, cpu metrics.CPU) error {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.lookupOrInsert(id)
	if err != nil {
		return err
	}
	rec.CPU = cpu
	rec.HasCPU = true
	rec.UpdatedAt = now
	return nil
}

// UpsertMem stores mem as the latest memory sample for id, creating the record
// if needed.
func (r *Registry) UpsertMem(id string, mem metrics.Memory) error {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.lookupOrInsert(id)
	if err != nil {
		return err
	}
	rec.Mem = mem
	rec.HasMem = true
	rec.UpdatedAt = now
	return nil
}

// Snapshot returns a copy of every record in insertion order. The copy is
// taken under a single read lock and shares nothing with the registry.
func (r *Registry) Snapshot() []HostRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]HostRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.hosts[id])
	}
	return out
}

// Get returns a copy of the record for id.
func (r *Registry) Get(id string) (HostRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.hosts[id]
	if !ok {
		return HostRecord{}, false
	}
	return *rec, true
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Capacity returns the maximum number of records.
func (r *Registry) Capacity() int {
	return r.capacity
}

// lookupOrInsert must be called with r.mu held for writing.
func (r *Registry) lookupOrInsert(id string) (*HostRecord, error) {
	if rec, ok := r.hosts[id]; ok {
		return rec, nil
	}
	if len(r.order) >= r.capacity {
		return nil, ErrCapacityExceeded
	}
	rec := &HostRecord{ID: id}
	r.hosts[id] = rec
	r.order = append(r.order, id)
	return rec, nil
}
