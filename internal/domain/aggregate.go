package domain

import "encoding/json"

// entryOverhead approximates the JSON framing around one map entry:
// quotes and colon for the key plus a separating comma.
const entryOverhead = 4

// Aggregate owns the in-memory mapping from dedup key to accumulated record.
// It maintains an estimated serialized footprint as entries change, so a size
// ceiling can be applied without re-serializing the whole map per observation.
type Aggregate struct {
	records Snapshot
	sizes   map[string]int
	bytes   int
}

// NewAggregate creates a new empty aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{
		records: make(Snapshot),
		sizes:   make(map[string]int),
	}
}

// Observe records one occurrence under key. A new key inserts a copy of rec
// with Count 1 and returns true. An existing key advances its counter only;
// the stored record's other fields are left untouched.
func (a *Aggregate) Observe(key string, rec Record) bool {
	if existing, ok := a.records[key]; ok {
		existing.Count++
		a.resize(key, existing)
		return false
	}
	cp := rec
	cp.Count = 1
	a.records[key] = &cp
	a.resize(key, &cp)
	return true
}

// Absorb merges one persisted record during startup reconciliation.
// A colliding key advances the in-memory counter by one; an absent key takes
// the persisted record as-is, stored count included.
func (a *Aggregate) Absorb(key string, rec Record) {
	if existing, ok := a.records[key]; ok {
		existing.Count++
		a.resize(key, existing)
		return
	}
	cp := rec
	if cp.Count < 1 {
		cp.Count = 1
	}
	a.records[key] = &cp
	a.resize(key, &cp)
}

func (a *Aggregate) resize(key string, rec *Record) {
	b, _ := json.Marshal(rec)
	n := len(key) + len(b) + entryOverhead
	a.bytes += n - a.sizes[key]
	a.sizes[key] = n
}

// Len returns the number of distinct keys.
func (a *Aggregate) Len() int {
	return len(a.records)
}

// Empty returns true if the aggregate holds no records.
func (a *Aggregate) Empty() bool {
	return len(a.records) == 0
}

// EstimatedBytes returns the approximate serialized size of the map.
// This is a structural estimate, not an exact memory footprint.
func (a *Aggregate) EstimatedBytes() int {
	if len(a.records) == 0 {
		return 0
	}
	return a.bytes + 2
}

// Records exposes the underlying snapshot. The aggregate retains ownership
// while live; an aggregate detached during flush hands it over exclusively.
func (a *Aggregate) Records() Snapshot {
	return a.records
}
