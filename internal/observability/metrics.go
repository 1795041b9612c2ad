package observability

import "sync"

// Metrics provides basic in-memory counters for the bot loop.
type Metrics struct {
	mu            sync.Mutex
	updates       map[string]int64
	commits       map[string]int64
	notifications map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		updates:       make(map[string]int64),
		commits:       make(map[string]int64),
		notifications: make(map[string]int64),
	}
}

// RecordUpdate counts a handled chat update by kind (text, callback, command).
func (m *Metrics) RecordUpdate(kind string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates[kind]++
}

// RecordCommit counts a completed wizard flow by name.
func (m *Metrics) RecordCommit(flow string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits[flow]++
}

// RecordNotification counts an outbound notification attempt.
func (m *Metrics) RecordNotification(ok bool) {
	if m == nil {
		return
	}
	key := "sent"
	if !ok {
		key = "failed"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[key]++
}

// Snapshot returns a copy of all counters for the stats endpoint.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]map[string]int64{
		"updates":       copyCounts(m.updates),
		"commits":       copyCounts(m.commits),
		"notifications": copyCounts(m.notifications),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
