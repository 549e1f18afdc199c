// Package sink provides host sinks for import results: an in-memory
// collector, a PNG palette texture writer and a glTF exporter.
package sink

import (
	"context"
	"sync"

	"github.com/Faultbox/gsplat-palette/internal/importer"
)

// Aborted records one Abort call.
type Aborted struct {
	Label string
	Cause error
}

// Memory keeps every committed result. It is used by embedding hosts and
// tests. Accepted results stay pending until Commit, so an import that
// fails in a later sink never shows up in Last or Results.
type Memory struct {
	mu      sync.Mutex
	pending []*importer.Result
	results []*importer.Result
	aborted []Aborted
	Fail    error // returned by Accept when set
}

// Accept holds res until Commit or Abort.
func (m *Memory) Accept(_ context.Context, res *importer.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.pending = append(m.pending, res)
	return nil
}

// Commit publishes the pending results.
func (m *Memory) Commit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, m.pending...)
	m.pending = nil
}

// Abort drops the pending results and records the failure.
func (m *Memory) Abort(label string, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	m.aborted = append(m.aborted, Aborted{Label: label, Cause: cause})
}

// Last returns the most recent committed result, or nil.
func (m *Memory) Last() *importer.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.results) == 0 {
		return nil
	}
	return m.results[len(m.results)-1]
}

// Results returns all committed results in order.
func (m *Memory) Results() []*importer.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*importer.Result(nil), m.results...)
}

// Aborts returns the recorded Abort calls.
func (m *Memory) Aborts() []Aborted {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Aborted(nil), m.aborted...)
}
