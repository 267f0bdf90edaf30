// Package metrics tracks per-model completion outcomes. The recorder is
// injected into the completion service rather than living as package state,
// so tests can assert on it and the gateway owns its lifetime.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Sink receives the outcome of every completion attempt.
type Sink interface {
	RecordSuccess(model string)
	RecordFailure(model string)
}

type ModelStats struct {
	Success int
	Failure int
}

type Recorder struct {
	mu    sync.Mutex
	stats map[string]ModelStats
}

func NewRecorder() *Recorder {
	return &Recorder{stats: make(map[string]ModelStats)}
}

func (r *Recorder) RecordSuccess(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats[model]
	s.Success++
	r.stats[model] = s
}

func (r *Recorder) RecordFailure(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats[model]
	s.Failure++
	r.stats[model] = s
}

func (r *Recorder) Snapshot() map[string]ModelStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]ModelStats, len(r.stats))
	for k, v := range r.stats {
		out[k] = v
	}
	return out
}

// Best returns the model with the highest success ratio among models with at
// least one recorded attempt, or "" when nothing has been recorded yet.
func (r *Recorder) Best() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	best := ""
	bestRatio := 0.0
	// Deterministic iteration so ties resolve stably.
	names := make([]string, 0, len(r.stats))
	for name := range r.stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := r.stats[name]
		total := s.Success + s.Failure
		if total == 0 {
			continue
		}
		ratio := float64(s.Success) / float64(total)
		if ratio > bestRatio {
			bestRatio = ratio
			best = name
		}
	}
	return best
}

// Report renders a one-line-per-model summary for the periodic log job.
func (r *Recorder) Report() string {
	snap := r.Snapshot()
	if len(snap) == 0 {
		return "no completions recorded"
	}
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		s := snap[name]
		fmt.Fprintf(&sb, "%s ok=%d fail=%d", name, s.Success, s.Failure)
	}
	return sb.String()
}
