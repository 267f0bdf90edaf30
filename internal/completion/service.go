package completion

import (
	"context"
	"log"
	"math/rand/v2"
	"strings"

	"github.com/culturalabs/cultura/internal/config"
	"github.com/culturalabs/cultura/internal/metrics"
)

// DegradedReply is what callers receive when both the selected model and the
// fallback model fail. It is a valid user-facing sentence on purpose: the
// pipeline keeps working with it instead of crashing the request.
const DegradedReply = "I'm having trouble generating a response right now. Please try again."

// Service selects a model from the roster, issues the completion, retries
// once on a fixed alternate model, and records per-model outcomes.
type Service struct {
	backend  Backend
	roster   []string
	def      string
	strategy string
	stats    *metrics.Recorder
	randFn   func(n int) int // injectable for tests
}

func NewService(backend Backend, cfg config.ModelsConfig, rec *metrics.Recorder) *Service {
	roster := cfg.Roster
	if len(roster) == 0 {
		roster = config.DefaultRoster
	}
	def := cfg.Default
	if def == "" {
		def = roster[0]
	}
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = config.DefaultStrategy
	}
	if rec == nil {
		rec = metrics.NewRecorder()
	}
	return &Service{
		backend:  backend,
		roster:   append([]string(nil), roster...),
		def:      def,
		strategy: strategy,
		stats:    rec,
		randFn:   rand.IntN,
	}
}

// Complete runs prompt at the given tier. On failure it retries exactly once
// with the fixed alternate model; if that also fails it returns
// DegradedReply together with the final error, so callers that need to
// branch (the enricher) can, while everything else just uses the string.
func (s *Service) Complete(ctx context.Context, prompt string, tier Tier) (string, error) {
	model := s.pick(tier)

	out, err := s.backend.Complete(ctx, model, prompt)
	if err == nil {
		s.stats.RecordSuccess(model)
		return strings.TrimSpace(out), nil
	}
	s.stats.RecordFailure(model)
	log.Printf("[completion] %s failed: %v", model, err)

	fallback := s.fallbackFor(model)
	out, err = s.backend.Complete(ctx, fallback, prompt)
	if err == nil {
		s.stats.RecordSuccess(fallback)
		return strings.TrimSpace(out), nil
	}
	s.stats.RecordFailure(fallback)
	log.Printf("[completion] fallback %s failed: %v", fallback, err)

	return DegradedReply, err
}

func (s *Service) pick(tier Tier) string {
	switch s.strategy {
	case "random":
		return s.roster[s.randFn(len(s.roster))]
	case "weighted":
		if best := s.stats.Best(); best != "" {
			return best
		}
		return s.def
	default:
		return s.modelForTier(tier)
	}
}

// modelForTier maps capability tiers onto roster positions: cheapest first,
// a mid-roster model for medium, the last (most capable) for complex. With
// the default Gemini roster this reproduces the original tier table.
func (s *Service) modelForTier(tier Tier) string {
	switch tier {
	case TierSimple:
		return s.roster[0]
	case TierMedium:
		return s.roster[len(s.roster)/2]
	default:
		return s.roster[len(s.roster)-1]
	}
}

// fallbackFor returns the fixed alternate for a failed model: the configured
// default model, or the mid-roster one when the default is what just failed.
func (s *Service) fallbackFor(model string) string {
	if model != s.def || len(s.roster) == 1 {
		return s.def
	}
	return s.roster[len(s.roster)/2]
}

// Stats exposes the recorder for the gateway's periodic report.
func (s *Service) Stats() *metrics.Recorder {
	return s.stats
}
