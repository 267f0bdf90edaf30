package stylist

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/culturalabs/cultura/internal/completion"
	"github.com/culturalabs/cultura/internal/profile"
)

const extractionPrompt = `Extract user information from this message. Look for:
- Location
- Body Type
- Style Preferences
- Budget

Message: %q
Respond in the format:
Location: ...
Body Type: ...
Style Preferences: ...
Budget: ...`

// Extractor pulls personal attributes out of each message and merges them
// into the preference store. A fresh non-unknown location also triggers
// enrichment.
type Extractor struct {
	llm      Completer
	store    *profile.Store
	enricher *Enricher
}

func NewExtractor(llm Completer, store *profile.Store, enricher *Enricher) *Extractor {
	return &Extractor{llm: llm, store: store, enricher: enricher}
}

// Extract returns the user's merged facts after processing message, along
// with the market profile when this message carried a fresh location, so the
// caller never has to re-enrich what was just resolved. A failed completion
// leaves the stored facts untouched.
func (e *Extractor) Extract(ctx context.Context, userID, message string) (profile.Facts, *MarketProfile) {
	out, err := e.llm.Complete(ctx, fmt.Sprintf(extractionPrompt, message), completion.TierMedium)
	if err != nil {
		log.Printf("[extract] completion failed: %v", err)
		return e.store.Get(userID), nil
	}

	update := parseFactLines(out)
	facts := e.store.Apply(userID, update)

	var mp *MarketProfile
	if newValue(update.Location) && e.enricher != nil {
		if mp = e.enricher.Enrich(ctx, update.Location); mp != nil {
			e.store.SetEnhancedLocation(userID, mp.EnrichedLocation())
			facts = e.store.Get(userID)
		}
	}
	return facts, mp
}

// parseFactLines scans the model response line by line. A line counts as a
// field when it contains one of the fixed labels; everything after the first
// occurrence of the label is the value. Missing labels, reordered fields and
// surrounding prose are all tolerated.
func parseFactLines(out string) profile.Update {
	var u profile.Update
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.Contains(line, "Location:"):
			u.Location = valueAfter(line, "Location:")
		case strings.Contains(line, "Body Type:"):
			u.BodyType = valueAfter(line, "Body Type:")
		case strings.Contains(line, "Style Preferences:"):
			u.StylePreferences = valueAfter(line, "Style Preferences:")
		case strings.Contains(line, "Budget:"):
			u.Budget = valueAfter(line, "Budget:")
		}
	}
	return u
}

func valueAfter(line, label string) string {
	idx := strings.Index(line, label)
	return strings.TrimSpace(line[idx+len(label):])
}

func newValue(v string) bool {
	return v != "" && v != profile.Unknown
}
