package stylist

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/culturalabs/cultura/internal/completion"
	"github.com/culturalabs/cultura/internal/profile"
)

// Canned replies. These are fixed strings, never model output.
const (
	GreetingReply         = "Hey! I am Cultura, your personal stylist. How can I help you today?"
	DidNotUnderstandReply = "Hey, I didn't understand you. Could you please elaborate?"
)

var greetings = map[string]bool{
	"hey":       true,
	"hi":        true,
	"hello":     true,
	"hola":      true,
	"yo":        true,
	"greetings": true,
}

var bareTokenRe = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// Pipeline turns one inbound message into one reply: shortcut checks, fact
// extraction, intent classification, enrichment, prompt composition,
// generation.
type Pipeline struct {
	llm      Completer
	store    *profile.Store
	classify *Classifier
	extract  *Extractor
	enricher *Enricher
}

func NewPipeline(llm Completer, store *profile.Store, enricher *Enricher) *Pipeline {
	return &Pipeline{
		llm:      llm,
		store:    store,
		classify: NewClassifier(llm),
		extract:  NewExtractor(llm, store, enricher),
		enricher: enricher,
	}
}

// Respond produces the reply text for userID's message. Greetings and bare
// single tokens short-circuit before any model call. The returned string is
// always usable: a failed final generation yields the degraded sentence.
func (p *Pipeline) Respond(ctx context.Context, userID, message string) (string, error) {
	trimmed := strings.TrimSpace(message)
	if greetings[strings.ToLower(trimmed)] {
		return GreetingReply, nil
	}
	if len(strings.Fields(trimmed)) == 1 && bareTokenRe.MatchString(trimmed) {
		return DidNotUnderstandReply, nil
	}

	facts, mp := p.extract.Extract(ctx, userID, message)

	intent := p.classify.Classify(ctx, message)
	if !intent.Valid() {
		return DidNotUnderstandReply, nil
	}

	// Enrich here only when this turn carried no new location but an earlier
	// one did; a fresh location was already enriched during extraction.
	if mp == nil && facts.Location != "" && facts.Location != profile.Unknown {
		mp = p.enricher.Enrich(ctx, facts.Location)
	}

	prompt := ComposePrompt(message, intent, facts, mp)
	// On double model failure Complete hands back the degraded sentence, so
	// the reply is always usable and the request still succeeds.
	out, _ := p.llm.Complete(ctx, prompt, completion.TierComplex)
	return out, nil
}

// Facts exposes the stored profile for a user, for status surfaces.
func (p *Pipeline) Facts(userID string) profile.Facts {
	return p.store.Get(userID)
}

// FormatReply prepares model text for a transport: literal \n escape
// sequences become real line breaks and surrounding whitespace is dropped.
func FormatReply(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `\n`, "\n"))
}

// ErrorReply is the user-facing wrapper for unexpected handler failures.
func ErrorReply(err error) string {
	return fmt.Sprintf("Sorry, I encountered an error: %v. Please try again! 😊", err)
}
