package stylist

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/culturalabs/cultura/internal/completion"
)

// Intent is one of the fixed conversation topics used to shape the reply.
type Intent string

const (
	IntentSkincare      Intent = "skincare"
	IntentEventDressing Intent = "event_dressing"
	IntentTravel        Intent = "travel"
	IntentMusic         Intent = "music"
	IntentGeneral       Intent = "general_recommendation"
)

var validIntents = map[Intent]bool{
	IntentSkincare:      true,
	IntentEventDressing: true,
	IntentTravel:        true,
	IntentMusic:         true,
	IntentGeneral:       true,
}

func (i Intent) Valid() bool {
	return validIntents[i]
}

// Completer is the completion surface the pipeline depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string, tier completion.Tier) (string, error)
}

const intentPrompt = `You are an AI assistant specialized in fashion and lifestyle. Analyze the user's message and classify their intent into one of these categories:

- skincare
- event_dressing
- travel
- music
- general_recommendation

Message: %q
Respond with only the category name.`

type Classifier struct {
	llm Completer
}

func NewClassifier(llm Completer) *Classifier {
	return &Classifier{llm: llm}
}

// Classify maps a message to an intent category. A malformed or failed
// classification yields an invalid Intent; the caller rejects it downstream.
func (c *Classifier) Classify(ctx context.Context, message string) Intent {
	out, err := c.llm.Complete(ctx, fmt.Sprintf(intentPrompt, message), completion.TierSimple)
	if err != nil {
		log.Printf("[intent] classification failed: %v", err)
		return ""
	}
	return Intent(strings.TrimSpace(out))
}
