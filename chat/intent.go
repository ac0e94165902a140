// Package chat implements session memory, query-intent classification
// and response-strategy selection on top of the retrieval pipeline.
package chat

import (
	"strings"

	"studyassist/core"
)

// Intent of a single query, decided before any retrieval happens.
type Intent string

const (
	IntentGreeting      Intent = "greeting"
	IntentFollowUp      Intent = "follow_up"
	IntentClarification Intent = "clarification"
	IntentFresh         Intent = "fresh"
)

var greetingLexicon = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"greetings", "howdy", "how are you", "what's up", "sup", "yo",
	"good day", "good night", "greeting", "hiya", "hey there",
	"hii", "helloo", "heyy", "heyyy",
}

var followUpLexicon = []string{
	"explain more", "tell me more", "give more", "add more", "show more",
	"can you explain", "elaborate", "expand on", "go into detail",
	"more examples", "more code", "more details", "further explanation",
	"what else", "anything else", "other examples", "additional",
	"give some more", "show some more", "provide more",
	"can you explain more", "show some examples", "explain clearly",
	"give more details", "show more codes", "expand on this", "explain in detail",
}

var clarificationLexicon = []string{
	"explain clearly", "explain in simple terms", "can you explain",
	"clarify", "simplify", "break down", "elaborate", "rephrase",
	"what does this mean", "help me understand", "give more details",
	"in more detail", "more information", "further explanation",
	"show some examples", "show more codes", "explain in detail",
}

// intentRule ties a match function to the tag it produces. Rules are
// evaluated in order; the first match wins.
type intentRule struct {
	intent Intent
	match  func(query string, priorTurns int) bool
}

var intentRules = []intentRule{
	{IntentGreeting, func(q string, _ int) bool { return matchesGreeting(q) }},
	{IntentFollowUp, func(q string, prior int) bool {
		return prior >= 2 && matchesAny(q, followUpLexicon)
	}},
	{IntentClarification, func(q string, _ int) bool {
		return matchesAny(q, clarificationLexicon)
	}},
}

// ClassifyIntent tags a query given how many prior turns the session
// holds. Follow-up needs at least two prior turns; with less history
// the same phrasing falls through to a fresh query.
func ClassifyIntent(query string, priorTurns int) Intent {
	normalized := strings.ToLower(strings.TrimSpace(query))
	for _, rule := range intentRules {
		if rule.match(normalized, priorTurns) {
			return rule.intent
		}
	}
	return IntentFresh
}

// matchesGreeting accepts an exact lexicon hit, a greeting followed by
// more words, or a greeting with up to two trailing characters ("hiii").
func matchesGreeting(query string) bool {
	for _, kw := range greetingLexicon {
		if query == kw {
			return true
		}
		if strings.HasPrefix(query, kw+" ") {
			return true
		}
		if strings.HasPrefix(query, kw) && len(query) <= len(kw)+2 {
			return true
		}
	}
	return false
}

func matchesAny(query string, lexicon []string) bool {
	for _, kw := range lexicon {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

// RewriteFollowUp builds the embedding query for a follow-up by
// prefixing the last user turn. The exact "a | b" form matters: it
// changes retrieval results and must stay stable.
func RewriteFollowUp(turns []core.Turn, query string) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" {
			return turns[i].Content + " | " + query
		}
	}
	return query
}
