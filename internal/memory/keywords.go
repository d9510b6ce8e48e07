package memory

// Keyword data driving the heuristic extraction tier and the importance
// model. Kept as explicit package data so the heuristics stay auditable and
// testable; matching is substring-based on lowercased text unless noted.

// stableFactHints mark sentences describing durable constraints,
// preferences, or schedules. A hit classifies the sentence LONG_TERM_FACT.
var stableFactHints = []string{
	"prefer", "usually", "always", "never", "schedule", "work", "morning",
	"evening", "weekend", "commute", "shift", "cannot", "can't", "allergic",
	"injury", "adhd", "sleep", "routine", "at home", "at office",
}

// insightHints mark recurring struggles and behavior patterns. A hit (with
// no stable-fact hit) classifies the sentence USER_INSIGHT.
var insightHints = []string{
	"struggle", "difficult", "hard to", "overwhelmed", "distract",
	"procrastinat", "forget", "motivation", "trigger", "tempt", "stuck",
}

// shortTermMarkers flag sentences scoped to the immediate present; those
// are discarded unless a stable-fact hint redeems them.
var shortTermMarkers = []string{
	"today", "yesterday", "tomorrow", "right now", "this afternoon", "this evening",
}

// firstPersonMarkers are matched as whole words against a space-padded
// lowercase sentence.
var firstPersonMarkers = []string{
	" i ", " i'm ", " i am ", " my ", " me ", " myself ",
}

// durabilityHints raise the importance score by one.
var durabilityHints = []string{
	"prefer", "usually", "always", "can't", "cannot", "schedule", "work",
	"morning", "evening",
}

// volatilityHints lower the importance score by one.
var volatilityHints = []string{
	"today", "yesterday", "this week", "sometimes", "maybe",
}

// queryStopwords are dropped from relevance-query tokenization.
var queryStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"have": {}, "just": {}, "what": {}, "when": {}, "your": {}, "about": {},
	"from": {}, "want": {}, "need": {}, "today": {}, "you": {}, "are": {},
	"was": {}, "were": {}, "can": {}, "could": {}, "should": {}, "would": {},
}
