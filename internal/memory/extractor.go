package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/habitloop/coachmem/internal/completion"
	"github.com/habitloop/coachmem/internal/metrics"
)

const (
	// recentMessageWindow bounds how many trailing user utterances feed
	// one extraction pass.
	recentMessageWindow = 3

	// heuristicTriggerCount: the heuristic tier runs while the running
	// candidate list is shorter than this.
	heuristicTriggerCount = 6

	// candidateCollectCap stops heuristic collection outright.
	candidateCollectCap = 8

	// heuristicPerMessageCap bounds candidates taken from one utterance.
	heuristicPerMessageCap = 2

	// modelItemsPerKind caps facts and insights parsed from model output.
	modelItemsPerKind = 2
)

const extractionSystemPrompt = "Extract durable user profile memory for habit coaching. Return strict JSON only."

// Extractor turns raw user utterances into memory candidates. The
// model-assisted tier runs first when enabled; the rule-based tier fills in
// whenever the model yields little or nothing. Extraction never fails: any
// model or parse error degrades to zero candidates from that tier.
type Extractor struct {
	client  completion.Client
	enabled bool
}

// NewExtractor creates an extractor. A nil client disables the
// model-assisted tier regardless of enabled.
func NewExtractor(client completion.Client, enabled bool) *Extractor {
	return &Extractor{client: client, enabled: enabled && client != nil}
}

// Extract produces candidates from the last few user-authored utterances.
func (e *Extractor) Extract(ctx context.Context, userMessages []string) []Candidate {
	if len(userMessages) == 0 {
		return nil
	}
	if len(userMessages) > recentMessageWindow {
		userMessages = userMessages[len(userMessages)-recentMessageWindow:]
	}

	candidates := e.modelCandidates(ctx, userMessages)
	metrics.CandidatesExtractedTotal.WithLabelValues("model").Add(float64(len(candidates)))

	if len(candidates) < heuristicTriggerCount {
		before := len(candidates)
		for _, msg := range userMessages {
			candidates = append(candidates, heuristicCandidates(msg)...)
			if len(candidates) >= candidateCollectCap {
				break
			}
		}
		metrics.CandidatesExtractedTotal.WithLabelValues("heuristic").Add(float64(len(candidates) - before))
	}
	return candidates
}

// modelCandidates asks the completion service for structured memory
// signals. Errors are logged and swallowed: this tier is best-effort.
func (e *Extractor) modelCandidates(ctx context.Context, userMessages []string) []Candidate {
	if !e.enabled {
		return nil
	}

	raw, err := e.client.Complete(ctx, extractionSystemPrompt, buildExtractionPrompt(userMessages))
	if err != nil {
		slog.Warn("model extraction failed", "error", err)
		return nil
	}
	return parseModelPayload(raw)
}

func buildExtractionPrompt(userMessages []string) string {
	var sb strings.Builder
	sb.WriteString("You are extracting long-term coaching memory from user messages.\n")
	sb.WriteString("Return JSON only, with this exact shape:\n")
	sb.WriteString(`{"facts": ["..."], "insights": ["..."]}` + "\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- facts: stable constraints/preferences/schedules likely useful for weeks.\n")
	sb.WriteString("- insights: recurring behavior patterns, obstacles, motivation triggers.\n")
	sb.WriteString("- Keep each item one concise sentence, <= 140 chars.\n")
	sb.WriteString("- Do not include temporary details tied only to today/yesterday.\n")
	sb.WriteString("- Max 2 facts and 2 insights.\n\n")
	sb.WriteString("Messages:\n")
	for i, msg := range userMessages {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, msg)
	}
	return sb.String()
}

// modelPayload is the strict shape the extraction prompt demands.
type modelPayload struct {
	Facts    []string `json:"facts"`
	Insights []string `json:"insights"`
}

var fencedBlockRe = regexp.MustCompile("(?is)```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// payloadStrategy attempts to locate and decode the JSON payload inside a
// raw model response. Strategies are tried in order; the first success wins.
type payloadStrategy func(raw string) ([]Candidate, bool)

var payloadStrategies = []payloadStrategy{
	fencedBlockStrategy,
	braceSpanStrategy,
	wholeResponseStrategy,
}

// parseModelPayload tolerates prose-wrapped model output: fenced code block
// first, then the span between the outermost braces, then the raw text.
func parseModelPayload(raw string) []Candidate {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	for _, strategy := range payloadStrategies {
		if candidates, ok := strategy(trimmed); ok {
			return candidates
		}
	}
	return nil
}

func fencedBlockStrategy(raw string) ([]Candidate, bool) {
	m := fencedBlockRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	return decodePayload(m[1])
}

func braceSpanStrategy(raw string) ([]Candidate, bool) {
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first < 0 || last <= first {
		return nil, false
	}
	return decodePayload(raw[first : last+1])
}

func wholeResponseStrategy(raw string) ([]Candidate, bool) {
	return decodePayload(raw)
}

func decodePayload(payload string) ([]Candidate, bool) {
	var parsed modelPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &parsed); err != nil {
		return nil, false
	}

	var candidates []Candidate
	candidates = appendModelItems(candidates, parsed.Facts, KindLongTermFact)
	candidates = appendModelItems(candidates, parsed.Insights, KindUserInsight)
	return candidates, true
}

func appendModelItems(candidates []Candidate, items []string, kind Kind) []Candidate {
	added := 0
	for _, item := range items {
		text := strings.TrimSpace(item)
		if text == "" {
			continue
		}
		candidates = append(candidates, Candidate{Kind: kind, Content: normalizeCandidateSentence(text)})
		added++
		if added >= modelItemsPerKind {
			break
		}
	}
	return candidates
}

// heuristicCandidates classifies first-person declarative sentences by
// keyword: stable-fact hints win over struggle hints, and sentences scoped
// only to the immediate present are dropped.
func heuristicCandidates(rawText string) []Candidate {
	normalized := strings.TrimSpace(whitespaceRe.ReplaceAllString(rawText, " "))
	if normalized == "" {
		return nil
	}

	sentences := splitSentences(normalized)
	if len(sentences) == 0 {
		sentences = []string{normalized}
	}

	var candidates []Candidate
	for _, sentence := range sentences {
		trimmed := strings.TrimSpace(sentence)
		if len(trimmed) < 18 || len(trimmed) > maxCandidateLen {
			continue
		}

		lower := " " + strings.ToLower(trimmed) + " "
		if strings.Contains(lower, "?") || strings.Contains(lower, "？") {
			continue
		}

		if !containsAny(lower, firstPersonMarkers) {
			continue
		}

		hasStableFact := containsAny(lower, stableFactHints)
		hasInsight := containsAny(lower, insightHints)
		shortTermOnly := containsAny(lower, shortTermMarkers) && !hasStableFact

		if shortTermOnly || (!hasStableFact && !hasInsight) {
			continue
		}

		kind := KindUserInsight
		if hasStableFact {
			kind = KindLongTermFact
		}

		candidates = append(candidates, Candidate{Kind: kind, Content: normalizeCandidateSentence(trimmed)})
		if len(candidates) >= heuristicPerMessageCap {
			break
		}
	}
	return candidates
}
