package memory

import (
	"regexp"
	"strings"
)

var (
	punctRe      = regexp.MustCompile(`[[:punct:]]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonTokenRe   = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	leadQuoteRe  = regexp.MustCompile("^[\"'“”‘’]+")
	trailQuoteRe = regexp.MustCompile("[\"'“”‘’]+$")
	hitScoreRe   = regexp.MustCompile(`\s*\(P\d+\)$`)
)

// maxCandidateLen bounds normalized candidate sentences.
const maxCandidateLen = 220

// normalizeForDedup lowercases, strips punctuation, and collapses
// whitespace. Dedup keys and whole-word token matching both run on this
// form; stored content stays verbatim.
func normalizeForDedup(content string) string {
	s := strings.ToLower(content)
	s = punctRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// isNearDuplicate applies the deliberately permissive containment test:
// equal normalized strings are duplicates, and so is containment when the
// shorter side is at least 20 characters. Thresholds count characters,
// not bytes, so multibyte content is measured the same as ASCII.
func isNearDuplicate(existing, candidate string) bool {
	if existing == candidate {
		return true
	}
	if len([]rune(existing)) >= 20 && strings.Contains(candidate, existing) {
		return true
	}
	if len([]rune(candidate)) >= 20 && strings.Contains(existing, candidate) {
		return true
	}
	return false
}

// splitSentences breaks text on terminal punctuation (ASCII and CJK)
// followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if !isSentenceTerminal(runes[i]) {
			continue
		}
		// Terminal punctuation ends a sentence at end-of-text or before whitespace.
		if i == len(runes)-1 || runes[i+1] == ' ' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSentenceTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// normalizeCandidateSentence strips wrapping quotes, truncates, and
// guarantees terminal punctuation.
func normalizeCandidateSentence(sentence string) string {
	s := leadQuoteRe.ReplaceAllString(sentence, "")
	s = trailQuoteRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if runes := []rune(s); len(runes) > maxCandidateLen {
		s = strings.TrimSpace(string(runes[:maxCandidateLen]))
	}

	if s != "" && !endsWithTerminal(s) {
		s += "."
	}
	return s
}

func endsWithTerminal(s string) bool {
	runes := []rune(s)
	return len(runes) > 0 && isSentenceTerminal(runes[len(runes)-1])
}

// queryTokens extracts lowercase alphanumeric tokens of at least 3
// characters, dropping stopwords and preserving first-seen order. The
// 12-token cap counts every surviving token, duplicates included, so a
// repetitive query spends its budget on the repeats.
func queryTokens(query string) []string {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var tokens []string
	considered := 0
	for _, raw := range nonTokenRe.Split(strings.ToLower(query), -1) {
		token := strings.TrimSpace(raw)
		if len(token) < 3 {
			continue
		}
		if _, stop := queryStopwords[token]; stop {
			continue
		}
		considered++
		if _, dup := seen[token]; !dup {
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
		if considered >= 12 {
			break
		}
	}
	return tokens
}

// containsAny reports whether content contains any of the keywords.
func containsAny(content string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(content, keyword) {
			return true
		}
	}
	return false
}
