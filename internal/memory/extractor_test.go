package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompletion struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompletion) Complete(_ context.Context, _, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestExtractor_ModelTier(t *testing.T) {
	client := &fakeCompletion{
		response: `{"facts": ["I work night shifts at the hospital"], "insights": ["I procrastinate when tasks feel vague"]}`,
	}
	ex := NewExtractor(client, true)

	candidates := ex.Extract(context.Background(), []string{"some user message"})
	require.Len(t, candidates, 2)

	// The model candidates come first and get terminal punctuation.
	assert.Equal(t, KindLongTermFact, candidates[0].Kind)
	assert.Equal(t, "I work night shifts at the hospital.", candidates[0].Content)
	assert.Equal(t, KindUserInsight, candidates[1].Kind)
	assert.Equal(t, "I procrastinate when tasks feel vague.", candidates[1].Content)
}

func TestExtractor_ModelTier_FencedPayload(t *testing.T) {
	client := &fakeCompletion{
		response: "Here you go:\n```json\n{\"facts\": [\"I always train before work\"], \"insights\": []}\n```\nHope that helps!",
	}
	ex := NewExtractor(client, true)

	candidates := ex.Extract(context.Background(), []string{"hi"})
	require.NotEmpty(t, candidates)
	assert.Equal(t, "I always train before work.", candidates[0].Content)
}

func TestExtractor_ModelTier_BraceSpanPayload(t *testing.T) {
	client := &fakeCompletion{
		response: `Sure thing: {"facts": ["I commute by bike"], "insights": []} as requested.`,
	}
	ex := NewExtractor(client, true)

	candidates := ex.Extract(context.Background(), []string{"hi"})
	require.NotEmpty(t, candidates)
	assert.Equal(t, "I commute by bike.", candidates[0].Content)
}

func TestExtractor_ModelTier_CapsPerKind(t *testing.T) {
	client := &fakeCompletion{
		response: `{"facts": ["I wake at five every day", "I never eat breakfast", "I work from home on Fridays"], "insights": []}`,
	}
	ex := NewExtractor(client, true)

	candidates := ex.modelCandidates(context.Background(), []string{"hi"})
	assert.Len(t, candidates, 2)
}

func TestExtractor_ModelErrorFallsBackToHeuristics(t *testing.T) {
	client := &fakeCompletion{err: errors.New("upstream timeout")}
	ex := NewExtractor(client, true)

	candidates := ex.Extract(context.Background(), []string{
		"I usually work out in the morning before my shift starts.",
	})
	require.Len(t, candidates, 1)
	assert.Equal(t, KindLongTermFact, candidates[0].Kind)
}

func TestExtractor_DisabledSkipsModel(t *testing.T) {
	client := &fakeCompletion{response: `{"facts": ["unused"], "insights": []}`}
	ex := NewExtractor(client, false)

	ex.Extract(context.Background(), []string{"I usually sleep badly on weekends."})
	assert.Empty(t, client.prompts)
}

func TestExtractor_PromptShape(t *testing.T) {
	client := &fakeCompletion{response: `{"facts": [], "insights": []}`}
	ex := NewExtractor(client, true)

	ex.Extract(context.Background(), []string{"first message", "second message"})
	require.Len(t, client.prompts, 1)

	prompt := client.prompts[0]
	assert.Contains(t, prompt, `{"facts": ["..."], "insights": ["..."]}`)
	assert.Contains(t, prompt, "Messages:\n1. first message\n2. second message\n")
	assert.Contains(t, prompt, "Max 2 facts and 2 insights.")
}

func TestHeuristicCandidates_Classification(t *testing.T) {
	// Stable-fact hint wins over insight hint.
	c := heuristicCandidates("I usually struggle to focus in the evening.")
	if assert.Len(t, c, 1) {
		assert.Equal(t, KindLongTermFact, c[0].Kind)
	}

	// Insight hint alone yields USER_INSIGHT.
	c = heuristicCandidates("I get overwhelmed whenever my task list grows.")
	if assert.Len(t, c, 1) {
		assert.Equal(t, KindUserInsight, c[0].Kind)
	}
}

func TestHeuristicCandidates_Filters(t *testing.T) {
	// Questions are ignored.
	assert.Empty(t, heuristicCandidates("Should I try morning workouts tomorrow maybe?"))

	// Third-person sentences are ignored.
	assert.Empty(t, heuristicCandidates("People usually prefer working out in the morning."))

	// Short-term-only sentences are ignored.
	assert.Empty(t, heuristicCandidates("I was very distracted today honestly."))

	// Too-short sentences are ignored.
	assert.Empty(t, heuristicCandidates("I forget things."))

	// Too-long sentences are ignored.
	long := "I usually " + strings.Repeat("really ", 40) + "prefer mornings."
	assert.Empty(t, heuristicCandidates(long))
}

func TestHeuristicCandidates_PerMessageCap(t *testing.T) {
	text := "I usually train before work. I never snack at my desk. I always plan my evening runs."
	assert.Len(t, heuristicCandidates(text), 2)
}

func TestExtractor_WindowsLastThreeMessages(t *testing.T) {
	client := &fakeCompletion{response: `{"facts": [], "insights": []}`}
	ex := NewExtractor(client, true)

	ex.Extract(context.Background(), []string{"one", "two", "three", "four"})
	require.Len(t, client.prompts, 1)
	assert.NotContains(t, client.prompts[0], "1. one")
	assert.Contains(t, client.prompts[0], "1. two")
}
