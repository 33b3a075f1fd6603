package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/pkg/cache"
	"buddy-tutor-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const answer = "The solar system is made of the Sun and everything that orbits it, including eight planets, their moons, asteroids and comets."

func newGenerator(p llm.LLMProvider, opts ...Option) *Generator {
	return NewGenerator(p, "chat-model", logger.NewNopLogger(), opts...)
}

func assertQuestions(t *testing.T, got []string, count int) {
	t.Helper()
	require.Len(t, got, count)
	for _, q := range got {
		assert.NotEmpty(t, q)
		assert.True(t, strings.HasSuffix(q, "?"), "%q should end with ?", q)
	}
}

func TestSuggest_ShortTextUsesFallbackWithoutCallingModel(t *testing.T) {
	mock := llm.NewMockProvider()

	got := newGenerator(mock).Suggest(context.Background(), "Too short.", 3)

	assert.Equal(t, FallbackQuestions, got)
	assert.Zero(t, mock.CallCount())
}

func TestSuggest_StructuredOutput(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: "```json\n[\"How many planets orbit the Sun?\", \"What is an asteroid made of?\", \"Why do comets have tails?\", \"What is a dwarf planet?\"]\n```",
	})

	got := newGenerator(mock).Suggest(context.Background(), answer, 3)

	assert.Equal(t, []string{
		"How many planets orbit the Sun?",
		"What is an asteroid made of?",
		"Why do comets have tails?",
	}, got)
	require.Equal(t, 1, mock.CallCount())
	assert.Equal(t, "chat-model", mock.Calls[0].Options.Model)
}

func TestSuggest_RepairsNearJSON(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: `["How many planets orbit the Sun?", "What is an asteroid made of?", "Why do comets have tails?",]`,
	})

	got := newGenerator(mock).Suggest(context.Background(), answer, 3)

	assert.Equal(t, "How many planets orbit the Sun?", got[0])
	assertQuestions(t, got, 3)
}

func TestSuggest_LineOutputStripsMarkers(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: "1. How many planets orbit the Sun\n- What is an asteroid made of?\n• Why?\n* Why do comets have tails?",
	})

	got := newGenerator(mock).Suggest(context.Background(), answer, 3)

	assert.Equal(t, []string{
		"How many planets orbit the Sun?",
		"What is an asteroid made of?",
		"Why do comets have tails?",
	}, got)
}

func TestSuggest_BackfillsWithKeywords(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: `["How many planets orbit the Sun?"]`})

	got := newGenerator(mock).Suggest(context.Background(), answer, 3)

	assertQuestions(t, got, 3)
	assert.Equal(t, "How many planets orbit the Sun?", got[0])
	assert.Equal(t, "Can you explain solar in more detail?", got[1])
	assert.Equal(t, "What are the key facts about system?", got[2])
}

func TestSuggest_ProviderFailureFallsBackToKeywords(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: errors.New("boom")})

	got := newGenerator(mock).Suggest(context.Background(), answer, 3)

	assertQuestions(t, got, 3)
	assert.Contains(t, got[0], "solar")
}

func TestSuggest_NoKeywordsFallsBackToTriple(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: "no"})
	text := "is it to be or not to be, and so on and so on, as it is?"

	got := newGenerator(mock).Suggest(context.Background(), text, 3)

	assert.Equal(t, FallbackQuestions, got)
}

func TestSuggest_AlwaysExactlyCount(t *testing.T) {
	for _, count := range []int{1, 2, 3, 5} {
		mock := llm.NewMockProvider(llm.MockResponse{Content: "garbage"})
		got := newGenerator(mock).Suggest(context.Background(), answer, count)
		assertQuestions(t, got, count)
	}
}

func TestSuggest_UsesCache(t *testing.T) {
	lru, err := cache.NewLRU(8, nil)
	require.NoError(t, err)
	mock := &llm.MockProvider{Default: `["How many planets orbit the Sun?", "What is an asteroid made of?", "Why do comets have tails?"]`}
	g := newGenerator(mock, WithCache(lru))

	first := g.Suggest(context.Background(), answer, 3)
	second := g.Suggest(context.Background(), answer, 3)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.CallCount())
}

func TestHeuristic(t *testing.T) {
	got := Heuristic("What is the solar system?", 3)
	assert.Equal(t, []string{
		"What are the eight planets in our solar system?",
		"How do planets orbit around the Sun?",
		"What makes Earth special compared to other planets?",
	}, got)

	got = Heuristic("How do rockets work?", 3)
	assertQuestions(t, got, 3)
	assert.Equal(t, "Can you explain rockets in more detail?", got[0])

	assert.Equal(t, FallbackQuestions, Heuristic("", 3))
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"photosynthesis", "plants", "sunlight"},
		Keywords("Photosynthesis is how plants use sunlight, and plants need water."))
	assert.Empty(t, Keywords("it is on a"))
}

func TestParse(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, errParse)

	got, err := Parse(`["short", "What is a galaxy made of?"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"What is a galaxy made of?"}, got)
}
