// Package suggest derives follow-up questions from an answer. It always
// returns exactly the requested number of questions: model output first, then
// keyword-based questions, then fixed fallbacks.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/pkg/cache"
	"buddy-tutor-be/pkg/llm"

	"github.com/kaptinlin/jsonrepair"
)

const (
	minSourceLen   = 30
	maxSourceChars = 800
	minQuestionLen = 10
	maxQuestionLen = 150
	cacheSource    = "suggest"
)

// FallbackQuestions are used when nothing better can be derived.
var FallbackQuestions = []string{
	"Can you explain more about this topic?",
	"What are the key points to remember?",
	"How does this relate to other concepts?",
}

var errParse = errors.New("suggestion output did not parse")

type Generator struct {
	provider    llm.LLMProvider
	model       string
	temperature float64
	cache       cache.Store
	logger      logger.ILogger
}

type Option func(*Generator)

// WithCache memoizes successful suggestions by source text.
func WithCache(c cache.Store) Option {
	return func(g *Generator) {
		g.cache = c
	}
}

func WithTemperature(t float64) Option {
	return func(g *Generator) {
		g.temperature = t
	}
}

func NewGenerator(provider llm.LLMProvider, model string, log logger.ILogger, opts ...Option) *Generator {
	g := &Generator{
		provider:    provider,
		model:       model,
		temperature: 0.3,
		logger:      log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Suggest returns exactly count follow-up questions for sourceText. Parse and
// provider failures are logged and absorbed.
func (g *Generator) Suggest(ctx context.Context, sourceText string, count int) []string {
	if count <= 0 {
		return []string{}
	}
	if utf8.RuneCountInString(sourceText) < minSourceLen {
		return fill(nil, FallbackQuestions, count)
	}

	key := cache.NewKey(cacheSource, strconv.Itoa(count), sourceText)
	if g.cache != nil {
		if entry, ok := g.cache.Get(ctx, key); ok {
			return strings.Split(entry.Text, "\n")
		}
	}

	raw, err := g.provider.Generate(ctx, buildPrompt(truncate(sourceText, maxSourceChars), count),
		llm.WithModel(g.model),
		llm.WithTemperature(g.temperature),
		llm.WithMaxTokens(200),
	)

	var questions []string
	if err != nil {
		g.logger.Warn("SuggestionGenerator", "Suggestion generation failed, using keywords", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		var perr error
		questions, perr = Parse(raw)
		if perr != nil {
			g.logger.Debug("SuggestionGenerator", "Suggestion output unusable", map[string]interface{}{
				"error": perr.Error(),
			})
		}
	}

	result := complete(questions, keywordQuestions(sourceText), count)
	if err == nil && g.cache != nil {
		g.cache.Set(ctx, key, cache.Entry{Text: strings.Join(result, "\n")})
	}
	return result
}

// Heuristic builds count questions without calling the model. Failure paths
// use it so an apology still comes with something to ask next.
func Heuristic(text string, count int) []string {
	if count <= 0 {
		return []string{}
	}
	candidates := append(topicQuestions(text), keywordQuestions(text)...)
	return complete(nil, candidates, count)
}

func buildPrompt(text string, count int) string {
	var sb strings.Builder
	sb.WriteString("<content>\n")
	sb.WriteString(text)
	sb.WriteString("\n</content>\n\n")
	sb.WriteString(fmt.Sprintf("Write exactly %d short follow-up questions a student might ask after reading the content above.\n", count))
	sb.WriteString("Each question must end with a question mark.\n")
	sb.WriteString(`Return only a JSON array of strings, for example ["Question one?", "Question two?"].`)
	return sb.String()
}

// Parse extracts questions from model output. It tries a JSON array first
// (repairing near-JSON), then falls back to one question per line.
func Parse(raw string) ([]string, error) {
	if questions, ok := parseStructured(raw); ok {
		return questions, nil
	}
	questions := parseLines(raw)
	if len(questions) == 0 {
		return nil, errParse
	}
	return questions, nil
}

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

func parseStructured(raw string) ([]string, bool) {
	text := strings.TrimSpace(raw)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	start := strings.Index(text, "[")
	if start < 0 {
		return nil, false
	}
	end := strings.LastIndex(text, "]")
	candidate := text[start:]
	if end > start {
		candidate = text[start : end+1]
	}

	var items []string
	if err := json.Unmarshal([]byte(candidate), &items); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(candidate)
		if rerr != nil {
			return nil, false
		}
		if err := json.Unmarshal([]byte(repaired), &items); err != nil {
			return nil, false
		}
	}

	var questions []string
	for _, item := range items {
		if q, ok := normalize(item); ok {
			questions = append(questions, q)
		}
	}
	return questions, len(questions) > 0
}

var enumMarker = regexp.MustCompile(`^\s*(?:\d+[.)]|[-•*])\s*`)

func parseLines(raw string) []string {
	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		line = enumMarker.ReplaceAllString(line, "")
		if q, ok := normalize(line); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

// normalize trims a candidate, ensures it ends with '?' and applies the length window.
func normalize(s string) (string, bool) {
	q := strings.Trim(strings.Join(strings.Fields(s), " "), `"'`)
	q = strings.TrimSpace(q)
	if q == "" {
		return "", false
	}
	if !strings.HasSuffix(q, "?") {
		q += "?"
	}
	n := utf8.RuneCountInString(q)
	if n <= minQuestionLen || n >= maxQuestionLen {
		return "", false
	}
	return q, true
}

// complete dedupes primary, truncates it to count and backfills from
// candidates, then from the fallback triple. When count exceeds every
// distinct question available the fallbacks repeat.
func complete(primary, candidates []string, count int) []string {
	out := make([]string, 0, count)
	seen := make(map[string]bool)
	add := func(qs []string) {
		for _, q := range qs {
			if len(out) == count {
				return
			}
			k := strings.ToLower(q)
			if q == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, q)
		}
	}

	add(primary)
	add(candidates)
	add(FallbackQuestions)
	return fill(out, FallbackQuestions, count)
}

func fill(out, pool []string, count int) []string {
	for i := 0; len(out) < count; i++ {
		out = append(out, pool[i%len(pool)])
	}
	return out
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
