package suggest

import (
	"fmt"
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[A-Za-z]+`)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "any": true, "can": true, "had": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "has": true, "have": true,
	"his": true, "how": true, "its": true, "may": true, "new": true, "now": true,
	"old": true, "see": true, "two": true, "who": true, "did": true, "does": true,
	"get": true, "let": true, "say": true, "she": true, "too": true, "use": true,
	"that": true, "this": true, "with": true, "from": true, "they": true, "them": true,
	"then": true, "than": true, "there": true, "their": true, "these": true, "those": true,
	"what": true, "when": true, "where": true, "which": true, "while": true, "will": true,
	"would": true, "could": true, "should": true, "about": true, "also": true, "been": true,
	"being": true, "into": true, "more": true, "most": true, "much": true, "some": true,
	"such": true, "very": true, "were": true, "your": true, "here": true, "just": true,
	"like": true, "only": true, "other": true, "over": true, "same": true, "each": true,
	"because": true, "between": true, "through": true, "during": true, "before": true,
	"after": true, "above": true, "below": true, "why": true, "is": true, "explain": true,
	"tell": true, "textbook": true, "question": true, "answer": true, "many": true,
}

var keywordTemplates = []string{
	"Can you explain %s in more detail?",
	"What are the key facts about %s?",
	"How does %s relate to other concepts?",
}

// Keywords returns up to three distinct, lower-cased content words in order
// of first appearance.
func Keywords(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(text, -1) {
		w = strings.ToLower(w)
		if len(w) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// keywordQuestions pairs the i-th keyword with the i-th template first, then
// every remaining combination.
func keywordQuestions(text string) []string {
	keywords := Keywords(text)
	var out []string
	for i, kw := range keywords {
		out = append(out, fmt.Sprintf(keywordTemplates[i%len(keywordTemplates)], kw))
	}
	for i, kw := range keywords {
		for j, tmpl := range keywordTemplates {
			if j == i%len(keywordTemplates) {
				continue
			}
			out = append(out, fmt.Sprintf(tmpl, kw))
		}
	}
	return out
}

type topic struct {
	pattern   *regexp.Regexp
	questions []string
}

var topics = []topic{
	{
		pattern: regexp.MustCompile(`(?i)solar system|\bplanets?\b`),
		questions: []string{
			"What are the eight planets in our solar system?",
			"How do planets orbit around the Sun?",
			"What makes Earth special compared to other planets?",
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)\bsun\b|\bstars?\b`),
		questions: []string{
			"How does the Sun produce light and heat?",
			"Why does the Sun appear bigger than other stars?",
			"What would happen to Earth without the Sun?",
		},
	},
	{
		pattern: regexp.MustCompile(`(?i)\bmoon\b`),
		questions: []string{
			"Why does the Moon have different phases?",
			"How does the Moon affect Earth's oceans?",
			"How far away is the Moon from Earth?",
		},
	},
}

func topicQuestions(text string) []string {
	for _, t := range topics {
		if t.pattern.MatchString(text) {
			return t.questions
		}
	}
	return nil
}
