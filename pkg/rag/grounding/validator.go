// Package grounding gates strict-mode answers. The check is deliberately
// simple string matching: it flags missing passages and hedging phrases, and
// does not compare the answer's claims against the passages.
package grounding

import (
	"fmt"
	"strings"

	"buddy-tutor-be/pkg/rag/mode"
	"buddy-tutor-be/pkg/rag/retrieval"
)

type Reason string

const (
	ReasonNoPassages    Reason = "no_passages"
	ReasonHedgeDetected Reason = "hedge_detected"
)

// Failure reports that a strict answer is not backed by the textbook.
type Failure struct {
	Reason Reason
	Phrase string
}

func (f *Failure) Error() string {
	if f.Phrase != "" {
		return fmt.Sprintf("grounding failure: %s (%q)", f.Reason, f.Phrase)
	}
	return fmt.Sprintf("grounding failure: %s", f.Reason)
}

// HedgePhrases are matched case-insensitively against generated text.
var HedgePhrases = []string{
	"i don't have information",
	"not in the textbook",
	"cannot be answered",
	"insufficient information",
}

// Precheck runs before generation so strict mode never pays for a call that
// has nothing to ground on.
func Precheck(policy mode.Policy, passages []retrieval.Passage) error {
	if policy.Strict && len(passages) == 0 {
		return &Failure{Reason: ReasonNoPassages}
	}
	return nil
}

// Validate returns text unchanged when it passes the gate.
func Validate(policy mode.Policy, passages []retrieval.Passage, text string) (string, error) {
	if err := Precheck(policy, passages); err != nil {
		return "", err
	}
	if !policy.Strict {
		return text, nil
	}

	lower := strings.ToLower(text)
	for _, phrase := range HedgePhrases {
		if strings.Contains(lower, phrase) {
			return "", &Failure{Reason: ReasonHedgeDetected, Phrase: phrase}
		}
	}
	return text, nil
}
