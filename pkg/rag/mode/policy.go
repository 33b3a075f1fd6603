// Package mode holds the tutoring modes and the policy table that decides,
// per mode, how deep to retrieve, how strictly to ground and which model to use.
package mode

import (
	"fmt"
	"strings"
)

type Mode string

const (
	Textbook Mode = "textbook"
	Detailed Mode = "detailed"
	Advanced Mode = "advanced"
)

// All lists the modes in presentation order.
var All = []Mode{Textbook, Detailed, Advanced}

type UnknownModeError struct {
	Value string
}

func (e *UnknownModeError) Error() string {
	return fmt.Sprintf("unknown mode %q: expected one of textbook, detailed, advanced", e.Value)
}

// Parse accepts a mode name case-insensitively.
func Parse(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case Textbook, Detailed, Advanced:
		return m, nil
	}
	return "", &UnknownModeError{Value: s}
}

type Policy struct {
	Mode           Mode    `json:"mode"`
	RetrievalCount int     `json:"retrievalCount"`
	ModelID        string  `json:"modelId"`
	Temperature    float64 `json:"temperature"`
	Strict         bool    `json:"strict"`
	Description    string  `json:"description"`
	SourceLabel    string  `json:"sourceLabel"`
	Note           string  `json:"note"`
}

// Models are the per-mode model identifiers coming from configuration.
type Models struct {
	Textbook string
	Detailed string
	Advanced string
}

// Table is built once at boot and only read afterwards.
type Table struct {
	policies map[Mode]Policy
}

// DefaultPolicies returns the stock tutoring policies bound to models.
func DefaultPolicies(models Models) []Policy {
	return []Policy{
		{
			Mode:           Textbook,
			RetrievalCount: 3,
			ModelID:        models.Textbook,
			Temperature:    0.1,
			Strict:         true,
			Description:    "Uses ONLY textbook content",
			SourceLabel:    "textbook_only",
			Note:           "Answer generated strictly from retrieved textbook chunks.",
		},
		{
			Mode:           Detailed,
			RetrievalCount: 4,
			ModelID:        models.Detailed,
			Temperature:    0.3,
			Description:    "Textbook content enhanced with explanations",
			SourceLabel:    "detailed_mode",
			Note:           "Detailed mode: textbook grounded with light elaboration.",
		},
		{
			Mode:           Advanced,
			RetrievalCount: 2,
			ModelID:        models.Advanced,
			Temperature:    0.7,
			Description:    "Primarily model knowledge with textbook as background",
			SourceLabel:    "advanced_mode",
			Note:           "Advanced mode: allows deeper reasoning beyond textbook.",
		},
	}
}

func NewTable(policies []Policy) (*Table, error) {
	t := &Table{policies: make(map[Mode]Policy, len(policies))}
	for _, p := range policies {
		if _, err := Parse(string(p.Mode)); err != nil {
			return nil, err
		}
		if p.RetrievalCount < 0 {
			return nil, fmt.Errorf("mode %s: retrieval count must be >= 0, got %d", p.Mode, p.RetrievalCount)
		}
		if p.Strict && p.Mode != Textbook {
			return nil, fmt.Errorf("mode %s: only textbook mode may be strict", p.Mode)
		}
		if p.ModelID == "" {
			return nil, fmt.Errorf("mode %s: model id is required", p.Mode)
		}
		t.policies[p.Mode] = p
	}
	for _, m := range All {
		if _, ok := t.policies[m]; !ok {
			return nil, fmt.Errorf("mode %s: missing policy", m)
		}
	}
	return t, nil
}

func (t *Table) PolicyFor(m Mode) (Policy, error) {
	p, ok := t.policies[m]
	if !ok {
		return Policy{}, &UnknownModeError{Value: string(m)}
	}
	return p, nil
}

// Policies returns every policy in presentation order.
func (t *Table) Policies() []Policy {
	out := make([]Policy, 0, len(All))
	for _, m := range All {
		out = append(out, t.policies[m])
	}
	return out
}
