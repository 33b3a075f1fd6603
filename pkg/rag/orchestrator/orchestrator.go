// Package orchestrator answers one tutoring request end to end:
// retrieve, prompt, generate, validate, suggest. It is the only place where
// failures become user-facing text.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/pkg/events"
	"buddy-tutor-be/pkg/llm"
	"buddy-tutor-be/pkg/rag/grounding"
	"buddy-tutor-be/pkg/rag/mode"
	"buddy-tutor-be/pkg/rag/prompt"
	"buddy-tutor-be/pkg/rag/retrieval"
	"buddy-tutor-be/pkg/rag/suggest"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	MinQuestionLength = 4
	logModule         = "TutorOrchestrator"
)

type Stage string

const (
	StageStart      Stage = "start"
	StageRetrieving Stage = "retrieving"
	StagePrompting  Stage = "prompting"
	StageGenerating Stage = "generating"
	StageValidating Stage = "validating"
	StageSuggesting Stage = "suggesting"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Failure reasons besides the grounding ones.
const (
	ReasonProviderTransient = "provider_transient"
	ReasonProviderFatal     = "provider_fatal"
)

type Request struct {
	Question string
	Mode     string
	History  []llm.Message
}

type AnswerResult struct {
	Success            bool      `json:"success"`
	Text               string    `json:"answer"`
	UsedMode           mode.Mode `json:"mode"`
	SourceLabel        string    `json:"sourceLabel"`
	SuggestedQuestions []string  `json:"suggestedQuestions"`
	Notes              string    `json:"notes,omitempty"`
	Reason             string    `json:"reason,omitempty"`
	PassagesUsed       int       `json:"passagesUsed"`
	// Stage is the last stage reached: StageDone on success, otherwise the
	// stage that failed.
	Stage Stage `json:"-"`
}

// ClientError is a malformed request. It is the only error Answer returns.
type ClientError struct {
	Field   string
	Message string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Config struct {
	MaxOutputTokens   int
	GenerationTimeout time.Duration
	SourceFilter      map[string]string
	HistoryTurns      int
	SuggestionCount   int
}

func DefaultConfig() Config {
	return Config{
		MaxOutputTokens:   1024,
		GenerationTimeout: 12 * time.Second,
		SourceFilter:      retrieval.SourceFilter(retrieval.DefaultSource),
		HistoryTurns:      6,
		SuggestionCount:   3,
	}
}

// Recorder receives one observation per answered request.
type Recorder interface {
	ObserveAnswer(mode, outcome string, elapsed time.Duration)
}

type Orchestrator struct {
	policies  *mode.Table
	retriever retrieval.Retriever
	provider  llm.LLMProvider
	suggester *suggest.Generator
	publisher events.Publisher
	recorder  Recorder
	logger    logger.ILogger
	tracer    trace.Tracer
	cfg       Config
}

type Option func(*Orchestrator)

func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// New wires the orchestrator. provider is expected to already carry the
// retry and fallback decorators.
func New(
	policies *mode.Table,
	retriever retrieval.Retriever,
	provider llm.LLMProvider,
	suggester *suggest.Generator,
	log logger.ILogger,
	cfg Config,
	opts ...Option,
) *Orchestrator {
	if cfg.SuggestionCount <= 0 {
		cfg.SuggestionCount = 3
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 12 * time.Second
	}
	o := &Orchestrator{
		policies:  policies,
		retriever: retriever,
		provider:  provider,
		suggester: suggester,
		logger:    log,
		tracer:    otel.Tracer("buddy-tutor-be/orchestrator"),
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Answer runs the full pipeline. Apart from *ClientError every outcome,
// including provider and grounding failures, is reported in the result.
func (o *Orchestrator) Answer(ctx context.Context, req Request) (*AnswerResult, error) {
	question := strings.TrimSpace(req.Question)
	if utf8.RuneCountInString(question) < MinQuestionLength {
		return nil, &ClientError{Field: "question", Message: fmt.Sprintf("must be at least %d characters", MinQuestionLength)}
	}

	m, err := mode.Parse(req.Mode)
	if err != nil {
		return nil, &ClientError{Field: "mode", Message: err.Error()}
	}
	policy, err := o.policies.PolicyFor(m)
	if err != nil {
		return nil, &ClientError{Field: "mode", Message: err.Error()}
	}

	ctx, span := o.tracer.Start(ctx, "tutor.answer", trace.WithAttributes(
		attribute.String("tutor.mode", string(m)),
		attribute.String("tutor.model", policy.ModelID),
	))
	defer span.End()

	start := time.Now()
	result := o.run(ctx, policy, question, req.History)
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.Bool("tutor.success", result.Success),
		attribute.Int("tutor.passages", result.PassagesUsed),
	)
	if !result.Success {
		span.SetStatus(codes.Error, result.Reason)
	}

	o.observe(ctx, policy, result, elapsed)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, policy mode.Policy, question string, history []llm.Message) *AnswerResult {
	passages := o.retrieve(ctx, policy, question)
	if err := grounding.Precheck(policy, passages); err != nil {
		return o.fail(policy, question, StageRetrieving, len(passages), err)
	}

	p := prompt.Build(policy.Mode, question, passages)
	messages := append(o.recentHistory(history), llm.Message{Role: llm.RoleUser, Content: p.User})

	genCtx, cancel := context.WithTimeout(ctx, o.cfg.GenerationTimeout)
	text, err := o.provider.Chat(genCtx, messages,
		llm.WithModel(policy.ModelID),
		llm.WithSystem(p.System),
		llm.WithTemperature(policy.Temperature),
		llm.WithMaxTokens(o.cfg.MaxOutputTokens),
	)
	cancel()
	if err != nil {
		return o.fail(policy, question, StageGenerating, len(passages), err)
	}
	text = strings.TrimSpace(text)

	if policy.Strict {
		text, err = grounding.Validate(policy, passages, text)
		if err != nil {
			return o.fail(policy, question, StageValidating, len(passages), err)
		}
	}

	suggestCtx, cancelSuggest := context.WithTimeout(ctx, o.cfg.GenerationTimeout)
	suggestions := o.suggester.Suggest(suggestCtx, text, o.cfg.SuggestionCount)
	cancelSuggest()

	return &AnswerResult{
		Success:            true,
		Text:               text,
		UsedMode:           policy.Mode,
		SourceLabel:        policy.SourceLabel,
		SuggestedQuestions: suggestions,
		Notes:              policy.Note,
		PassagesUsed:       len(passages),
		Stage:              StageDone,
	}
}

// retrieve treats a failing retriever as an empty result; strict mode turns
// that into no_passages right after.
func (o *Orchestrator) retrieve(ctx context.Context, policy mode.Policy, question string) []retrieval.Passage {
	if policy.RetrievalCount == 0 {
		return nil
	}
	passages, err := o.retriever.Search(ctx, question, policy.RetrievalCount, o.cfg.SourceFilter)
	if err != nil {
		o.logger.Warn(logModule, "Retrieval failed, continuing without passages", map[string]interface{}{
			"mode":  policy.Mode,
			"error": err.Error(),
		})
		return nil
	}
	o.logger.Debug(logModule, "Passages retrieved", map[string]interface{}{
		"mode":  policy.Mode,
		"count": len(passages),
	})
	return passages
}

func (o *Orchestrator) recentHistory(history []llm.Message) []llm.Message {
	var turns []llm.Message
	for _, h := range history {
		if strings.TrimSpace(h.Content) == "" {
			continue
		}
		if h.Role != llm.RoleUser && h.Role != llm.RoleAssistant {
			continue
		}
		turns = append(turns, h)
	}
	if o.cfg.HistoryTurns >= 0 && len(turns) > o.cfg.HistoryTurns {
		turns = turns[len(turns)-o.cfg.HistoryTurns:]
	}
	return turns
}

func (o *Orchestrator) fail(policy mode.Policy, question string, stage Stage, passages int, err error) *AnswerResult {
	result := &AnswerResult{
		Success:            false,
		UsedMode:           policy.Mode,
		SourceLabel:        policy.SourceLabel,
		SuggestedQuestions: suggest.Heuristic(question, o.cfg.SuggestionCount),
		PassagesUsed:       passages,
		Stage:              stage,
	}

	var gf *grounding.Failure
	switch {
	case errors.As(err, &gf):
		result.Reason = string(gf.Reason)
		result.Notes = "Insufficient textbook chunks found to confidently answer."
		if gf.Reason == grounding.ReasonNoPassages {
			result.Text = fmt.Sprintf("I couldn't find information about '%s' in the textbook. "+
				"This topic may not be covered in your science textbook, or you might need to rephrase your question.", question)
		} else {
			result.Text = fmt.Sprintf("The textbook doesn't contain enough information to answer: '%s'. "+
				"Please try asking about topics that are covered in your science textbook.", question)
		}
	case llm.IsTransient(err) || errors.Is(err, context.DeadlineExceeded):
		result.Reason = ReasonProviderTransient
		result.Text = "I'm getting a lot of questions right now. Please try again in a moment."
	default:
		result.Reason = ReasonProviderFatal
		result.Text = "Sorry, I couldn't generate an answer right now. Please try again later."
	}

	o.logger.Warn(logModule, "Answer failed", map[string]interface{}{
		"mode":   policy.Mode,
		"stage":  stage,
		"reason": result.Reason,
		"error":  err.Error(),
	})
	return result
}

func (o *Orchestrator) observe(ctx context.Context, policy mode.Policy, result *AnswerResult, elapsed time.Duration) {
	outcome := "success"
	if !result.Success {
		outcome = result.Reason
	}
	if o.recorder != nil {
		o.recorder.ObserveAnswer(string(policy.Mode), outcome, elapsed)
	}
	if o.publisher != nil {
		evt := events.NewAnswerEvent(string(policy.Mode), result.Success, result.Reason, policy.ModelID, result.PassagesUsed, elapsed)
		if err := o.publisher.Publish(ctx, evt); err != nil {
			o.logger.Error(logModule, "Failed to publish answer event", map[string]interface{}{"error": err.Error()})
		}
	}
}

// Policies exposes the mode table for status reporting.
func (o *Orchestrator) Policies() []mode.Policy {
	return o.policies.Policies()
}
