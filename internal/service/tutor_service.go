package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"buddy-tutor-be/internal/dto"
	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/pkg/llm"
	"buddy-tutor-be/pkg/rag/history"
	"buddy-tutor-be/pkg/rag/mode"
	"buddy-tutor-be/pkg/rag/orchestrator"
	"buddy-tutor-be/pkg/rag/retrieval"
)

const minChapterPassages = 10

var ErrHistoryNotFound = errors.New("chat history not found")

type ITutorService interface {
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	Status(ctx context.Context) (*dto.StatusResponse, error)
	Chapter(ctx context.Context, req *dto.ChapterRequest) (*dto.ChapterResponse, error)
	SaveHistory(ctx context.Context, req *dto.SaveHistoryRequest) (*dto.SaveHistoryResponse, error)
	LoadHistory(ctx context.Context, name string) (*dto.ChatHistoryFile, error)
}

// Answerer is the part of the orchestrator the service depends on.
type Answerer interface {
	Answer(ctx context.Context, req orchestrator.Request) (*orchestrator.AnswerResult, error)
	Policies() []mode.Policy
}

type TutorServiceConfig struct {
	ProviderName string
	StoreName    string
	SourceFilter map[string]string
}

type tutorService struct {
	answerer Answerer
	store    retrieval.Store
	history  *history.Store
	cfg      TutorServiceConfig
	logger   logger.ILogger
}

func NewTutorService(
	answerer Answerer,
	store retrieval.Store,
	historyStore *history.Store,
	cfg TutorServiceConfig,
	log logger.ILogger,
) ITutorService {
	return &tutorService{
		answerer: answerer,
		store:    store,
		history:  historyStore,
		cfg:      cfg,
		logger:   log,
	}
}

// Chat returns orchestrator.ClientError untouched so the caller can map it
// to a 400.
func (s *tutorService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	turns := make([]llm.Message, 0, len(req.History))
	for _, t := range req.History {
		turns = append(turns, llm.Message{Role: t.Role, Content: t.Content})
	}

	res, err := s.answerer.Answer(ctx, orchestrator.Request{
		Question: req.Question,
		Mode:     req.Mode,
		History:  turns,
	})
	if err != nil {
		return nil, err
	}

	return &dto.ChatResponse{
		Success:            res.Success,
		Answer:             res.Text,
		Mode:               string(res.UsedMode),
		SourceLabel:        res.SourceLabel,
		SuggestedQuestions: res.SuggestedQuestions,
		Notes:              res.Notes,
		Reason:             res.Reason,
	}, nil
}

func (s *tutorService) Status(ctx context.Context) (*dto.StatusResponse, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("TutorService", "Failed to count passages", map[string]interface{}{"error": err.Error()})
		count = 0
	}
	return &dto.StatusResponse{
		Provider:     s.cfg.ProviderName,
		Store:        s.cfg.StoreName,
		PassageCount: count,
		Modes:        s.answerer.Policies(),
	}, nil
}

// Chapter assembles chapter-style reading material straight from retrieved
// passages without calling the generation model.
func (s *tutorService) Chapter(ctx context.Context, req *dto.ChapterRequest) (*dto.ChapterResponse, error) {
	m := mode.Textbook
	if req.Mode != "" {
		parsed, err := mode.Parse(req.Mode)
		if err != nil {
			return nil, &orchestrator.ClientError{Field: "mode", Message: err.Error()}
		}
		m = parsed
	}

	k := minChapterPassages
	for _, p := range s.answerer.Policies() {
		if p.Mode == m && p.RetrievalCount > k {
			k = p.RetrievalCount
		}
	}

	passages, err := s.store.Search(ctx, req.Topic, k, s.cfg.SourceFilter)
	if err != nil {
		return nil, fmt.Errorf("retrieve chapter passages: %w", err)
	}

	sections := make([]dto.ChapterSection, 0, len(passages))
	for i, p := range passages {
		title := fmt.Sprintf("Section %d", i)
		switch {
		case i == 0:
			title = "Chapter Introduction"
		case i == len(passages)-1:
			title = "Summary"
		}
		sections = append(sections, dto.ChapterSection{
			Title:      title,
			Content:    strings.Join(strings.Fields(p.Text), " "),
			PageNumber: p.PageNumber,
		})
	}

	return &dto.ChapterResponse{Topic: req.Topic, Mode: string(m), Sections: sections}, nil
}

func (s *tutorService) SaveHistory(ctx context.Context, req *dto.SaveHistoryRequest) (*dto.SaveHistoryResponse, error) {
	messages := make([]llm.Message, 0, len(req.Messages))
	for _, t := range req.Messages {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}

	name, err := s.history.Save(req.Name, messages)
	if errors.Is(err, history.ErrInvalidName) {
		return nil, &orchestrator.ClientError{Field: "name", Message: "must contain letters, digits, '-' or '_'"}
	}
	if err != nil {
		return nil, err
	}
	return &dto.SaveHistoryResponse{Name: name}, nil
}

func (s *tutorService) LoadHistory(ctx context.Context, name string) (*dto.ChatHistoryFile, error) {
	t, err := s.history.Load(name)
	switch {
	case errors.Is(err, history.ErrInvalidName):
		return nil, &orchestrator.ClientError{Field: "name", Message: "must contain letters, digits, '-' or '_'"}
	case errors.Is(err, history.ErrNotFound):
		return nil, ErrHistoryNotFound
	case err != nil:
		return nil, err
	}

	turns := make([]dto.ChatTurn, 0, len(t.Messages))
	for _, m := range t.Messages {
		turns = append(turns, dto.ChatTurn{Role: m.Role, Content: m.Content})
	}
	return &dto.ChatHistoryFile{Name: t.Name, ExportedAt: t.ExportedAt, Messages: turns}, nil
}
