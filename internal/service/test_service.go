package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"buddy-tutor-be/internal/dto"
	"buddy-tutor-be/internal/entity"
	"buddy-tutor-be/internal/mapper"
	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/internal/repository/contract"

	"github.com/google/uuid"
)

const (
	DefaultPassThreshold = 60
	mcqPrefix            = "q-mcq-"
	defaultWrittenAnswer = "Rotation on axis causes day and night."
)

var (
	ErrTestNotFound      = errors.New("test not found")
	ErrTestSubmitted     = errors.New("test already submitted")
	ErrQuestionNotInTest = errors.New("questionId not in this test")
)

// SubmissionObserver is told about every submitted test.
type SubmissionObserver interface {
	ObserveTestSubmitted()
}

type ITestService interface {
	Start(ctx context.Context, req *dto.StartTestRequest) (*dto.StartTestResponse, error)
	SaveAnswer(ctx context.Context, testId uuid.UUID, req *dto.SaveAnswerRequest) (*dto.SaveAnswerResponse, error)
	Submit(ctx context.Context, testId uuid.UUID, req *dto.SubmitTestRequest) (*dto.SubmitTestResponse, error)
	Summary(ctx context.Context, testId uuid.UUID) (*dto.TestSummaryResponse, error)
}

type testService struct {
	repo     contract.TestSessionRepository
	mapper   *mapper.TestSessionMapper
	observer SubmissionObserver
	logger   logger.ILogger
	now      func() time.Time
}

func NewTestService(repo contract.TestSessionRepository, observer SubmissionObserver, log logger.ILogger) ITestService {
	return &testService{
		repo:     repo,
		mapper:   mapper.NewTestSessionMapper(),
		observer: observer,
		logger:   log,
		now:      time.Now,
	}
}

func (s *testService) Start(ctx context.Context, req *dto.StartTestRequest) (*dto.StartTestResponse, error) {
	threshold := req.PassThreshold
	if threshold <= 0 {
		threshold = DefaultPassThreshold
	}

	session := &entity.TestSession{
		Id:            uuid.New(),
		ChapterId:     req.ChapterId,
		QuestionIds:   append([]string(nil), req.QuestionIds...),
		Rubrics:       req.Rubrics,
		Answers:       map[string]interface{}{},
		Graded:        map[string]entity.GradeRow{},
		PassThreshold: threshold,
		StartedAt:     s.now(),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("TestService", "Test session started", map[string]interface{}{
		"test_id":   session.Id.String(),
		"chapter":   session.ChapterId,
		"questions": len(session.QuestionIds),
	})
	return &dto.StartTestResponse{TestId: session.Id}, nil
}

func (s *testService) SaveAnswer(ctx context.Context, testId uuid.UUID, req *dto.SaveAnswerRequest) (*dto.SaveAnswerResponse, error) {
	err := s.repo.Update(ctx, testId, func(session *entity.TestSession) error {
		if session.Submitted {
			return ErrTestSubmitted
		}
		if !session.HasQuestion(req.QuestionId) {
			return ErrQuestionNotInTest
		}
		session.Answers[req.QuestionId] = req.Answer
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return &dto.SaveAnswerResponse{Saved: true}, nil
}

func (s *testService) Submit(ctx context.Context, testId uuid.UUID, req *dto.SubmitTestRequest) (*dto.SubmitTestResponse, error) {
	var res *dto.SubmitTestResponse

	err := s.repo.Update(ctx, testId, func(session *entity.TestSession) error {
		if session.Submitted {
			return ErrTestSubmitted
		}
		threshold := session.PassThreshold
		if req != nil && req.PassThreshold > 0 {
			threshold = req.PassThreshold
		}

		correct := 0
		for _, qid := range session.QuestionIds {
			row := s.grade(session, qid, threshold)
			session.Graded[qid] = row
			if row.Score10 == 10 {
				correct++
			}
		}

		now := s.now()
		session.Submitted = true
		session.SubmittedAt = &now

		total := len(session.QuestionIds)
		res = &dto.SubmitTestResponse{
			OverallPercent: percent(correct, total),
			Correct:        correct,
			Total:          total,
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	if s.observer != nil {
		s.observer.ObserveTestSubmitted()
	}
	s.logger.Info("TestService", "Test submitted", map[string]interface{}{
		"test_id": testId.String(),
		"percent": res.OverallPercent,
	})
	return res, nil
}

func (s *testService) Summary(ctx context.Context, testId uuid.UUID) (*dto.TestSummaryResponse, error) {
	session, err := s.repo.FindOne(ctx, testId)
	if err != nil {
		return nil, mapRepoError(err)
	}

	rows := make([]entity.GradeRow, 0, len(session.QuestionIds))
	correct := 0
	for _, qid := range session.QuestionIds {
		row, ok := session.Graded[qid]
		if !ok {
			// Not graded yet: zero score, no reference answer.
			row = entity.GradeRow{
				QuestionId: qid,
				Type:       questionType(qid),
				YourAnswer: session.Answers[qid],
			}
		}
		if row.Score10 == 10 {
			correct++
		}
		rows = append(rows, row)
	}

	end := s.now()
	if session.SubmittedAt != nil {
		end = *session.SubmittedAt
	}
	spent := int64(end.Sub(session.StartedAt).Seconds())
	if spent < 0 {
		spent = 0
	}

	return &dto.TestSummaryResponse{
		OverallPercent: percent(correct, len(session.QuestionIds)),
		CorrectCount:   correct,
		Total:          len(session.QuestionIds),
		TimeSpentSec:   spent,
		Rows:           s.mapper.ToGradeRowDTOs(rows),
	}, nil
}

// grade scores one question, reusing an earlier grade for the same answer.
func (s *testService) grade(session *entity.TestSession, qid string, threshold int) entity.GradeRow {
	answer := session.Answers[qid]
	hash := hashAnswer(answer)
	if row, ok := s.repo.GetGrade(session.Id, qid, hash); ok {
		return row
	}

	var row entity.GradeRow
	if questionType(qid) == entity.QuestionTypeMCQ {
		correctIndex := 0
		if qid == mcqPrefix+"1" {
			correctIndex = 1
		}
		selected, ok := answerIndex(answer)
		isCorrect := ok && selected == correctIndex
		row = entity.GradeRow{
			QuestionId:    qid,
			Type:          entity.QuestionTypeMCQ,
			YourAnswer:    answer,
			CorrectAnswer: correctIndex,
			IsCorrect:     isCorrect,
			MissedKeys:    []string{},
		}
		if isCorrect {
			row.Score10 = 10
		}
	} else {
		text, _ := answer.(string)
		score, passed, missed := GradeWritten(text, threshold, session.Rubrics[qid])
		row = entity.GradeRow{
			QuestionId:    qid,
			Type:          entity.QuestionTypeWritten,
			YourAnswer:    text,
			CorrectAnswer: defaultWrittenAnswer,
			Score10:       score,
			IsCorrect:     passed,
			MissedKeys:    missed,
		}
	}

	s.repo.SetGrade(session.Id, qid, hash, row)
	return row
}

// GradeWritten applies the keyword heuristic to a written answer and returns
// the 10-point score, whether it passed, and rubric points the answer missed.
func GradeWritten(answer string, threshold int, rubric []string) (int, bool, []string) {
	lowered := strings.ToLower(answer)

	percentScore := 40
	if strings.Contains(lowered, "rotation") || strings.Contains(lowered, "rotate") {
		percentScore = 80
	}
	if strings.Contains(lowered, "axis") {
		percentScore = 95
	}

	passed := percentScore >= threshold
	score := 0
	if passed {
		score = 10
	}

	missed := []string{}
	for _, key := range rubric {
		if key != "" && !strings.Contains(lowered, strings.ToLower(key)) {
			missed = append(missed, key)
		}
	}
	return score, passed, missed
}

func questionType(qid string) string {
	if strings.HasPrefix(qid, mcqPrefix) {
		return entity.QuestionTypeMCQ
	}
	return entity.QuestionTypeWritten
}

// answerIndex accepts the integral numbers JSON decoding produces.
func answerIndex(answer interface{}) (int, bool) {
	switch v := answer.(type) {
	case int:
		return v, true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
	}
	return 0, false
}

func hashAnswer(answer interface{}) string {
	payload, err := json.Marshal(answer)
	if err != nil {
		payload = []byte(fmt.Sprint(answer))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func percent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(correct) / float64(total) * 100))
}

func mapRepoError(err error) error {
	if errors.Is(err, contract.ErrTestSessionNotFound) {
		return ErrTestNotFound
	}
	return err
}
