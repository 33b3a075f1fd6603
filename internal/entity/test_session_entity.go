package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	QuestionTypeMCQ     = "mcq"
	QuestionTypeWritten = "written"
)

type TestSession struct {
	Id            uuid.UUID
	ChapterId     string
	QuestionIds   []string
	Rubrics       map[string][]string
	Answers       map[string]interface{}
	Graded        map[string]GradeRow
	PassThreshold int
	Submitted     bool
	StartedAt     time.Time
	SubmittedAt   *time.Time
}

// HasQuestion reports whether qid belongs to the test.
func (s *TestSession) HasQuestion(qid string) bool {
	for _, id := range s.QuestionIds {
		if id == qid {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no maps or slices with s.
func (s *TestSession) Clone() *TestSession {
	c := *s
	c.QuestionIds = append([]string(nil), s.QuestionIds...)
	c.Rubrics = make(map[string][]string, len(s.Rubrics))
	for k, v := range s.Rubrics {
		c.Rubrics[k] = append([]string(nil), v...)
	}
	c.Answers = make(map[string]interface{}, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	c.Graded = make(map[string]GradeRow, len(s.Graded))
	for k, v := range s.Graded {
		c.Graded[k] = v
	}
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		c.SubmittedAt = &t
	}
	return &c
}

type GradeRow struct {
	QuestionId    string
	Type          string
	YourAnswer    interface{}
	CorrectAnswer interface{}
	Score10       int
	IsCorrect     bool
	MissedKeys    []string
}
