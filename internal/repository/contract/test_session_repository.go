package contract

import (
	"context"
	"errors"

	"buddy-tutor-be/internal/entity"

	"github.com/google/uuid"
)

var ErrTestSessionNotFound = errors.New("test session not found")

type TestSessionRepository interface {
	Create(ctx context.Context, session *entity.TestSession) error
	// FindOne returns a snapshot; mutating it does not affect the stored session.
	FindOne(ctx context.Context, id uuid.UUID) (*entity.TestSession, error)
	// Update runs fn while holding the session's own lock, so writes to one
	// session are serialized without blocking others.
	Update(ctx context.Context, id uuid.UUID, fn func(session *entity.TestSession) error) error
	GetGrade(testId uuid.UUID, qid, answerHash string) (entity.GradeRow, bool)
	SetGrade(testId uuid.UUID, qid, answerHash string, row entity.GradeRow)
}
