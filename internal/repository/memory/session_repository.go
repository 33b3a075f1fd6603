package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"buddy-tutor-be/internal/entity"
	"buddy-tutor-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type sessionSlot struct {
	mu      sync.Mutex
	session *entity.TestSession
}

// TestSessionRepository keeps test sessions in process memory. Sessions are
// not persisted across restarts.
type TestSessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionSlot
	grades   *cache.Cache
}

var _ contract.TestSessionRepository = &TestSessionRepository{}

func NewTestSessionRepository(gradeTTL time.Duration) *TestSessionRepository {
	if gradeTTL <= 0 {
		gradeTTL = 24 * time.Hour
	}
	return &TestSessionRepository{
		sessions: make(map[uuid.UUID]*sessionSlot),
		// Expired grades are purged every 10 minutes
		grades: cache.New(gradeTTL, 10*time.Minute),
	}
}

func (r *TestSessionRepository) Create(ctx context.Context, session *entity.TestSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.Id]; exists {
		return fmt.Errorf("test session %s already exists", session.Id)
	}
	r.sessions[session.Id] = &sessionSlot{session: session.Clone()}
	return nil
}

func (r *TestSessionRepository) slot(id uuid.UUID) (*sessionSlot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, contract.ErrTestSessionNotFound
	}
	return s, nil
}

func (r *TestSessionRepository) FindOne(ctx context.Context, id uuid.UUID) (*entity.TestSession, error) {
	s, err := r.slot(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Clone(), nil
}

func (r *TestSessionRepository) Update(ctx context.Context, id uuid.UUID, fn func(session *entity.TestSession) error) error {
	s, err := r.slot(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// fn works on a copy so a failed update leaves the session untouched
	draft := s.session.Clone()
	if err := fn(draft); err != nil {
		return err
	}
	s.session = draft
	return nil
}

func gradeKey(testId uuid.UUID, qid, answerHash string) string {
	return testId.String() + "|" + qid + "|" + answerHash
}

func (r *TestSessionRepository) GetGrade(testId uuid.UUID, qid, answerHash string) (entity.GradeRow, bool) {
	if x, found := r.grades.Get(gradeKey(testId, qid, answerHash)); found {
		return x.(entity.GradeRow), true
	}
	return entity.GradeRow{}, false
}

func (r *TestSessionRepository) SetGrade(testId uuid.UUID, qid, answerHash string, row entity.GradeRow) {
	r.grades.Set(gradeKey(testId, qid, answerHash), row, cache.DefaultExpiration)
}
