package mapper

import (
	"buddy-tutor-be/internal/dto"
	"buddy-tutor-be/internal/entity"
)

type TestSessionMapper struct{}

func NewTestSessionMapper() *TestSessionMapper {
	return &TestSessionMapper{}
}

func (m *TestSessionMapper) ToGradeRowDTO(r entity.GradeRow) dto.GradeRowDTO {
	missed := r.MissedKeys
	if missed == nil {
		missed = []string{}
	}
	return dto.GradeRowDTO{
		QuestionId:    r.QuestionId,
		Type:          r.Type,
		YourAnswer:    r.YourAnswer,
		CorrectAnswer: r.CorrectAnswer,
		Score10:       r.Score10,
		IsCorrect:     r.IsCorrect,
		MissedKeys:    missed,
	}
}

func (m *TestSessionMapper) ToGradeRowDTOs(rows []entity.GradeRow) []dto.GradeRowDTO {
	out := make([]dto.GradeRowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, m.ToGradeRowDTO(r))
	}
	return out
}
