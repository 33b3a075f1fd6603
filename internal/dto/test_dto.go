package dto

import "github.com/google/uuid"

type StartTestRequest struct {
	ChapterId     string              `json:"chapterId" validate:"required"`
	QuestionIds   []string            `json:"questionIds" validate:"required,min=1,dive,required"`
	PassThreshold int                 `json:"passThreshold" validate:"omitempty,min=0,max=100"`
	Rubrics       map[string][]string `json:"rubrics"`
}

type StartTestResponse struct {
	TestId uuid.UUID `json:"testId"`
}

type SaveAnswerRequest struct {
	QuestionId string      `json:"questionId" validate:"required"`
	Answer     interface{} `json:"answer"`
}

type SaveAnswerResponse struct {
	Saved bool `json:"saved"`
}

type SubmitTestRequest struct {
	PassThreshold int `json:"passThreshold" validate:"omitempty,min=0,max=100"`
}

type SubmitTestResponse struct {
	OverallPercent int `json:"overallPercent"`
	Correct        int `json:"correct"`
	Total          int `json:"total"`
}

type GradeRowDTO struct {
	QuestionId    string      `json:"questionId"`
	Type          string      `json:"type"`
	YourAnswer    interface{} `json:"yourAnswer"`
	CorrectAnswer interface{} `json:"correctAnswer"`
	Score10       int         `json:"score10"`
	IsCorrect     bool        `json:"isCorrect"`
	MissedKeys    []string    `json:"missedKeys"`
}

type TestSummaryResponse struct {
	OverallPercent int           `json:"overallPercent"`
	CorrectCount   int           `json:"correctCount"`
	Total          int           `json:"total"`
	TimeSpentSec   int64         `json:"timeSpentSec"`
	Rows           []GradeRowDTO `json:"rows"`
}
