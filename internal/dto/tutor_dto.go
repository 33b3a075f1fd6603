package dto

import (
	"time"

	"buddy-tutor-be/pkg/rag/mode"
)

type ChatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Question string     `json:"question" validate:"required,min=4,max=2000"`
	Mode     string     `json:"mode" validate:"required,oneof=textbook detailed advanced"`
	History  []ChatTurn `json:"history" validate:"omitempty,max=50,dive"`
}

type ChatResponse struct {
	Success            bool     `json:"success"`
	Answer             string   `json:"answer"`
	Mode               string   `json:"mode"`
	SourceLabel        string   `json:"sourceLabel"`
	SuggestedQuestions []string `json:"suggestedQuestions"`
	Notes              string   `json:"notes,omitempty"`
	Reason             string   `json:"reason,omitempty"`
}

type StatusResponse struct {
	Provider     string        `json:"provider"`
	Store        string        `json:"store"`
	PassageCount int           `json:"passageCount"`
	Modes        []mode.Policy `json:"modes"`
}

type ChapterRequest struct {
	Topic string `query:"topic" validate:"required,min=2,max=200"`
	Mode  string `query:"mode" validate:"omitempty,oneof=textbook detailed advanced"`
}

type ChapterSection struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	PageNumber *int   `json:"pageNumber,omitempty"`
}

type ChapterResponse struct {
	Topic    string           `json:"topic"`
	Mode     string           `json:"mode"`
	Sections []ChapterSection `json:"sections"`
}

type SaveHistoryRequest struct {
	Name     string     `json:"name" validate:"required,min=1,max=64"`
	Messages []ChatTurn `json:"messages" validate:"required,min=1,dive"`
}

type ChatHistoryFile struct {
	Name       string     `json:"name"`
	ExportedAt time.Time  `json:"exportedAt"`
	Messages   []ChatTurn `json:"messages"`
}

type SaveHistoryResponse struct {
	Name string `json:"name"`
}
