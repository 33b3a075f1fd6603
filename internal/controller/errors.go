package controller

import (
	"errors"

	"buddy-tutor-be/internal/service"
	"buddy-tutor-be/pkg/rag/orchestrator"
	"buddy-tutor-be/pkg/translate"

	"github.com/gofiber/fiber/v2"
)

// toHTTPError maps service errors onto status codes for the error handler.
func toHTTPError(err error) error {
	var ce *orchestrator.ClientError
	switch {
	case errors.As(err, &ce):
		return fiber.NewError(fiber.StatusBadRequest, ce.Error())
	case errors.Is(err, service.ErrTestNotFound), errors.Is(err, service.ErrHistoryNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTestSubmitted):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrQuestionNotInTest):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, translate.ErrNotConfigured):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Translation provider not configured")
	}
	return err
}
