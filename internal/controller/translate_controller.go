package controller

import (
	"time"

	"buddy-tutor-be/internal/dto"
	"buddy-tutor-be/internal/pkg/serverutils"
	"buddy-tutor-be/pkg/translate"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ITranslateController interface {
	RegisterRoutes(r fiber.Router)
	Translate(ctx *fiber.Ctx) error
}

type translateController struct {
	service   *translate.Service
	rateLimit int
}

// NewTranslateController limits each client IP to rateLimit requests per
// minute.
func NewTranslateController(service *translate.Service, rateLimit int) ITranslateController {
	if rateLimit <= 0 {
		rateLimit = 30
	}
	return &translateController{service: service, rateLimit: rateLimit}
}

func (c *translateController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/translate/v1")
	h.Use(limiter.New(limiter.Config{
		Max:        c.rateLimit,
		Expiration: time.Minute,
		LimitReached: func(ctx *fiber.Ctx) error {
			return ctx.Status(fiber.StatusTooManyRequests).
				JSON(serverutils.ErrorResponse(fiber.StatusTooManyRequests, "Rate limit exceeded. Please try again later."))
		},
	}))
	h.Post("", c.Translate)
}

func (c *translateController) Translate(ctx *fiber.Ctx) error {
	var req dto.TranslateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Translate(ctx.UserContext(), req.Text, req.SourceLang, req.TargetLang)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success translate text", dto.TranslateResponse{
		Translated:         res.Text,
		SourceLangDetected: res.Source,
		TargetLang:         res.Target,
		Cached:             res.Cached,
	}))
}
