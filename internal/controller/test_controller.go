package controller

import (
	"buddy-tutor-be/internal/dto"
	"buddy-tutor-be/internal/pkg/serverutils"
	"buddy-tutor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ITestController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Start(ctx *fiber.Ctx) error
	SaveAnswer(ctx *fiber.Ctx) error
	Submit(ctx *fiber.Ctx) error
	Summary(ctx *fiber.Ctx) error
}

type testController struct {
	service service.ITestService
}

func NewTestController(service service.ITestService) ITestController {
	return &testController{service: service}
}

func (c *testController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/test/v1")
	h.Use(auth)
	h.Post("start", c.Start)
	h.Post(":id/answer", c.SaveAnswer)
	h.Post(":id/submit", c.Submit)
	h.Get(":id/summary", c.Summary)
}

func parseTestId(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusNotFound, service.ErrTestNotFound.Error())
	}
	return id, nil
}

func (c *testController) Start(ctx *fiber.Ctx) error {
	var req dto.StartTestRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Start(ctx.UserContext(), &req)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start test", res))
}

func (c *testController) SaveAnswer(ctx *fiber.Ctx) error {
	id, err := parseTestId(ctx)
	if err != nil {
		return err
	}

	var req dto.SaveAnswerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SaveAnswer(ctx.UserContext(), id, &req)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success save answer", res))
}

func (c *testController) Submit(ctx *fiber.Ctx) error {
	id, err := parseTestId(ctx)
	if err != nil {
		return err
	}

	var req dto.SubmitTestRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return err
		}
	}

	res, err := c.service.Submit(ctx.UserContext(), id, &req)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit test", res))
}

func (c *testController) Summary(ctx *fiber.Ctx) error {
	id, err := parseTestId(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Summary(ctx.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get test summary", res))
}
