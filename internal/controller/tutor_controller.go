package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"buddy-tutor-be/internal/dto"
	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/internal/pkg/serverutils"
	"buddy-tutor-be/internal/service"
	ws "buddy-tutor-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type ITutorController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Chat(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Chapter(ctx *fiber.Ctx) error
	SaveHistory(ctx *fiber.Ctx) error
	LoadHistory(ctx *fiber.Ctx) error
}

type tutorController struct {
	service service.ITutorService
	hub     *ws.Hub
	logger  logger.ILogger
}

// NewTutorController serves websocket sessions through hub, which must be
// running.
func NewTutorController(service service.ITutorService, hub *ws.Hub, log logger.ILogger) ITutorController {
	return &tutorController{service: service, hub: hub, logger: log}
}

func (c *tutorController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/tutor/v1")
	h.Get("status", c.Status)

	h.Use(auth)
	h.Post("chat", c.Chat)
	h.Get("chapter", c.Chapter)
	h.Post("history", c.SaveHistory)
	h.Get("history/:name", c.LoadHistory)

	h.Use("ws", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("ws", websocket.New(c.serveWs))
}

func (c *tutorController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.UserContext(), &req)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(chatEnvelope(res))
}

// chatEnvelope carries the answer outcome at the top level so a failed
// answer is not reported as success.
func chatEnvelope(res *dto.ChatResponse) serverutils.BaseResponse[*dto.ChatResponse] {
	if res.Success {
		return serverutils.SuccessResponse("Success answer question", res)
	}
	message := "Failed to answer question"
	if res.Reason != "" {
		message = fmt.Sprintf("Failed to answer question: %s", res.Reason)
	}
	return serverutils.BaseResponse[*dto.ChatResponse]{
		Success: false,
		Code:    fiber.StatusOK,
		Message: message,
		Data:    res,
	}
}

func (c *tutorController) Status(ctx *fiber.Ctx) error {
	res, err := c.service.Status(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get tutor status", res))
}

func (c *tutorController) Chapter(ctx *fiber.Ctx) error {
	var req dto.ChapterRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chapter(ctx.UserContext(), &req)
	if err != nil {
		return toHTTPError(err)
	}

	message := "Success get chapter content"
	if len(res.Sections) == 0 {
		message = "No relevant chapter content found for this query."
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *tutorController) SaveHistory(ctx *fiber.Ctx) error {
	var req dto.SaveHistoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SaveHistory(ctx.UserContext(), &req)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success save chat history", res))
}

func (c *tutorController) LoadHistory(ctx *fiber.Ctx) error {
	res, err := c.service.LoadHistory(ctx.UserContext(), ctx.Params("name"))
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success load chat history", res))
}

type wsReply struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Data    *dto.ChatResponse `json:"data,omitempty"`
}

// serveWs answers one JSON ChatRequest per incoming frame until the peer
// closes the connection.
func (c *tutorController) serveWs(conn *websocket.Conn) {
	ws.ServeWs(c.hub, conn, func(raw []byte) interface{} {
		return c.answerFrame(raw)
	})
}

func (c *tutorController) answerFrame(raw []byte) wsReply {
	var req dto.ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return wsReply{Error: "Invalid JSON"}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return wsReply{Error: err.Error()}
	}

	res, err := c.service.Chat(context.Background(), &req)
	if err != nil {
		var fe *fiber.Error
		if errors.As(toHTTPError(err), &fe) && fe.Code < fiber.StatusInternalServerError {
			return wsReply{Error: fe.Message}
		}
		return wsReply{Error: "Internal server error"}
	}
	reply := wsReply{Success: res.Success, Data: res}
	if !res.Success {
		reply.Error = res.Reason
	}
	return reply
}
