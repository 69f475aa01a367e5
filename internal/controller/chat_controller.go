package controller

import (
	"errors"
	"fmt"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
}

type chatController struct {
	sessions service.IChatSessionService
	turns    service.IChatTurnService
}

func NewChatController(sessions service.IChatSessionService, turns service.IChatTurnService) IChatController {
	return &chatController{sessions: sessions, turns: turns}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Get("/chat/create", c.Create)
	r.Get("/chat/:id", c.Show)

	api := r.Group("/api")
	api.Post("/chat", c.Send)
	api.Get("/chats", c.GetAll)
}

func owner(ctx *fiber.Ctx) (entity.Owner, error) {
	o, ok := serverutils.OwnerFromCtx(ctx)
	if !ok {
		return entity.Owner{}, fiber.ErrUnauthorized
	}
	return o, nil
}

// Create starts a chat with the persona named by ?assistant_id and sends
// the browser to it. Unknown personas go back to the catalog.
func (c *chatController) Create(ctx *fiber.Ctx) error {
	o, err := owner(ctx)
	if err != nil {
		return err
	}

	modeId := ctx.Query("assistant_id")
	if modeId == "" {
		return ctx.Redirect("/", fiber.StatusFound)
	}

	chat, err := c.sessions.ResolveOrCreateChat(ctx.UserContext(), o, modeId)
	if err != nil {
		if errors.Is(err, service.ErrPersonaNotFound) {
			return ctx.Redirect("/", fiber.StatusFound)
		}
		return err
	}

	return ctx.Redirect(fmt.Sprintf("/chat/%d/", chat.Id), fiber.StatusFound)
}

func (c *chatController) Show(ctx *fiber.Ctx) error {
	o, err := owner(ctx)
	if err != nil {
		return err
	}

	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return service.ErrChatNotFound
	}

	chat, messages, err := c.sessions.History(ctx.UserContext(), uint(id), o)
	if err != nil {
		if errors.Is(err, service.ErrAccessDenied) {
			return ctx.Redirect("/", fiber.StatusFound)
		}
		return err
	}

	return ctx.JSON(dto.NewChatViewResponse(chat, messages))
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	o, err := owner(ctx)
	if err != nil {
		return err
	}

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return &service.ValidationError{Field: "body", Reason: "must be a JSON object with chat_id and message"}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.turns.SubmitTurn(ctx.UserContext(), o, req.ChatId, req.Message)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.SendChatResponse{Reply: res.Reply})
}

func (c *chatController) GetAll(ctx *fiber.Ctx) error {
	o, err := owner(ctx)
	if err != nil {
		return err
	}

	page := specification.Pagination{
		Limit:  ctx.QueryInt("limit", 0),
		Offset: ctx.QueryInt("offset", 0),
	}
	if page.Limit < 0 || page.Offset < 0 {
		return &service.ValidationError{Field: "limit", Reason: "must not be negative"}
	}

	chats, err := c.sessions.ListForOwner(ctx.UserContext(), o, page)
	if err != nil {
		return err
	}

	res := make([]dto.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		res = append(res, dto.NewChatSummary(chat))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all chats", res))
}
