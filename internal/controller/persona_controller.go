package controller

import (
	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/pkg/serverutils"
	"ai-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPersonaController interface {
	RegisterRoutes(r fiber.Router)
	Modes(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
}

type personaController struct {
	service service.IPersonaService
}

func NewPersonaController(service service.IPersonaService) IPersonaController {
	return &personaController{service: service}
}

func (c *personaController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Modes)
	r.Get("/api/modes", c.Modes)
	r.Get("/api/personas", c.GetAll)
}

// Modes serves the persona catalog grouped by mode key.
func (c *personaController) Modes(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.Catalog())
}

// GetAll lists personas that can be chatted with right now.
func (c *personaController) GetAll(ctx *fiber.Ctx) error {
	personas, err := c.service.List(ctx.UserContext())
	if err != nil {
		return err
	}

	res := make([]*dto.PersonaSummary, 0, len(personas))
	for _, p := range personas {
		res = append(res, dto.NewPersonaSummary(p))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all personas", res))
}
