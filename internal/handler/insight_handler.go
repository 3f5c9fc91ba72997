package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codariq/codariq-api/internal/dto"
	"github.com/codariq/codariq-api/internal/service"
	"github.com/codariq/codariq-api/internal/utils"
)

// InsightHandler exposes model-produced analysis of collected feedback.
type InsightHandler struct {
	service service.InsightService
	logger  zerolog.Logger
}

// NewInsightHandler constructs an insight handler.
func NewInsightHandler(service service.InsightService, logger zerolog.Logger) *InsightHandler {
	return &InsightHandler{
		service: service,
		logger:  logger.With().Str("component", "insight_handler").Logger(),
	}
}

// Register wires insight routes.
func (h *InsightHandler) Register(router fiber.Router) {
	router.Post("/analyze", h.analyze)
	router.Post("/improvements", h.improvements)
	router.Get("/categories", h.categories)
}

func (h *InsightHandler) analyze(c *fiber.Ctx) error {
	payload := dto.InsightRequest{Model: c.Query("model")}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	response, err := h.service.Analyze(c.Context(), payload)
	if err != nil {
		return h.sendInsightError(c, err, "failed to analyze feedback")
	}

	return utils.SendSuccess(c, "feedback analyzed", response)
}

func (h *InsightHandler) improvements(c *fiber.Ctx) error {
	var payload dto.ImprovementRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.SuggestImprovements(c.Context(), payload)
	if err != nil {
		return h.sendInsightError(c, err, "failed to suggest improvements")
	}

	return utils.SendSuccess(c, "improvements suggested", response)
}

func (h *InsightHandler) categories(c *fiber.Ctx) error {
	payload := dto.InsightRequest{Model: c.Query("model")}

	response, err := h.service.Categorize(c.Context(), payload)
	if err != nil {
		return h.sendInsightError(c, err, "failed to categorize feedback")
	}

	return utils.SendSuccess(c, "feedback categorized", response)
}

func (h *InsightHandler) sendInsightError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrNoFeedback):
		return utils.SendError(c, fiber.StatusNotFound, "no feedback with comments to analyze")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusBadGateway, message)
	}
}
