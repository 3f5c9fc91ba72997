package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codariq/codariq-api/internal/dto"
	"github.com/codariq/codariq-api/internal/service"
	"github.com/codariq/codariq-api/internal/utils"
)

// FeedbackHandler exposes the feedback log and its aggregates.
type FeedbackHandler struct {
	service service.FeedbackService
	logger  zerolog.Logger
}

// NewFeedbackHandler constructs a feedback handler.
func NewFeedbackHandler(service service.FeedbackService, logger zerolog.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		logger:  logger.With().Str("component", "feedback_handler").Logger(),
	}
}

// Register wires the public feedback routes.
func (h *FeedbackHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
	router.Get("/aggregate", h.aggregate)
	router.Get("/export", h.export)
}

// RegisterAdmin wires the destructive feedback routes.
func (h *FeedbackHandler) RegisterAdmin(router fiber.Router) {
	router.Delete("/feedback", h.purge)
}

func (h *FeedbackHandler) submit(c *fiber.Ctx) error {
	var payload dto.FeedbackSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Submit(c.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRating):
			return utils.SendError(c, fiber.StatusBadRequest, "rating must be between 1 and 5")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to record feedback")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to record feedback")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "feedback recorded", response)
}

func (h *FeedbackHandler) aggregate(c *fiber.Ctx) error {
	filter, err := feedbackFilterFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid filter")
	}

	response, err := h.service.Aggregate(c.Context(), filter)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid filter")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to aggregate feedback")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to aggregate feedback")
	}

	return utils.SendSuccess(c, "feedback aggregated", response)
}

func (h *FeedbackHandler) export(c *fiber.Ctx) error {
	filter, err := feedbackFilterFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid filter")
	}

	response, err := h.service.Export(c.Context(), filter)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid filter")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to export feedback")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to export feedback")
	}

	return utils.SendSuccess(c, "feedback exported", response)
}

func (h *FeedbackHandler) purge(c *fiber.Ctx) error {
	filter, err := feedbackFilterFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid filter")
	}

	deleted, err := h.service.Purge(c.Context(), filter)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to purge feedback")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to purge feedback")
	}

	return utils.SendSuccess(c, "feedback purged", fiber.Map{"deleted": deleted})
}

func feedbackFilterFromQuery(c *fiber.Ctx) (dto.FeedbackFilter, error) {
	since, err := parseQueryTime(c, "since")
	if err != nil {
		return dto.FeedbackFilter{}, err
	}
	until, err := parseQueryTime(c, "until")
	if err != nil {
		return dto.FeedbackFilter{}, err
	}

	return dto.FeedbackFilter{
		Model: queryStringPtr(c, "model"),
		Since: since,
		Until: until,
	}, nil
}
