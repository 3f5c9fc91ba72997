package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codariq/codariq-api/internal/service"
	"github.com/codariq/codariq-api/internal/utils"
)

// EvaluationHandler exposes generation performance summaries.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs an evaluation handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register wires evaluation routes.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Get("/summary", h.summary)
}

func (h *EvaluationHandler) summary(c *fiber.Ctx) error {
	response, err := h.service.Summary(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build evaluation summary")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build evaluation summary")
	}

	return utils.SendSuccess(c, "evaluation summary", response)
}
