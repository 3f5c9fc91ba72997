package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codariq/codariq-api/internal/dto"
	"github.com/codariq/codariq-api/internal/registry"
	"github.com/codariq/codariq-api/internal/service"
	"github.com/codariq/codariq-api/internal/utils"
)

// GenerationHandler exposes the generation pipeline over HTTP.
type GenerationHandler struct {
	service service.GenerationService
	logger  zerolog.Logger
}

// NewGenerationHandler constructs a generation handler.
func NewGenerationHandler(service service.GenerationService, logger zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{
		service: service,
		logger:  logger.With().Str("component", "generation_handler").Logger(),
	}
}

// Register wires generation routes.
func (h *GenerationHandler) Register(router fiber.Router) {
	router.Post("", h.generate)
	router.Get("", h.list)
	router.Get("/:uuid", h.get)
}

func (h *GenerationHandler) generate(c *fiber.Ctx) error {
	var payload dto.GenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// Optional plain-text reference file on multipart submissions.
	reference, err := c.FormFile("reference")
	if err != nil {
		reference = nil
	}

	response, err := h.service.Generate(c.Context(), payload, reference)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		case errors.Is(err, registry.ErrUnknownModel):
			return utils.SendError(c, fiber.StatusBadRequest, "unknown model")
		case errors.Is(err, service.ErrReferenceTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "reference file too large")
		case errors.Is(err, service.ErrUnsupportedReferenceType):
			return utils.SendError(c, fiber.StatusUnsupportedMediaType, "reference file must be plain text")
		case errors.Is(err, service.ErrGenerationFailed):
			// The failed run is included so the client can show what was
			// recorded.
			return c.Status(fiber.StatusBadGateway).JSON(utils.APIResponse{
				Success: false,
				Data:    response,
				Message: "generation failed",
			})
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to run generation")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to run generation")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "generation completed", response)
}

func (h *GenerationHandler) list(c *fiber.Ctx) error {
	filter := dto.GenerationFilter{
		ChatModel: queryStringPtr(c, "chat_model"),
		CodeModel: queryStringPtr(c, "code_model"),
	}

	if value := c.Query("success"); value != "" {
		success := value == "true" || value == "1"
		filter.Success = &success
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	filter.Limit = limit

	response, err := h.service.List(c.Context(), filter)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid filter")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list generations")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list generations")
	}

	return utils.SendSuccess(c, "generations retrieved", response)
}

func (h *GenerationHandler) get(c *fiber.Ctx) error {
	response, err := h.service.Get(c.Context(), c.Params("uuid"))
	if err != nil {
		if errors.Is(err, service.ErrGenerationNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "generation not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to fetch generation")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch generation")
	}

	return utils.SendSuccess(c, "generation retrieved", response)
}
