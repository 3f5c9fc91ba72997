package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codariq/codariq-api/internal/dto"
	"github.com/codariq/codariq-api/internal/registry"
	"github.com/codariq/codariq-api/internal/utils"
)

// RegistryHandler exposes the model registry.
type RegistryHandler struct {
	registry  *registry.Registry
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRegistryHandler constructs a registry handler.
func NewRegistryHandler(reg *registry.Registry, validate *validator.Validate, logger zerolog.Logger) *RegistryHandler {
	return &RegistryHandler{
		registry:  reg,
		validator: validate,
		logger:    logger.With().Str("component", "registry_handler").Logger(),
	}
}

// Register wires the public registry routes.
func (h *RegistryHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:name", h.get)
}

// RegisterAdmin wires the mutating registry routes.
func (h *RegistryHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/models", h.add)
}

func (h *RegistryHandler) list(c *fiber.Ctx) error {
	role := c.Query("role")

	var descriptors []registry.Descriptor
	if role != "" {
		descriptors = h.registry.ByRole(role)
	} else {
		for _, name := range h.registry.Names() {
			if d, err := h.registry.Resolve(name); err == nil {
				descriptors = append(descriptors, d)
			}
		}
	}

	return utils.SendSuccess(c, "models retrieved", dto.NewModelResponseSlice(descriptors))
}

func (h *RegistryHandler) get(c *fiber.Ctx) error {
	descriptor, err := h.registry.Resolve(c.Params("name"))
	if err != nil {
		if errors.Is(err, registry.ErrUnknownModel) {
			return utils.SendError(c, fiber.StatusNotFound, "unknown model")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to resolve model")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve model")
	}

	return utils.SendSuccess(c, "model retrieved", dto.NewModelResponse(descriptor))
}

func (h *RegistryHandler) add(c *fiber.Ctx) error {
	var payload dto.RegisterModelRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	descriptor := registry.Descriptor{
		Name:     payload.Name,
		Provider: payload.Provider,
		Model:    payload.Model,
		BaseURL:  payload.BaseURL,
		Role:     payload.Role,
	}

	if err := h.registry.Register(descriptor); err != nil {
		if errors.Is(err, registry.ErrDuplicateModel) {
			return utils.SendError(c, fiber.StatusConflict, "model already registered")
		}
		return utils.SendError(c, fiber.StatusBadRequest, "invalid model descriptor")
	}

	requestLogger(h.logger, c).Info().Str("model", payload.Name).Msg("model registered")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "model registered", dto.NewModelResponse(descriptor))
}
