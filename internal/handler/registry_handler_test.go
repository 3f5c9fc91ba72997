package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codariq/codariq-api/internal/dto"
	"github.com/codariq/codariq-api/internal/handler"
	"github.com/codariq/codariq-api/internal/registry"
)

func newRegistryApp(t *testing.T) (*fiber.App, *registry.Registry) {
	t.Helper()

	reg := registry.New(false)
	require.NoError(t, reg.Register(registry.Descriptor{Name: "mistral", Role: registry.RoleChat}))
	require.NoError(t, reg.Register(registry.Descriptor{Name: "codellama", Role: registry.RoleCode}))

	app := fiber.New()
	h := handler.NewRegistryHandler(reg, validator.New(), zerolog.New(io.Discard))
	h.Register(app.Group("/api/v1/models"))
	h.RegisterAdmin(app.Group("/api/v1/admin"))

	return app, reg
}

func TestRegistryHandler_List(t *testing.T) {
	app, _ := newRegistryApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/models", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data []dto.ModelResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Len(t, response.Data, 2)
	require.Equal(t, "codellama", response.Data[0].Name)
}

func TestRegistryHandler_ListByRole(t *testing.T) {
	app, _ := newRegistryApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/models?role=chat", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data []dto.ModelResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Len(t, response.Data, 1)
	require.Equal(t, "mistral", response.Data[0].Name)
}

func TestRegistryHandler_GetUnknown(t *testing.T) {
	app, _ := newRegistryApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/models/gpt-x", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRegistryHandler_AdminRegister(t *testing.T) {
	app, reg := newRegistryApp(t)

	body, err := json.Marshal(dto.RegisterModelRequest{Name: "phi3", Role: "chat"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/models", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	descriptor, err := reg.Resolve("phi3")
	require.NoError(t, err)
	require.Equal(t, registry.RoleChat, descriptor.Role)
}

func TestRegistryHandler_AdminRegisterInvalid(t *testing.T) {
	app, _ := newRegistryApp(t)

	body, err := json.Marshal(dto.RegisterModelRequest{Name: "", Role: "chat"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/models", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
