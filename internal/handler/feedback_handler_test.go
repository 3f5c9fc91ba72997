package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codariq/codariq-api/internal/dto"
	"github.com/codariq/codariq-api/internal/handler"
	"github.com/codariq/codariq-api/internal/service"
)

type mockFeedbackService struct {
	lastSubmit dto.FeedbackSubmitRequest
	lastFilter dto.FeedbackFilter
	response   dto.FeedbackResponse
	aggregate  dto.AggregateResponse
	exported   []dto.FeedbackResponse
	purged     int64
	err        error
	aggregerr  error
}

func (m *mockFeedbackService) Submit(_ context.Context, req dto.FeedbackSubmitRequest) (dto.FeedbackResponse, error) {
	m.lastSubmit = req
	if m.err != nil {
		return dto.FeedbackResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockFeedbackService) Aggregate(_ context.Context, filter dto.FeedbackFilter) (dto.AggregateResponse, error) {
	m.lastFilter = filter
	if m.aggregerr != nil {
		return dto.AggregateResponse{}, m.aggregerr
	}
	return m.aggregate, nil
}

func (m *mockFeedbackService) Export(_ context.Context, filter dto.FeedbackFilter) ([]dto.FeedbackResponse, error) {
	m.lastFilter = filter
	return m.exported, m.err
}

func (m *mockFeedbackService) Purge(_ context.Context, filter dto.FeedbackFilter) (int64, error) {
	m.lastFilter = filter
	return m.purged, m.err
}

func newFeedbackApp(svc service.FeedbackService) *fiber.App {
	app := fiber.New()
	h := handler.NewFeedbackHandler(svc, zerolog.New(io.Discard))
	h.Register(app.Group("/api/v1/feedback"))
	h.RegisterAdmin(app.Group("/api/v1/admin"))
	return app
}

func TestFeedbackHandler_SubmitSuccess(t *testing.T) {
	svc := &mockFeedbackService{response: dto.FeedbackResponse{ID: 1, GenerationID: "gen-1", Rating: 5}}
	app := newFeedbackApp(svc)

	body, err := json.Marshal(dto.FeedbackSubmitRequest{GenerationID: "gen-1", Rating: 5, Comment: "works"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool                 `json:"success"`
		Data    dto.FeedbackResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "gen-1", response.Data.GenerationID)
	require.Equal(t, "works", svc.lastSubmit.Comment)
}

func TestFeedbackHandler_SubmitInvalidRating(t *testing.T) {
	svc := &mockFeedbackService{err: service.ErrInvalidRating}
	app := newFeedbackApp(svc)

	body, err := json.Marshal(dto.FeedbackSubmitRequest{GenerationID: "gen-1", Rating: 9})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFeedbackHandler_SubmitServiceFailure(t *testing.T) {
	svc := &mockFeedbackService{err: errors.New("boom")}
	app := newFeedbackApp(svc)

	body, err := json.Marshal(dto.FeedbackSubmitRequest{GenerationID: "gen-1", Rating: 4})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestFeedbackHandler_AggregateWithFilter(t *testing.T) {
	mean := 4.0
	svc := &mockFeedbackService{aggregate: dto.AggregateResponse{Count: 3, MeanRating: &mean}}
	app := newFeedbackApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feedback/aggregate?model=mistral&since=2026-08-01T00:00:00Z", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NotNil(t, svc.lastFilter.Model)
	require.Equal(t, "mistral", *svc.lastFilter.Model)
	require.NotNil(t, svc.lastFilter.Since)

	var response struct {
		Data dto.AggregateResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.EqualValues(t, 3, response.Data.Count)
	require.NotNil(t, response.Data.MeanRating)
}

func TestFeedbackHandler_AggregateBadTimestamp(t *testing.T) {
	app := newFeedbackApp(&mockFeedbackService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feedback/aggregate?since=yesterday", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestFeedbackHandler_Export(t *testing.T) {
	svc := &mockFeedbackService{exported: []dto.FeedbackResponse{{ID: 1}, {ID: 2}}}
	app := newFeedbackApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feedback/export", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data []dto.FeedbackResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Len(t, response.Data, 2)
}

func TestFeedbackHandler_AdminPurge(t *testing.T) {
	svc := &mockFeedbackService{purged: 4}
	app := newFeedbackApp(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/feedback?model=mistral", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data map[string]int64 `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.EqualValues(t, 4, response.Data["deleted"])
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
