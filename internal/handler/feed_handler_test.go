package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codariq/codariq-api/internal/handler"
	"github.com/codariq/codariq-api/internal/middleware"
	"github.com/codariq/codariq-api/internal/service"
)

func TestFeedHandler_UpgradeRequired(t *testing.T) {
	feed := service.NewFeedService(nil, "", nil, zerolog.New(io.Discard))

	app := fiber.New()
	handler.NewFeedHandler(feed, zerolog.New(io.Discard)).Register(app.Group("/api/v1/feed"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed/ws", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestFeedHandler_StreamsPublishedEvents(t *testing.T) {
	feed := service.NewFeedService(nil, "", nil, zerolog.New(io.Discard))

	app := fiber.New()
	app.Use(middleware.CorrelationID())
	handler.NewFeedHandler(feed, zerolog.New(io.Discard)).Register(app.Group("/api/v1/feed"))

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/feed/ws?topics=feedback"

	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	// Give the server a moment to register the subscriber.
	time.Sleep(50 * time.Millisecond)

	feed.Publish(context.Background(), service.TopicGenerations, map[string]string{"uuid": "skip-me"})
	feed.Publish(context.Background(), service.TopicFeedback, map[string]int{"rating": 5})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event service.FeedEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	// The generations event is filtered out by the topics query parameter.
	require.Equal(t, service.TopicFeedback, event.Topic)
	require.JSONEq(t, `{"rating":5}`, string(event.Payload))
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}
