package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/codariq/codariq-api/internal/middleware"
	"github.com/codariq/codariq-api/internal/service"
)

// FeedHandler wires the live-feed websocket endpoint.
type FeedHandler struct {
	service service.FeedService
	logger  zerolog.Logger
}

// NewFeedHandler creates a feed handler instance.
func NewFeedHandler(service service.FeedService, logger zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		service: service,
		logger:  logger.With().Str("component", "feed_handler").Logger(),
	}
}

// Register binds feed routes under the provided router group.
func (h *FeedHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *FeedHandler) handleConnection(conn *websocket.Conn) {
	opts := service.FeedConnectionOptions{
		Topics:        feedTopics(conn.Query("topics")),
		CorrelationID: correlationFromConn(conn),
		Context:       contextFromConn(conn),
	}

	h.logger.Debug().Str("correlation_id", opts.CorrelationID).Msg("feed client connecting")
	h.service.ServeConnection(conn, opts)
}

// feedTopics parses the comma-separated topics query parameter. Unknown
// names are ignored; an empty result subscribes to everything.
func feedTopics(raw string) []service.EventTopic {
	topics := make([]service.EventTopic, 0, 2)
	for _, name := range splitAndTrim(raw) {
		switch service.EventTopic(name) {
		case service.TopicFeedback, service.TopicGenerations:
			topics = append(topics, service.EventTopic(name))
		}
	}
	return topics
}

func correlationFromConn(conn *websocket.Conn) string {
	if value := conn.Locals("correlation_id"); value != nil {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

func contextFromConn(conn *websocket.Conn) context.Context {
	if value := conn.Locals("request_ctx"); value != nil {
		if ctx, ok := value.(context.Context); ok {
			return ctx
		}
	}
	return context.Background()
}
