package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codariq/codariq-api/internal/observability"
)

const feedSendBufferSize = 32

// FeedConnectionOptions wraps metadata extracted during the HTTP upgrade.
type FeedConnectionOptions struct {
	Topics        []EventTopic
	CorrelationID string
	Context       context.Context
}

// FeedEvent is the wire shape delivered to live-feed subscribers.
type FeedEvent struct {
	Topic   EventTopic      `json:"topic"`
	Payload json.RawMessage `json:"payload"`
	SentAt  time.Time       `json:"sent_at"`
	Source  string          `json:"source,omitempty"`
}

// FeedService streams feedback and generation events to websocket clients.
// Events published on one node are fanned out to the others over Redis and
// NATS, so subscribers see the full stream regardless of which instance they
// connected to.
type FeedService interface {
	EventPublisher
	ServeConnection(conn *websocket.Conn, opts FeedConnectionOptions)
	Start(ctx context.Context)
}

type feedService struct {
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	hub         *feedHub
	logger      zerolog.Logger
	nodeID      string
}

// feedHub keeps track of active websocket clients per topic.
type feedHub struct {
	mu      sync.RWMutex
	clients map[*feedClient]struct{}
	log     zerolog.Logger
}

type feedClient struct {
	conn    *websocket.Conn
	send    chan FeedEvent
	topics  map[EventTopic]struct{}
	service *feedService
	closed  chan struct{}
	once    sync.Once
}

// NewFeedService creates a live-feed service instance. Redis and NATS are
// optional; without them events stay node-local.
func NewFeedService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) FeedService {
	streamChannel := ""
	natsSubject := ""
	if channelBase != "" {
		streamChannel = channelBase + ":feed"
		natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".feed"
	}

	return &feedService{
		redis:       redisClient,
		redisStream: streamChannel,
		nats:        natsConn,
		natsSubject: natsSubject,
		hub: &feedHub{
			clients: make(map[*feedClient]struct{}),
			log:     logger.With().Str("component", "feed_hub").Logger(),
		},
		logger: logger.With().Str("component", "feed_service").Logger(),
		nodeID: uuid.NewString(),
	}
}

func (s *feedService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// Publish broadcasts a domain event locally and to peer nodes. Delivery is
// best effort.
func (s *feedService) Publish(ctx context.Context, topic EventTopic, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("topic", string(topic)).Msg("failed to marshal feed payload")
		return
	}

	event := FeedEvent{
		Topic:   topic,
		Payload: body,
		SentAt:  time.Now().UTC(),
		Source:  s.nodeID,
	}

	observability.FeedEvents().WithLabelValues(string(topic)).Inc()
	s.hub.broadcast(event)

	envelope, err := json.Marshal(event)
	if err != nil {
		return
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, envelope).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish feed event to redis")
		}
	}
	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, envelope); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish feed event to nats")
		}
	}
}

func (s *feedService) ServeConnection(conn *websocket.Conn, opts FeedConnectionOptions) {
	topics := make(map[EventTopic]struct{}, len(opts.Topics))
	for _, topic := range opts.Topics {
		topics[topic] = struct{}{}
	}

	client := &feedClient{
		conn:    conn,
		send:    make(chan FeedEvent, feedSendBufferSize),
		topics:  topics,
		service: s,
		closed:  make(chan struct{}),
	}

	s.hub.register(client)
	observability.FeedConnections().Inc()
	defer observability.FeedConnections().Dec()

	go client.writer()
	client.reader()
}

func (s *feedService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("feed redis subscription closed")
			return
		}
		s.handleEvent([]byte(msg.Payload))
	}
}

func (s *feedService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "codariq-feed", func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats feed subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain feed nats subscription")
		}
	}()
}

func (s *feedService) handleEvent(data []byte) {
	var event FeedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid feed event")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.hub.broadcast(event)
}

func (h *feedHub) register(client *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}
	h.log.Debug().Int("clients", len(h.clients)).Msg("feed client connected")
}

func (h *feedHub) unregister(client *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, client)
	h.log.Debug().Int("clients", len(h.clients)).Msg("feed client disconnected")
}

func (h *feedHub) broadcast(event FeedEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !client.wants(event.Topic) {
			continue
		}
		select {
		case client.send <- event:
		default:
			h.log.Warn().Str("topic", string(event.Topic)).Msg("dropping feed event for slow client")
		}
	}
}

// wants reports whether the client subscribed to the topic. An empty topic
// set means everything.
func (c *feedClient) wants(topic EventTopic) bool {
	if len(c.topics) == 0 {
		return true
	}
	_, ok := c.topics[topic]
	return ok
}

// reader only watches for the client closing the connection; the feed is
// one-way and inbound frames are discarded.
func (c *feedClient) reader() {
	defer c.close()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.service.logger.Debug().Err(err).Msg("feed read loop ended")
			return
		}
	}
}

func (c *feedClient) writer() {
	defer c.close()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.service.logger.Debug().Err(err).Msg("feed write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("feed ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *feedClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.service.hub.unregister(c)
		_ = c.conn.Close()
	})
}
