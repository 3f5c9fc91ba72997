package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	llmDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "codariq",
		Subsystem: "llm",
		Name:      "completion_duration_seconds",
		Help:      "Duration of LLM completion requests",
	}, []string{"model"})

	llmFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codariq",
		Subsystem: "llm",
		Name:      "completion_failures_total",
		Help:      "Number of failed LLM completion requests",
	}, []string{"model"})
)

// ClientConfig defines configuration for the OpenAI-compatible client. With
// the default base URL it talks to a local Ollama runtime through its /v1
// endpoint; pointing it at api.openai.com works unchanged.
type ClientConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// Client implements Provider against any OpenAI-compatible chat completion API.
type Client struct {
	api    *openai.Client
	cfg    ClientConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewClient builds a provider using the supplied configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" && cfg.APIKey == "" {
		return nil, fmt.Errorf("either a base url or an api key is required")
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// Ollama ignores the key but the SDK requires a non-empty value.
		apiKey = "ollama"
	}

	config := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	tracer := otel.Tracer("github.com/codariq/codariq-api/pkg/llm")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		api:    openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: tracer,
		logger: logger.With().Str("component", "llm_client").Logger(),
	}, nil
}

// Complete sends the prompt to the backend and returns the generated text.
func (c *Client) Complete(parent context.Context, req CompletionRequest) (CompletionResponse, error) {
	ctx, span := c.tracer.Start(parent, "llm.complete", trace.WithAttributes(
		attribute.String("model", req.Model),
	))
	defer span.End()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.cfg.Temperature
	}

	request := openai.ChatCompletionRequest{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages:    messages,
	}
	if req.JSONOutput {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	llmDuration.WithLabelValues(req.Model).Observe(duration.Seconds())
	if err != nil {
		llmFailures.WithLabelValues(req.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CompletionResponse{}, fmt.Errorf("llm complete: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned by backend")
		llmFailures.WithLabelValues(req.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CompletionResponse{}, err
	}

	return CompletionResponse{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Duration:         duration,
	}, nil
}
