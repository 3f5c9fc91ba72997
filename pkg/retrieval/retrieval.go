package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Passage is one ranked excerpt returned by the document index.
type Passage struct {
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Score  float64 `json:"score"`
}

// Retriever queries an external document index for passages relevant to a
// prompt. The index service owns parsing, embedding and ranking; this client
// only consumes its interface.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Passage, error)
}

// HTTPRetriever talks to the index service over its JSON query endpoint.
type HTTPRetriever struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPRetriever builds a retriever client for the given base URL.
func NewHTTPRetriever(baseURL string, timeout time.Duration, logger zerolog.Logger) (*HTTPRetriever, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("retrieval base url must not be empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPRetriever{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "retriever").Logger(),
	}, nil
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type queryResponse struct {
	Passages []Passage `json:"passages"`
}

// Retrieve posts the query and returns the ranked passages.
func (r *HTTPRetriever) Retrieve(ctx context.Context, query string, topK int) ([]Passage, error) {
	if topK <= 0 {
		topK = 3
	}

	payload, err := json.Marshal(queryRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("marshal retrieval query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/query", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build retrieval request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retrieval service returned status %d", resp.StatusCode)
	}

	var result queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode retrieval response: %w", err)
	}

	r.logger.Debug().Int("passages", len(result.Passages)).Msg("retrieval query completed")

	return result.Passages, nil
}

// Texts projects passages onto their text content.
func Texts(passages []Passage) []string {
	texts := make([]string, 0, len(passages))
	for _, passage := range passages {
		if trimmed := strings.TrimSpace(passage.Text); trimmed != "" {
			texts = append(texts, trimmed)
		}
	}
	return texts
}
