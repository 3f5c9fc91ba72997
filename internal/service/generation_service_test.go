package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/codariq/codariq-api/internal/dto"
	"github.com/codariq/codariq-api/internal/registry"
	"github.com/codariq/codariq-api/internal/repository"
	"github.com/codariq/codariq-api/pkg/llm"
	"github.com/codariq/codariq-api/pkg/retrieval"
)

// scriptedProvider replays canned completions in call order.
type scriptedProvider struct {
	responses []llm.CompletionResponse
	errs      []error
	requests  []llm.CompletionRequest
}

func (p *scriptedProvider) Complete(_ context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	index := len(p.requests)
	p.requests = append(p.requests, req)

	if index < len(p.errs) && p.errs[index] != nil {
		return llm.CompletionResponse{}, p.errs[index]
	}
	if index < len(p.responses) {
		return p.responses[index], nil
	}
	return llm.CompletionResponse{}, errors.New("unexpected completion call")
}

type staticRetriever struct {
	passages []retrieval.Passage
	err      error
}

func (r *staticRetriever) Retrieve(context.Context, string, int) ([]retrieval.Passage, error) {
	return r.passages, r.err
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.New(false)
	require.NoError(t, reg.Register(registry.Descriptor{Name: "mistral", Role: registry.RoleChat}))
	require.NoError(t, reg.Register(registry.Descriptor{Name: "codellama", Role: registry.RoleCode}))

	return reg
}

func setupGenerationService(t *testing.T, provider llm.Provider, retriever retrieval.Retriever, events EventPublisher) (GenerationService, repository.GenerationRepository) {
	t.Helper()

	repo := repository.NewGenerationRepository(testDB(t))
	svc := NewGenerationService(GenerationDeps{
		Generations: repo,
		Registry:    testRegistry(t),
		Provider:    provider,
		Retriever:   retriever,
		Events:      events,
		Validator:   validator.New(),
		MaxRefBytes: 1 << 20,
		Logger:      testLogger(),
	})

	return svc, repo
}

func TestGenerateSuccess(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.CompletionResponse{
			{Text: "Here is a fibonacci function in Python."},
			{Text: `{"description":"Fibonacci","code":"def fib(n):\n    # base case\n    return n if n < 2 else fib(n-1) + fib(n-2)\n","filename":"fib.py"}`},
		},
	}
	retriever := &staticRetriever{passages: []retrieval.Passage{{Text: "fibonacci reference"}}}
	events := &recordingPublisher{}

	svc, repo := setupGenerationService(t, provider, retriever, events)

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{
		Prompt:    "write a fibonacci function",
		ChatModel: "mistral",
		CodeModel: "codellama",
	}, nil)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, "Fibonacci", resp.Description)
	require.Equal(t, "fib.py", resp.Filename)
	require.NotEmpty(t, resp.UUID)
	require.Equal(t, len(resp.Code)/4, resp.TokensEst)
	require.EqualValues(t, true, resp.Metrics["has_comments"])

	// Chat stage sees the retrieved passage, parse stage sees the chat answer.
	require.Len(t, provider.requests, 2)
	require.Contains(t, provider.requests[0].Prompt, "fibonacci reference")
	require.Contains(t, provider.requests[1].Prompt, "Here is a fibonacci function")
	require.True(t, provider.requests[1].JSONOutput)

	stored, err := repo.GetByUUID(context.Background(), resp.UUID)
	require.NoError(t, err)
	require.True(t, stored.Success)

	require.Equal(t, []EventTopic{TopicGenerations}, events.published())
}

func TestGenerateUnknownModel(t *testing.T) {
	svc, _ := setupGenerationService(t, &scriptedProvider{}, nil, nil)

	_, err := svc.Generate(context.Background(), dto.GenerateRequest{
		Prompt:    "write something",
		ChatModel: "mistral",
		CodeModel: "gpt-x",
	}, nil)
	require.ErrorIs(t, err, registry.ErrUnknownModel)
}

func TestGenerateProviderFailureIsRecorded(t *testing.T) {
	provider := &scriptedProvider{errs: []error{errors.New("inference backend down")}}
	svc, repo := setupGenerationService(t, provider, nil, nil)

	_, err := svc.Generate(context.Background(), dto.GenerateRequest{
		Prompt:    "write a fibonacci function",
		ChatModel: "mistral",
		CodeModel: "codellama",
	}, nil)
	require.ErrorIs(t, err, ErrGenerationFailed)

	runs, err := repo.List(context.Background(), repository.GenerationFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.False(t, runs[0].Success)
	require.Contains(t, runs[0].Error, "inference backend down")
}

func TestGenerateRetrievalFailureIsNonFatal(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.CompletionResponse{
			{Text: "answer"},
			{Text: `{"description":"d","code":"print(1)\n","filename":"out.py"}`},
		},
	}
	retriever := &staticRetriever{err: errors.New("index offline")}

	svc, _ := setupGenerationService(t, provider, retriever, nil)

	resp, err := svc.Generate(context.Background(), dto.GenerateRequest{
		Prompt:    "print a number",
		ChatModel: "mistral",
		CodeModel: "codellama",
	}, nil)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.NotContains(t, provider.requests[0].Prompt, "Relevant Context")
}

func TestGenerateMalformedModelOutput(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llm.CompletionResponse{
			{Text: "answer"},
			{Text: `{"description":"missing the rest"}`},
		},
	}
	svc, repo := setupGenerationService(t, provider, nil, nil)

	_, err := svc.Generate(context.Background(), dto.GenerateRequest{
		Prompt:    "write a fibonacci function",
		ChatModel: "mistral",
		CodeModel: "codellama",
	}, nil)
	require.ErrorIs(t, err, ErrGenerationFailed)

	runs, err := repo.List(context.Background(), repository.GenerationFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.False(t, runs[0].Success)
}

func TestGenerationGetNotFound(t *testing.T) {
	svc, _ := setupGenerationService(t, &scriptedProvider{}, nil, nil)

	_, err := svc.Get(context.Background(), "missing-uuid")
	require.ErrorIs(t, err, ErrGenerationNotFound)
}
