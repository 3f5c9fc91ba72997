package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/codariq/codariq-api/internal/models"
)

func setupGenerationRepo(t *testing.T) GenerationRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Generation{}))

	return NewGenerationRepository(db)
}

func TestGenerationCreateAndGet(t *testing.T) {
	repo := setupGenerationRepo(t)
	ctx := context.Background()

	run := models.Generation{
		UUID:      "uuid-1",
		Prompt:    "write a fibonacci function",
		ChatModel: "mistral",
		CodeModel: "codellama",
		Success:   true,
		Metrics:   map[string]interface{}{"total_lines": 3},
	}
	require.NoError(t, repo.Create(ctx, &run))

	found, err := repo.GetByUUID(ctx, "uuid-1")
	require.NoError(t, err)
	require.Equal(t, run.Prompt, found.Prompt)
	require.True(t, found.Success)

	_, err = repo.GetByUUID(ctx, "uuid-missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGenerationListFilters(t *testing.T) {
	repo := setupGenerationRepo(t)
	ctx := context.Background()

	runs := []models.Generation{
		{UUID: "u-1", ChatModel: "mistral", CodeModel: "codellama", Success: true},
		{UUID: "u-2", ChatModel: "mistral", CodeModel: "codellama", Success: false},
		{UUID: "u-3", ChatModel: "deepseek-r1", CodeModel: "deepseek-coder", Success: true},
	}
	for i := range runs {
		require.NoError(t, repo.Create(ctx, &runs[i]))
	}

	chatModel := "mistral"
	filtered, err := repo.List(ctx, GenerationFilter{ChatModel: &chatModel})
	require.NoError(t, err)
	require.Len(t, filtered, 2)

	success := true
	succeeded, err := repo.List(ctx, GenerationFilter{Success: &success})
	require.NoError(t, err)
	require.Len(t, succeeded, 2)

	limited, err := repo.List(ctx, GenerationFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}
