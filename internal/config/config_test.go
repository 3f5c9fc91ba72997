package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("CODARIQ_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "jwt secret")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CODARIQ_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Codariq API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "http://localhost:11434/v1", cfg.InferenceBaseURL)
	require.Equal(t, []string{"mistral", "deepseek-r1"}, cfg.ChatModels)
	require.Equal(t, []string{"codellama", "deepseek-coder"}, cfg.CodeModels)
	require.False(t, cfg.RegistryStrict)
	require.EqualValues(t, 1<<20, cfg.ReferenceMaxBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CODARIQ_JWT_SECRET", "secret")
	t.Setenv("CODARIQ_APP_PORT", ":9090")
	t.Setenv("CODARIQ_MODELS_CHAT", "mistral, llama3 ,")
	t.Setenv("CODARIQ_REGISTRY_STRICT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, []string{"mistral", "llama3"}, cfg.ChatModels)
	require.True(t, cfg.RegistryStrict)
}

func TestLoadRejectsEmptyModelLists(t *testing.T) {
	t.Setenv("CODARIQ_JWT_SECRET", "secret")
	t.Setenv("CODARIQ_MODELS_CODE", " , ")

	_, err := Load()
	require.Error(t, err)
}
