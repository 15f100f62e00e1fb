package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, "redacoes.db", cfg.DatabaseURL)
	require.Equal(t, "gemini", cfg.AIProvider)
	require.Equal(t, "gemini-key", cfg.AIAPIKey())
	require.Equal(t, 30*time.Second, cfg.AITimeout)
	require.Equal(t, 50, cfg.MinGradingLength)
	require.Equal(t, 10, cfg.GradeRateLimit)
	require.Equal(t, time.Minute, cfg.GradeRateWindow)
	require.Equal(t, "melhorenem.essays", cfg.NATSSubject)
	require.Equal(t, "*", cfg.CORSAllowOrigins)
	require.False(t, cfg.PublicRead)
	require.Equal(t, ":3000", cfg.HTTPAddress())
}

func TestLoadHonoursPrefixedAndLegacyNames(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("MELHORENEM_AI_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("MELHORENEM_DATABASE_DRIVER", "postgres")
	t.Setenv("MELHORENEM_DATABASE_URL", "postgres://localhost/redacoes")
	t.Setenv("MELHORENEM_AI_TIMEOUT", "45s")
	t.Setenv("MELHORENEM_ESSAYS_PUBLIC_READ", "true")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "openai", cfg.AIProvider)
	require.Equal(t, "openai-key", cfg.AIAPIKey())
	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.Equal(t, 45*time.Second, cfg.AITimeout)
	require.True(t, cfg.PublicRead)
}

func TestLoadRequiresProviderKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("MELHORENEM_GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestLoadRejectsUnknownDriverAndBadDuration(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("MELHORENEM_DATABASE_DRIVER", "mongodb")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported database driver")

	t.Setenv("MELHORENEM_DATABASE_DRIVER", "sqlite")
	t.Setenv("MELHORENEM_AI_TIMEOUT", "soon")
	_, err = Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid ai timeout")
}
