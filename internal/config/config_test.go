package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/visionassist/internal/domain"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.0-flash", cfg.GenAIModel)
	assert.Equal(t, float32(1), cfg.GenAITemperature)
	assert.Equal(t, float32(0.95), cfg.GenAITopP)
	assert.Equal(t, float32(40), cfg.GenAITopK)
	assert.Equal(t, int32(8192), cfg.GenAIMaxOutputTokens)
	assert.Equal(t, "text/plain", cfg.GenAIResponseMIMEType)
	assert.Equal(t, 2*time.Minute, cfg.GenAITimeout())
	assert.Equal(t, 10*time.Minute, cfg.MediaMaxWait())
	assert.Equal(t, ":memory:", cfg.HistoryDSN)
	assert.NotEmpty(t, cfg.UploadDir)

	enh, err := cfg.Enhancer()
	require.NoError(t, err)
	assert.Equal(t, domain.EnhancerSpeech, enh)
}

func TestLoadRejectsUnknownEnhancer(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("ANALYSIS_ENHANCER", "poetry")

	_, err := Load()
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestTimeoutOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("GENAI_TIMEOUT_MS", "1500")
	t.Setenv("VISION_TIMEOUT_MS", "250")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.GenAITimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.VisionTimeout())
}
