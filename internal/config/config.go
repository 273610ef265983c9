// Package config provides configuration for the assistant.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/xiaot623/visionassist/internal/domain"
)

// Config holds the assistant configuration.
type Config struct {
	// Generative service
	GeminiAPIKey          string  `env:"GEMINI_API_KEY,required,notEmpty"`
	GenAIModel            string  `env:"GENAI_MODEL" envDefault:"gemini-2.0-flash"`
	GenAITemperature      float32 `env:"GENAI_TEMPERATURE" envDefault:"1"`
	GenAITopP             float32 `env:"GENAI_TOP_P" envDefault:"0.95"`
	GenAITopK             float32 `env:"GENAI_TOP_K" envDefault:"40"`
	GenAIMaxOutputTokens  int32   `env:"GENAI_MAX_OUTPUT_TOKENS" envDefault:"8192"`
	GenAIResponseMIMEType string  `env:"GENAI_RESPONSE_MIME_TYPE" envDefault:"text/plain"`
	GenAITimeoutMs        int     `env:"GENAI_TIMEOUT_MS" envDefault:"120000"`
	GenAIBaseURL          string  `env:"GENAI_BASE_URL"`
	MediaPollIntervalMs   int     `env:"MEDIA_POLL_INTERVAL_MS" envDefault:"10000"`
	MediaMaxWaitMs        int     `env:"MEDIA_MAX_WAIT_MS" envDefault:"600000"`

	// Object detection
	VisionURL       string `env:"VISION_URL" envDefault:"http://localhost:8500/detect"`
	VisionTimeoutMs int    `env:"VISION_TIMEOUT_MS" envDefault:"30000"`

	// Text-to-speech
	SpeechEnabled         bool   `env:"SPEECH_ENABLED" envDefault:"false"`
	SpeechCredentialsFile string `env:"SPEECH_CREDENTIALS_FILE"`
	SpeechLanguageCode    string `env:"SPEECH_LANGUAGE_CODE" envDefault:"en-US"`
	SpeechTimeoutMs       int    `env:"SPEECH_TIMEOUT_MS" envDefault:"30000"`

	// Analysis
	AnalysisEnhancer string `env:"ANALYSIS_ENHANCER" envDefault:"speech"`
	MaxImageBytes    int64  `env:"MAX_IMAGE_BYTES" envDefault:"10485760"`
	UploadDir        string `env:"UPLOAD_DIR"`

	// Server settings
	HTTPPort int `env:"HTTP_PORT" envDefault:"7860"`

	// History
	HistoryDSN string `env:"HISTORY_DSN" envDefault:":memory:"`

	// WebSocket settings
	WSPingIntervalMs int   `env:"WS_PING_INTERVAL_MS" envDefault:"30000"`
	WSWriteTimeoutMs int   `env:"WS_WRITE_TIMEOUT_MS" envDefault:"10000"`
	WSReadTimeoutMs  int   `env:"WS_READ_TIMEOUT_MS" envDefault:"60000"`
	WSMaxMessageSize int64 `env:"WS_MAX_MESSAGE_SIZE" envDefault:"65536"`

	// Mode
	Mode string `env:"ASSIST_MODE"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load loads configuration from environment variables.
// A missing credential is reported as domain.ErrConfiguration.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if _, err := cfg.Enhancer(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Enhancer returns the configured analysis enhancer.
func (c *Config) Enhancer() (domain.Enhancer, error) {
	switch domain.Enhancer(c.AnalysisEnhancer) {
	case "", domain.EnhancerSpeech:
		return domain.EnhancerSpeech, nil
	case domain.EnhancerGenerative:
		return domain.EnhancerGenerative, nil
	}
	return "", fmt.Errorf("%w: unknown ANALYSIS_ENHANCER %q", domain.ErrConfiguration, c.AnalysisEnhancer)
}

// GenAITimeout bounds a single generative call.
func (c *Config) GenAITimeout() time.Duration { return ms(c.GenAITimeoutMs) }

// MediaPollInterval is the wait between file state polls.
func (c *Config) MediaPollInterval() time.Duration { return ms(c.MediaPollIntervalMs) }

// MediaMaxWait bounds the whole processing wait of one upload.
func (c *Config) MediaMaxWait() time.Duration { return ms(c.MediaMaxWaitMs) }

// VisionTimeout bounds a single detection call.
func (c *Config) VisionTimeout() time.Duration { return ms(c.VisionTimeoutMs) }

// SpeechTimeout bounds a single synthesis call.
func (c *Config) SpeechTimeout() time.Duration { return ms(c.SpeechTimeoutMs) }

// WSPingInterval is the websocket keepalive period.
func (c *Config) WSPingInterval() time.Duration { return ms(c.WSPingIntervalMs) }

// WSWriteTimeout is the websocket write deadline.
func (c *Config) WSWriteTimeout() time.Duration { return ms(c.WSWriteTimeoutMs) }

// WSReadTimeout is the websocket read deadline.
func (c *Config) WSReadTimeout() time.Duration { return ms(c.WSReadTimeoutMs) }

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
