package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gunpashgun/SalesBestFriend/internal/audio"
	"github.com/gunpashgun/SalesBestFriend/internal/session"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string // optional, mirrors the debug trail to Postgres
	SentryDSN   string
	Environment string

	// Oracle
	OracleProvider string // openai | gemini
	OracleModel    string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	GeminiAPIKey   string
	OracleTimeout  time.Duration

	// Speech-to-text
	STTProvider       string // deepgram | whisper
	DeepgramAPIKey    string
	DeepgramModel     string
	WhisperModel      string
	Language          string
	TranscribeTimeout time.Duration

	// Audio windows
	AudioWindowSeconds int
	AudioSampleRate    int
	AudioChannels      int
	MinAudioMs         int

	// Analysis thresholds
	TranscriptMaxWords     int
	PhaseMinConfidence     float64
	ChecklistMinConfidence float64
	CardMinConfidence      float64
	ChecklistCooldown      time.Duration
	VerdictCacheTTL        time.Duration

	// Observers
	RefreshInterval  time.Duration
	DebugLogCapacity int
	MetricsNamespace string

	// Notifications
	DiscordWebhookURL string

	// Optional JSON overrides for the built-in call plan
	CallStructureFile string
	ClientCardFile    string
}

func LoadConfigFromEnv() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		SentryDSN:   getenv("SENTRY_DSN", ""),
		Environment: getenv("ENVIRONMENT", "development"),

		OracleProvider: strings.ToLower(getenv("ORACLE_PROVIDER", "openai")),
		OracleModel:    getenv("ORACLE_MODEL", ""),
		OpenAIAPIKey:   getenv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getenv("OPENAI_BASE_URL", ""),
		GeminiAPIKey:   getenv("GEMINI_API_KEY", ""),
		OracleTimeout:  getenvDuration("ORACLE_TIMEOUT", 20*time.Second),

		STTProvider:       strings.ToLower(getenv("STT_PROVIDER", "deepgram")),
		DeepgramAPIKey:    getenv("DEEPGRAM_API_KEY", ""),
		DeepgramModel:     getenv("DEEPGRAM_MODEL", "nova-2"),
		WhisperModel:      getenv("WHISPER_MODEL", "whisper-1"),
		Language:          getenv("TRANSCRIPTION_LANGUAGE", "id"),
		TranscribeTimeout: getenvDuration("TRANSCRIBE_TIMEOUT", 30*time.Second),

		AudioWindowSeconds: getenvIntClamped("AUDIO_WINDOW_SECONDS", 10, 2, 30),
		AudioSampleRate:    getenvIntClamped("AUDIO_SAMPLE_RATE", 16000, 8000, 48000),
		AudioChannels:      getenvIntClamped("AUDIO_CHANNELS", 1, 1, 2),
		MinAudioMs:         getenvIntClamped("AUDIO_MIN_MS", 1000, 100, 10000),

		TranscriptMaxWords:     getenvIntClamped("TRANSCRIPT_MAX_WORDS", 1000, 100, 10000),
		PhaseMinConfidence:     getenvFloatClamped("PHASE_MIN_CONFIDENCE", 0.6, 0, 1),
		ChecklistMinConfidence: getenvFloatClamped("CHECKLIST_MIN_CONFIDENCE", 0.8, 0, 1),
		CardMinConfidence:      getenvFloatClamped("CLIENT_CARD_MIN_CONFIDENCE", 0.7, 0, 1),
		ChecklistCooldown:      getenvDuration("CHECKLIST_COOLDOWN", 30*time.Second),
		VerdictCacheTTL:        getenvDuration("VERDICT_CACHE_TTL", 60*time.Second),

		RefreshInterval:  getenvDuration("REFRESH_INTERVAL", 15*time.Second),
		DebugLogCapacity: getenvIntClamped("DEBUG_LOG_CAPACITY", 500, 50, 10000),
		MetricsNamespace: getenv("METRICS_NAMESPACE", "salesbestfriend"),

		DiscordWebhookURL: getenv("DISCORD_WEBHOOK_URL", ""),

		CallStructureFile: getenv("CALL_STRUCTURE_FILE", ""),
		ClientCardFile:    getenv("CLIENT_CARD_FILE", ""),
	}
}

// SessionConfig maps the environment onto per-session settings.
func (c Config) SessionConfig() session.Config {
	sc := session.DefaultConfig()
	sc.Language = c.Language
	sc.TranscriptMaxWords = c.TranscriptMaxWords
	sc.Audio = audio.Format{SampleRate: c.AudioSampleRate, Channels: c.AudioChannels}
	sc.MinAudio = time.Duration(c.MinAudioMs) * time.Millisecond
	sc.TranscribeTimeout = c.TranscribeTimeout

	sc.Phase.MinConfidence = c.PhaseMinConfidence
	sc.Phase.OracleTimeout = c.OracleTimeout

	sc.Checklist.Cooldown = c.ChecklistCooldown
	sc.Checklist.CacheTTL = c.VerdictCacheTTL
	sc.Checklist.OracleTimeout = c.OracleTimeout
	sc.ChecklistVerify.MinConfidence = c.ChecklistMinConfidence
	sc.ChecklistVerify.Timeout = c.OracleTimeout

	sc.Card.OracleTimeout = c.OracleTimeout
	sc.CardVerify.MinConfidence = c.CardMinConfidence
	sc.CardVerify.Timeout = c.OracleTimeout
	return sc
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntClamped(k string, def, min, max int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func getenvFloatClamped(k string, def, min, max float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// getenvDuration accepts Go durations ("45s") or plain seconds ("45").
func getenvDuration(k string, def time.Duration) time.Duration {
	raw := os.Getenv(k)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}
