package app

import (
	"testing"
	"time"
)

func TestGetenv(t *testing.T) {
	t.Setenv("TEST_LANGUAGE", "en")
	t.Setenv("TEST_LANGUAGE_EMPTY", "")

	tests := []struct {
		key, def, want string
	}{
		{"TEST_LANGUAGE", "id", "en"},
		{"TEST_LANGUAGE_EMPTY", "id", "id"},
		{"TEST_LANGUAGE_UNSET", "", ""},
	}
	for _, tt := range tests {
		if got := getenv(tt.key, tt.def); got != tt.want {
			t.Errorf("getenv(%q, %q) = %q, want %q", tt.key, tt.def, got, tt.want)
		}
	}
}

func TestGetenvIntClamped(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"within range", "12", 12},
		{"below min clamps", "1", 2},
		{"above max clamps", "90", 30},
		{"exactly min", "2", 2},
		{"exactly max", "30", 30},
		{"unset uses default", "", 10},
		{"invalid uses default", "ten", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_WINDOW_SECONDS", tt.value)
			if got := getenvIntClamped("TEST_WINDOW_SECONDS", 10, 2, 30); got != tt.want {
				t.Errorf("getenvIntClamped(%q) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetenvFloatClamped(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{"within range", "0.75", 0.75},
		{"below min clamps", "-0.2", 0},
		{"above max clamps", "80", 1},
		{"exactly min", "0", 0},
		{"exactly max", "1", 1},
		{"unset uses default", "", 0.8},
		{"invalid uses default", "high", 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_MIN_CONFIDENCE", tt.value)
			if got := getenvFloatClamped("TEST_MIN_CONFIDENCE", 0.8, 0, 1); got != tt.want {
				t.Errorf("getenvFloatClamped(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetenvDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		want     time.Duration
	}{
		{"go duration", "45s", 45 * time.Second},
		{"plain seconds", "90", 90 * time.Second},
		{"milliseconds", "250ms", 250 * time.Millisecond},
		{"not set", "", 10 * time.Second},
		{"invalid", "soon", 10 * time.Second},
		{"zero", "0", 10 * time.Second},
		{"negative", "-5s", 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.envValue)
			if got := getenvDuration("TEST_DURATION", 10*time.Second); got != tt.want {
				t.Errorf("getenvDuration(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	for _, k := range []string{
		"HTTP_ADDR", "ORACLE_PROVIDER", "STT_PROVIDER", "TRANSCRIPTION_LANGUAGE",
		"AUDIO_WINDOW_SECONDS", "PHASE_MIN_CONFIDENCE", "CHECKLIST_MIN_CONFIDENCE",
		"CLIENT_CARD_MIN_CONFIDENCE", "CHECKLIST_COOLDOWN", "REFRESH_INTERVAL",
		"DEBUG_LOG_CAPACITY", "DATABASE_URL", "DISCORD_WEBHOOK_URL",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadConfigFromEnv()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.OracleProvider != "openai" {
		t.Errorf("OracleProvider = %q, want openai", cfg.OracleProvider)
	}
	if cfg.STTProvider != "deepgram" {
		t.Errorf("STTProvider = %q, want deepgram", cfg.STTProvider)
	}
	if cfg.Language != "id" {
		t.Errorf("Language = %q, want id", cfg.Language)
	}
	if cfg.AudioWindowSeconds != 10 {
		t.Errorf("AudioWindowSeconds = %d, want 10", cfg.AudioWindowSeconds)
	}
	if cfg.PhaseMinConfidence != 0.6 || cfg.ChecklistMinConfidence != 0.8 || cfg.CardMinConfidence != 0.7 {
		t.Errorf("thresholds = %v/%v/%v, want 0.6/0.8/0.7",
			cfg.PhaseMinConfidence, cfg.ChecklistMinConfidence, cfg.CardMinConfidence)
	}
	if cfg.ChecklistCooldown != 30*time.Second {
		t.Errorf("ChecklistCooldown = %v, want 30s", cfg.ChecklistCooldown)
	}
	if cfg.RefreshInterval != 15*time.Second {
		t.Errorf("RefreshInterval = %v, want 15s", cfg.RefreshInterval)
	}
	if cfg.DebugLogCapacity != 500 {
		t.Errorf("DebugLogCapacity = %d, want 500", cfg.DebugLogCapacity)
	}
	if cfg.DatabaseURL != "" || cfg.DiscordWebhookURL != "" {
		t.Error("optional integrations should be disabled by default")
	}
}

func TestLoadConfigFromEnvCustomValues(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ORACLE_PROVIDER", "Gemini")
	t.Setenv("STT_PROVIDER", "WHISPER")
	t.Setenv("TRANSCRIPTION_LANGUAGE", "en")
	t.Setenv("AUDIO_WINDOW_SECONDS", "60")
	t.Setenv("CHECKLIST_MIN_CONFIDENCE", "0.9")
	t.Setenv("CHECKLIST_COOLDOWN", "5")
	t.Setenv("ORACLE_TIMEOUT", "8s")
	t.Setenv("AUDIO_MIN_MS", "500")

	cfg := LoadConfigFromEnv()

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.OracleProvider != "gemini" {
		t.Errorf("OracleProvider = %q, want gemini", cfg.OracleProvider)
	}
	if cfg.STTProvider != "whisper" {
		t.Errorf("STTProvider = %q, want whisper", cfg.STTProvider)
	}
	if cfg.AudioWindowSeconds != 30 {
		t.Errorf("AudioWindowSeconds = %d, want clamped 30", cfg.AudioWindowSeconds)
	}

	sc := cfg.SessionConfig()
	if sc.Language != "en" {
		t.Errorf("session Language = %q, want en", sc.Language)
	}
	if sc.ChecklistVerify.MinConfidence != 0.9 {
		t.Errorf("checklist MinConfidence = %v, want 0.9", sc.ChecklistVerify.MinConfidence)
	}
	if sc.Checklist.Cooldown != 5*time.Second {
		t.Errorf("Cooldown = %v, want 5s", sc.Checklist.Cooldown)
	}
	if sc.Phase.OracleTimeout != 8*time.Second || sc.CardVerify.Timeout != 8*time.Second {
		t.Errorf("oracle timeouts not propagated: %v / %v", sc.Phase.OracleTimeout, sc.CardVerify.Timeout)
	}
	if sc.MinAudio != 500*time.Millisecond {
		t.Errorf("MinAudio = %v, want 500ms", sc.MinAudio)
	}
	// untouched fields keep session defaults
	if sc.PreviewChars != 300 {
		t.Errorf("PreviewChars = %d, want 300", sc.PreviewChars)
	}
}
