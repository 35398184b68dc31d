package app

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testConfig() Config {
	cfg := LoadConfigFromEnv()
	cfg.DatabaseURL = ""
	cfg.DiscordWebhookURL = ""
	cfg.CallStructureFile = ""
	cfg.ClientCardFile = ""
	cfg.OracleProvider = "openai"
	cfg.OpenAIAPIKey = "sk-test"
	cfg.STTProvider = "deepgram"
	cfg.DeepgramAPIKey = "dg-test"
	return cfg
}

func TestNewRejectsMissingProviderKeys(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"openai without key", func(c *Config) { c.OpenAIAPIKey = "" }, "OPENAI_API_KEY"},
		{"gemini without key", func(c *Config) { c.OracleProvider = "gemini"; c.GeminiAPIKey = "" }, "GEMINI_API_KEY"},
		{"unknown oracle", func(c *Config) { c.OracleProvider = "llama" }, "ORACLE_PROVIDER"},
		{"deepgram without key", func(c *Config) { c.DeepgramAPIKey = "" }, "DEEPGRAM_API_KEY"},
		{"unknown stt", func(c *Config) { c.STTProvider = "vosk" }, "STT_PROVIDER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, log.New(io.Discard, "", 0))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestNewTranscriberWhisperUsesOpenAIKey(t *testing.T) {
	cfg := testConfig()
	cfg.STTProvider = "whisper"
	if _, err := newTranscriber(cfg, http.DefaultClient); err != nil {
		t.Fatalf("whisper with OpenAI key: %v", err)
	}
	cfg.OpenAIAPIKey = ""
	if _, err := newTranscriber(cfg, http.DefaultClient); err == nil {
		t.Error("expected error for whisper without OPENAI_API_KEY")
	}
}

func TestNewLoadsCallPlanFiles(t *testing.T) {
	dir := t.TempDir()
	structure := filepath.Join(dir, "structure.json")
	if err := os.WriteFile(structure, []byte(`[{"id":"intro","name":"Intro","durationSeconds":60,"items":[{"id":"hi","type":"say","content":"Say hello"}]}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.CallStructureFile = structure
	a, err := New(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if got := a.plan.Structure(); len(got) != 1 || got[0].ID != "intro" {
		t.Errorf("structure = %+v, want the file's single stage", got)
	}

	cfg.ClientCardFile = filepath.Join(dir, "missing.json")
	if _, err := New(cfg, log.New(io.Discard, "", 0)); err == nil {
		t.Error("expected error for missing client card file")
	}
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	a, err := New(testConfig(), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	h := a.Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "listeners_active") {
		t.Error("/metrics should expose the listener gauge")
	}
}
