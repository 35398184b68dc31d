package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gunpashgun/SalesBestFriend/internal/broadcast"
	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/eventlog"
	"github.com/gunpashgun/SalesBestFriend/internal/httpapi"
	"github.com/gunpashgun/SalesBestFriend/internal/jobs"
	"github.com/gunpashgun/SalesBestFriend/internal/llm"
	"github.com/gunpashgun/SalesBestFriend/internal/metrics"
	"github.com/gunpashgun/SalesBestFriend/internal/notifications"
	"github.com/gunpashgun/SalesBestFriend/internal/session"
	"github.com/gunpashgun/SalesBestFriend/internal/stt"
)

type App struct {
	cfg      Config
	logger   *log.Logger
	db       *pgxpool.Pool
	trail    *eventlog.Logger
	metrics  *metrics.Metrics
	hub      *broadcast.Hub
	plan     *callplan.Registry
	sessions *httpapi.SessionRegistry
	ticker   *jobs.ProgressTicker
	oracle   llm.Classifier
	stt      stt.Transcriber
	discord  *notifications.Discord
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
	}

	a.trail = eventlog.New(a.db, cfg.DebugLogCapacity)
	if a.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.trail.EnsureSchema(ctx); err != nil {
			a.db.Close()
			return nil, fmt.Errorf("debug trail schema: %w", err)
		}
	}

	a.metrics = metrics.New(cfg.MetricsNamespace)
	a.hub = broadcast.NewHub(logger, broadcast.DefaultSendTimeout)
	a.hub.OnCount = a.metrics.SetListeners
	a.hub.OnDelivery = a.metrics.RecordDelivery

	a.plan = callplan.NewRegistry()
	if cfg.CallStructureFile != "" {
		if err := a.plan.LoadStructureFile(cfg.CallStructureFile); err != nil {
			a.Close()
			return nil, fmt.Errorf("load call structure: %w", err)
		}
	}
	if cfg.ClientCardFile != "" {
		if err := a.plan.LoadFieldsFile(cfg.ClientCardFile); err != nil {
			a.Close()
			return nil, fmt.Errorf("load client card: %w", err)
		}
	}

	// Shared HTTP client with connection pooling for STT and oracle calls.
	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	oracle, err := newOracle(cfg, httpClient)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.oracle = a.metrics.InstrumentClassifier(oracle)

	transcriber, err := newTranscriber(cfg, httpClient)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.stt = a.metrics.InstrumentTranscriber(transcriber)

	if cfg.DiscordWebhookURL != "" {
		a.discord = notifications.NewDiscord(cfg.DiscordWebhookURL, logger)
	}

	a.sessions = httpapi.NewSessionRegistry()
	a.ticker = jobs.NewProgressTicker(a.sessions, logger, cfg.RefreshInterval)

	logger.Printf("app: oracle=%s stt=%s language=%s window=%ds db=%t",
		cfg.OracleProvider, cfg.STTProvider, cfg.Language, cfg.AudioWindowSeconds, a.db != nil)
	return a, nil
}

func newOracle(cfg Config, httpClient *http.Client) (llm.Classifier, error) {
	switch cfg.OracleProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for ORACLE_PROVIDER=openai")
		}
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OracleModel,
			BaseURL:      cfg.OpenAIBaseURL,
			SystemPrompt: llm.SystemPromptAnalyst,
			HTTPClient:   httpClient,
		}), nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("GEMINI_API_KEY is required for ORACLE_PROVIDER=gemini")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:       cfg.GeminiAPIKey,
			Model:        cfg.OracleModel,
			SystemPrompt: llm.SystemPromptAnalyst,
		})
	default:
		return nil, fmt.Errorf("unknown ORACLE_PROVIDER %q", cfg.OracleProvider)
	}
}

func newTranscriber(cfg Config, httpClient *http.Client) (stt.Transcriber, error) {
	switch cfg.STTProvider {
	case "deepgram":
		if cfg.DeepgramAPIKey == "" {
			return nil, errors.New("DEEPGRAM_API_KEY is required for STT_PROVIDER=deepgram")
		}
		return stt.NewDeepgramClient(stt.DeepgramConfig{
			APIKey:     cfg.DeepgramAPIKey,
			Model:      cfg.DeepgramModel,
			Punctuate:  true,
			HTTPClient: httpClient,
		}), nil
	case "whisper":
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for STT_PROVIDER=whisper")
		}
		return stt.NewWhisperClient(stt.WhisperConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.WhisperModel,
			HTTPClient: httpClient,
		}), nil
	default:
		return nil, fmt.Errorf("unknown STT_PROVIDER %q", cfg.STTProvider)
	}
}

// Sessions exposes the live-session registry for graceful shutdown.
func (a *App) Sessions() *httpapi.SessionRegistry { return a.sessions }

func (a *App) Ticker() *jobs.ProgressTicker { return a.ticker }

func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		AudioWindow: time.Duration(a.cfg.AudioWindowSeconds) * time.Second,
		STTProvider: a.cfg.STTProvider,
		Session:     a.cfg.SessionConfig(),
	}
	deps := httpapi.Deps{
		Plan:     a.plan,
		Sessions: a.sessions,
		Hub:      a.hub,
		Trail:    a.trail,
		Metrics:  a.metrics,
		Session: session.Deps{
			Transcriber: a.stt,
			Oracle:      a.oracle,
			Logger:      a.logger,
			OnEnd:       a.onSessionEnd,
		},
	}
	return httpapi.NewRouter(routerCfg, a.logger, deps)
}

func (a *App) onSessionEnd(sum session.Summary) {
	a.logger.Printf("app: session %s %s after %s (oracle calls=%d, audio=%.0fs)",
		sum.ID, sum.Status, sum.Duration.Round(time.Second), sum.Usage.OracleCalls, sum.Usage.AudioSeconds)
	if a.discord == nil || sum.Status == "superseded" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.discord.NotifyCallSummary(ctx, sum); err != nil {
			a.logger.Printf("app: discord summary for %s: %v", sum.ID, err)
		}
	}()
}

func (a *App) Close() error {
	if a.hub != nil {
		a.hub.CloseAll()
	}
	if a.db != nil {
		a.db.Close()
	}
	return nil
}
