package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/gunpashgun/SalesBestFriend/internal/audio"
	"github.com/gunpashgun/SalesBestFriend/internal/broadcast"
	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/eventlog"
	"github.com/gunpashgun/SalesBestFriend/internal/metrics"
	"github.com/gunpashgun/SalesBestFriend/internal/session"
)

type RouterConfig struct {
	// Audio window handed to the session once this much audio is buffered.
	AudioWindow time.Duration

	// Per-write deadline for observer sockets.
	WriteTimeout time.Duration

	// STT provider name, used for cost estimates on /health.
	STTProvider string

	// Upper bound for REST request bodies.
	MaxBodyBytes int64

	// Session settings applied to every new session.
	Session session.Config
}

// Deps are the process-wide collaborators shared by every handler.
type Deps struct {
	Plan     *callplan.Registry
	Sessions *SessionRegistry
	Hub      *broadcast.Hub
	Trail    *eventlog.Logger
	Metrics  *metrics.Metrics
	Session  session.Deps
}

type Router struct {
	cfg      RouterConfig
	logger   *log.Logger
	plan     *callplan.Registry
	sessions *SessionRegistry
	hub      *broadcast.Hub
	trail    *eventlog.Logger
	metrics  *metrics.Metrics
	sessDeps session.Deps
	mux      *http.ServeMux

	langMu   sync.Mutex
	language string
}

func NewRouter(cfg RouterConfig, logger *log.Logger, deps Deps) http.Handler {
	return newRouter(cfg, logger, deps).handler()
}

func newRouter(cfg RouterConfig, logger *log.Logger, deps Deps) *Router {
	if cfg.AudioWindow <= 0 {
		cfg.AudioWindow = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = broadcast.DefaultSendTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.Session.Language == "" {
		cfg.Session.Language = "id"
	}
	if cfg.Session.Audio == (audio.Format{}) {
		cfg.Session.Audio = audio.DefaultFormat
	}
	if deps.Plan == nil {
		deps.Plan = callplan.NewRegistry()
	}
	if deps.Sessions == nil {
		deps.Sessions = NewSessionRegistry()
	}
	if deps.Hub == nil {
		deps.Hub = broadcast.NewHub(logger, cfg.WriteTimeout)
	}
	if deps.Trail == nil {
		deps.Trail = eventlog.New(nil, eventlog.DefaultCapacity)
	}

	sd := deps.Session
	sd.Hub = deps.Hub
	sd.Trail = deps.Trail
	sd.Metrics = deps.Metrics
	if sd.Logger == nil {
		sd.Logger = logger
	}

	r := &Router{
		cfg:      cfg,
		logger:   logger,
		plan:     deps.Plan,
		sessions: deps.Sessions,
		hub:      deps.Hub,
		trail:    deps.Trail,
		metrics:  deps.Metrics,
		sessDeps: sd,
		mux:      http.NewServeMux(),
		language: cfg.Session.Language,
	}
	r.routes()
	return r
}

func (r *Router) handler() http.Handler {
	return withSentryRecovery(withCORS(r.mux))
}

func (r *Router) routes() {
	// Health checks
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)
	r.mux.HandleFunc("GET /readyz", r.handleReadyz)
	r.mux.HandleFunc("GET /health", r.handleHealth)
	r.mux.HandleFunc("GET /{$}", r.handleRoot)

	// Configuration
	r.mux.HandleFunc("GET /api/config/call-structure", r.handleGetCallStructure)
	r.mux.HandleFunc("POST /api/config/call-structure", r.handleUpdateCallStructure)
	r.mux.HandleFunc("GET /api/config/client-card", r.handleGetClientCard)
	r.mux.HandleFunc("POST /api/config/client-card", r.handleUpdateClientCard)

	// Diagnostics
	r.mux.HandleFunc("GET /api/debug-log", r.handleDebugLog)
	r.mux.HandleFunc("POST /api/process-transcript", r.handleProcessTranscript)
	if r.metrics != nil {
		r.mux.Handle("GET /metrics", r.metrics.Handler())
	}

	// Sockets
	r.mux.HandleFunc("GET /ingest", r.handleIngestWS)
	r.mux.HandleFunc("GET /coach", r.handleCoachWS)
}

// newSession starts a session over the configuration active right now.
func (r *Router) newSession() *session.Session {
	cfg := r.cfg.Session
	cfg.Language = r.Language()
	return session.New(cfg, r.sessDeps, r.plan.Structure(), r.plan.Fields())
}

// newScratchSession is a session for one-off analysis. Its end is not reported.
func (r *Router) newScratchSession() *session.Session {
	cfg := r.cfg.Session
	cfg.Language = r.Language()
	deps := r.sessDeps
	deps.OnEnd = nil
	return session.New(cfg, deps, r.plan.Structure(), r.plan.Fields())
}

// Language is the transcription language new sessions start with.
func (r *Router) Language() string {
	r.langMu.Lock()
	defer r.langMu.Unlock()
	return r.language
}

// setLanguage changes the language for the live session and every later one.
func (r *Router) setLanguage(lang string) {
	if lang == "" {
		return
	}
	r.langMu.Lock()
	r.language = lang
	r.langMu.Unlock()
	if live := r.sessions.Live(); live != nil {
		live.SetLanguage(lang)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
