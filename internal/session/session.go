// Package session owns the state of one live call and applies every change
// to it on a single ordered worker.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/gunpashgun/SalesBestFriend/internal/audio"
	"github.com/gunpashgun/SalesBestFriend/internal/broadcast"
	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/checklist"
	"github.com/gunpashgun/SalesBestFriend/internal/clientcard"
	"github.com/gunpashgun/SalesBestFriend/internal/costs"
	"github.com/gunpashgun/SalesBestFriend/internal/eventlog"
	"github.com/gunpashgun/SalesBestFriend/internal/llm"
	"github.com/gunpashgun/SalesBestFriend/internal/metrics"
	"github.com/gunpashgun/SalesBestFriend/internal/phase"
	"github.com/gunpashgun/SalesBestFriend/internal/stt"
	"github.com/gunpashgun/SalesBestFriend/internal/transcript"
	"github.com/gunpashgun/SalesBestFriend/internal/verify"
)

var (
	ErrClosed = errors.New("session closed")
	ErrBusy   = errors.New("session queue full")
)

type Config struct {
	Language           string
	TranscriptMaxWords int

	PhaseContextChars     int
	ChecklistContextChars int
	CardContextChars      int
	PreviewChars          int
	TrailInSnapshot       int

	Audio             audio.Format
	MinAudio          time.Duration
	TranscribeTimeout time.Duration
	BroadcastTimeout  time.Duration
	QueueSize         int

	Phase           phase.Config
	Checklist       checklist.Config
	ChecklistVerify verify.Config
	Card            clientcard.Config
	CardVerify      verify.Config
}

func DefaultConfig() Config {
	return Config{
		Language:              "id",
		TranscriptMaxWords:    1000,
		PhaseContextChars:     2000,
		ChecklistContextChars: 1500,
		CardContextChars:      1000,
		PreviewChars:          300,
		TrailInSnapshot:       50,
		Audio:                 audio.DefaultFormat,
		MinAudio:              time.Second,
		TranscribeTimeout:     30 * time.Second,
		BroadcastTimeout:      10 * time.Second,
		QueueSize:             4,
		Phase:                 phase.DefaultConfig(),
		Checklist:             checklist.DefaultConfig(),
		ChecklistVerify:       verify.DefaultChecklistConfig(),
		Card:                  clientcard.DefaultConfig(),
		CardVerify:            verify.DefaultCardConfig(),
	}
}

// Deps are the collaborators a session talks to. Only Oracle is required
// for text input; audio input also needs Transcriber.
type Deps struct {
	Transcriber stt.Transcriber
	Oracle      llm.Classifier
	Hub         *broadcast.Hub
	Trail       *eventlog.Logger
	Metrics     *metrics.Metrics
	Logger      *log.Logger
	Now         func() time.Time

	// OnEnd, if set, is called once with the final summary after the worker exits.
	OnEnd func(Summary)
}

// Summary describes a finished session.
type Summary struct {
	ID        string
	Status    string
	StartedAt time.Time
	Duration  time.Duration
	Usage     costs.Usage
	Final     *Snapshot
}

// Result is delivered once per submitted job.
type Result struct {
	Snapshot   *Snapshot
	Transcript string
	Stage      *phase.Outcome
	Checklist  []checklist.Outcome
	Card       []clientcard.Outcome
	Err        error
}

type jobKind int

const (
	jobAudio jobKind = iota
	jobText
	jobCompleteItem
	jobFillField
	jobRefresh
)

type job struct {
	kind   jobKind
	pcm    []byte
	text   string
	id     string
	value  string
	result chan Result
}

// Session is one live call. All analysis state is owned by the worker
// goroutine; other goroutines read the latest published Snapshot.
type Session struct {
	id        string
	cfg       Config
	deps      Deps
	logger    *log.Logger
	trail     *eventlog.Logger
	structure callplan.CallStructure
	fields    []callplan.FieldSpec
	start     time.Time
	meter     *costs.Meter
	language  atomic.Pointer[string]
	latest    atomic.Pointer[Snapshot]

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	closed bool
	jobs   chan job
	done   chan struct{}

	// at most one pending refresh, kept out of the job queue
	refreshes chan job

	// worker-owned
	window    *transcript.Window
	detector  *phase.Detector
	tracker   *checklist.Tracker
	extractor *clientcard.Extractor
	stage     phase.State
	items     checklist.State
	card      clientcard.State
}

// New starts a session over a frozen copy of structure and fields.
func New(cfg Config, deps Deps, structure callplan.CallStructure, fields []callplan.FieldSpec) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Trail == nil {
		deps.Trail = eventlog.New(nil, eventlog.DefaultCapacity)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}

	s := &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		deps:      deps,
		logger:    deps.Logger,
		trail:     deps.Trail,
		structure: structure.Clone(),
		fields:    callplan.CloneFields(fields),
		start:     deps.Now(),
		meter:     &costs.Meter{},
		jobs:      make(chan job, cfg.QueueSize),
		refreshes: make(chan job, 1),
		done:      make(chan struct{}),
		window:    transcript.NewWindow(cfg.TranscriptMaxWords),
		items:     checklist.State{},
		card:      clientcard.State{},
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	lang := cfg.Language
	s.language.Store(&lang)

	oracle := s.meter.WrapClassifier(deps.Oracle)
	s.detector = phase.NewDetector(oracle, cfg.Phase)
	s.tracker = checklist.NewTracker(oracle, verify.New(oracle, cfg.ChecklistVerify), cfg.Checklist)
	s.extractor = clientcard.NewExtractor(oracle, verify.New(oracle, cfg.CardVerify), cfg.Card)
	s.stage = phase.Initial(s.structure, s.start)

	s.latest.Store(s.snapshot(SnapshotUpdate, s.start))
	s.trail.Record(s.id, eventlog.EventSessionStarted, map[string]any{
		"stages": len(s.structure),
		"fields": len(s.fields),
	})
	deps.Metrics.RecordSessionStart()
	s.logger.Printf("session %s: started", s.id)

	go s.run()
	return s
}

func (s *Session) ID() string { return s.id }
func (s *Session) StartedAt() time.Time { return s.start }
func (s *Session) Usage() costs.Usage { return s.meter.Usage() }
func (s *Session) Latest() *Snapshot { return s.latest.Load() }
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Language() string { return *s.language.Load() }

// SetLanguage changes the transcription language for windows not yet transcribed.
func (s *Session) SetLanguage(lang string) {
	if lang == "" || lang == s.Language() {
		return
	}
	s.language.Store(&lang)
	s.trail.Record(s.id, eventlog.EventLanguageChanged, map[string]any{"language": lang})
	s.logger.Printf("session %s: language set to %s", s.id, lang)
}

// SubmitAudio queues a drained PCM window for transcription and analysis.
func (s *Session) SubmitAudio(pcm []byte) (<-chan Result, error) {
	return s.submit(job{kind: jobAudio, pcm: pcm})
}

// SubmitText queues already transcribed text for analysis.
func (s *Session) SubmitText(text string) (<-chan Result, error) {
	return s.submit(job{kind: jobText, text: text})
}

// CompleteItem marks a checklist item done on behalf of an observer.
func (s *Session) CompleteItem(itemID string) (<-chan Result, error) {
	return s.submit(job{kind: jobCompleteItem, id: itemID})
}

// FillField writes an unfilled client card field on behalf of an observer.
func (s *Session) FillField(fieldID, value string) (<-chan Result, error) {
	return s.submit(job{kind: jobFillField, id: fieldID, value: value})
}

// Refresh republishes the current state so elapsed time and stage timing
// advance for observers while no new audio arrives. Refreshes never occupy
// the job queue; while one is pending, further calls return ErrBusy.
func (s *Session) Refresh() (<-chan Result, error) {
	return s.enqueue(s.refreshes, job{kind: jobRefresh})
}

func (s *Session) submit(j job) (<-chan Result, error) {
	return s.enqueue(s.jobs, j)
}

func (s *Session) enqueue(q chan job, j job) (<-chan Result, error) {
	j.result = make(chan Result, 1)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	select {
	case q <- j:
		return j.result, nil
	default:
		return nil, ErrBusy
	}
}

// Pending is the number of queued jobs not yet picked up by the worker.
func (s *Session) Pending() int { return len(s.jobs) }

// Close ends the session and waits for the worker to exit. Queued jobs
// resolve with ErrClosed.
func (s *Session) Close() {
	s.end("closed", eventlog.EventSessionEnded)
}

// Supersede ends the session because a newer one replaced it.
func (s *Session) Supersede() {
	s.end("superseded", eventlog.EventSessionSuperseded)
}

func (s *Session) end(status string, evt eventlog.EventType) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.cancel()
	close(s.jobs)
	s.mu.Unlock()

	<-s.done

	u := s.meter.Usage()
	dur := s.deps.Now().Sub(s.start)
	s.trail.Record(s.id, evt, map[string]any{
		"duration_seconds": int(dur.Seconds()),
		"audio_seconds":    u.AudioSeconds,
		"oracle_calls":     u.OracleCalls,
	})
	s.deps.Metrics.RecordSessionEnd(status)
	s.logger.Printf("session %s: %s", s.id, status)

	if s.deps.OnEnd != nil {
		s.deps.OnEnd(Summary{
			ID:        s.id,
			Status:    status,
			StartedAt: s.start,
			Duration:  dur,
			Usage:     u,
			Final:     s.Latest(),
		})
	}
}

func (s *Session) run() {
	defer close(s.done)
	for {
		var (
			j  job
			ok bool
		)
		select {
		case j, ok = <-s.jobs:
		case j = <-s.refreshes:
			ok = true
		}
		if !ok {
			break
		}
		if s.ctx.Err() != nil {
			j.result <- Result{Err: ErrClosed}
			continue
		}
		j.result <- s.apply(j)
	}
	// no submissions after close; resolve a refresh left behind
	select {
	case j := <-s.refreshes:
		j.result <- Result{Err: ErrClosed}
	default:
	}
}

func (s *Session) apply(j job) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetTag("session_id", s.id)
			hub.RecoverWithContext(s.ctx, r)
			s.trail.Record(s.id, eventlog.EventWorkerPanic, map[string]any{"panic": fmt.Sprint(r)})
			s.logger.Printf("session %s: recovered worker panic: %v", s.id, r)
			res = Result{Err: fmt.Errorf("session worker panic: %v", r)}
		}
	}()

	switch j.kind {
	case jobAudio:
		return s.processAudio(j.pcm)
	case jobText:
		return s.analyze(j.text)
	case jobCompleteItem:
		return s.completeItem(j.id)
	case jobFillField:
		return s.fillField(j.id, j.value)
	case jobRefresh:
		return Result{Snapshot: s.publish(s.deps.Now())}
	}
	return Result{Err: fmt.Errorf("unknown job kind %d", j.kind)}
}

func (s *Session) processAudio(pcm []byte) Result {
	dur := s.cfg.Audio.Duration(len(pcm))
	if !audio.Viable(s.cfg.Audio, pcm, s.cfg.MinAudio) {
		s.trail.Record(s.id, eventlog.EventWindowDiscarded, map[string]any{
			"reason":     "too_short",
			"duration_s": dur.Seconds(),
		})
		s.deps.Metrics.RecordWindowDropped("too_short")
		return Result{Snapshot: s.Latest()}
	}
	if s.deps.Transcriber == nil {
		return Result{Err: errors.New("no transcriber configured")}
	}

	s.meter.AddAudio(dur)
	s.deps.Metrics.RecordAudio(dur)

	wav, err := audio.EncodeWAV(pcm, s.cfg.Audio)
	if err != nil {
		return Result{Err: fmt.Errorf("encode window: %w", err)}
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.TranscribeTimeout)
	text, err := s.deps.Transcriber.Transcribe(ctx, wav, s.Language())
	cancel()
	if err != nil {
		s.trail.Record(s.id, eventlog.EventTranscriptionError, map[string]any{"error": err.Error()})
		return Result{Err: fmt.Errorf("transcribe: %w", err)}
	}
	if text == "" {
		return Result{Snapshot: s.Latest()}
	}
	return s.analyze(text)
}

// analyze appends text and runs stage detection, checklist evaluation and
// client card extraction in that order, then publishes a snapshot.
func (s *Session) analyze(text string) Result {
	if !s.window.Append(text) {
		return Result{Snapshot: s.Latest()}
	}
	s.trail.Record(s.id, eventlog.EventTranscription, map[string]any{
		"text":  transcript.Tail(text, 200),
		"words": s.window.Words(),
	})

	now := s.deps.Now()
	res := Result{Transcript: text}

	next, stage := s.detector.Detect(s.ctx, s.stage, s.structure, s.window.Tail(s.cfg.PhaseContextChars), now.Sub(s.start), now)
	s.stage = next
	res.Stage = &stage
	s.recordStage(stage)

	items, itemOutcomes := s.tracker.Evaluate(s.ctx, s.items, s.structure, s.window.Tail(s.cfg.ChecklistContextChars), now)
	s.items = items
	res.Checklist = itemOutcomes
	s.recordChecklist(itemOutcomes)

	card, cardOutcomes := s.extractor.Extract(s.ctx, s.card, s.fields, s.window.Tail(s.cfg.CardContextChars), now)
	s.card = card
	res.Card = cardOutcomes
	s.recordCard(cardOutcomes)

	res.Snapshot = s.publish(now)
	return res
}

func (s *Session) completeItem(id string) Result {
	now := s.deps.Now()
	next, err := checklist.MarkCompleted(s.items, s.structure, id, now)
	if err != nil {
		return Result{Err: err}
	}
	s.items = next
	s.trail.Record(s.id, eventlog.EventManualOverride, map[string]any{"item_id": id})
	return Result{Snapshot: s.publish(now)}
}

func (s *Session) fillField(id, value string) Result {
	now := s.deps.Now()
	next, err := clientcard.Fill(s.card, s.fields, id, value, now)
	if err != nil {
		return Result{Err: err}
	}
	s.card = next
	s.trail.Record(s.id, eventlog.EventManualOverride, map[string]any{"field_id": id, "value": value})
	return Result{Snapshot: s.publish(now)}
}

func (s *Session) recordStage(o phase.Outcome) {
	s.trail.Record(s.id, eventlog.EventStageDetection, map[string]any{
		"stage":      o.StageID,
		"detected":   o.Detected,
		"source":     string(o.Source),
		"confidence": o.Confidence,
		"reason":     o.Reason,
	})
	if o.Changed {
		s.trail.Record(s.id, eventlog.EventStageChanged, map[string]any{"from": o.Previous, "to": o.StageID})
		s.deps.Metrics.RecordStageTransition()
		s.logger.Printf("session %s: stage %s -> %s (%s)", s.id, o.Previous, o.StageID, o.Source)
	}
}

func (s *Session) recordChecklist(outcomes []checklist.Outcome) {
	for _, o := range outcomes {
		switch o.Status {
		case checklist.StatusCompleted:
			s.trail.Record(s.id, eventlog.EventChecklistCompleted, map[string]any{
				"item_id":    o.ItemID,
				"evidence":   o.Evidence,
				"confidence": o.Confidence,
				"cached":     o.Cached,
			})
			s.deps.Metrics.RecordItemCompleted()
		case checklist.StatusRejected:
			s.deps.Metrics.RecordRejection("checklist", string(o.Guard))
			if o.Guard == verify.GuardContext {
				continue
			}
			s.trail.Record(s.id, eventlog.EventChecklistRejected, map[string]any{
				"item_id":  o.ItemID,
				"guard":    string(o.Guard),
				"reason":   o.Reason,
				"evidence": o.Evidence,
			})
		case checklist.StatusDuplicate:
			s.trail.Record(s.id, eventlog.EventDuplicateEvidence, map[string]any{
				"item_id":      o.ItemID,
				"duplicate_of": o.DuplicateOf,
				"evidence":     o.Evidence,
			})
			s.deps.Metrics.RecordRejection("checklist", "duplicate")
		case checklist.StatusOracleError:
			s.trail.Record(s.id, eventlog.EventOracleError, map[string]any{"item_id": o.ItemID, "error": o.Reason})
		}
	}
}

func (s *Session) recordCard(outcomes []clientcard.Outcome) {
	for _, o := range outcomes {
		switch o.Status {
		case clientcard.StatusFilled:
			s.trail.Record(s.id, eventlog.EventCardFieldFilled, map[string]any{
				"field_id":   o.FieldID,
				"value":      o.Value,
				"confidence": o.Confidence,
			})
			s.deps.Metrics.RecordFieldFilled()
		case clientcard.StatusRejected:
			s.trail.Record(s.id, eventlog.EventCardFieldRejected, map[string]any{
				"field_id": o.FieldID,
				"value":    o.Value,
				"guard":    string(o.Guard),
				"reason":   o.Reason,
			})
			s.deps.Metrics.RecordRejection("client_card", string(o.Guard))
		case clientcard.StatusOracleError:
			s.trail.Record(s.id, eventlog.EventOracleError, map[string]any{"task": "client_card", "error": o.Reason})
		}
	}
}

func (s *Session) snapshot(kind string, now time.Time) *Snapshot {
	return buildSnapshot(kind, view{
		sessionID:    s.id,
		structure:    s.structure,
		fields:       s.fields,
		checklist:    s.items,
		card:         s.card,
		stageID:      s.stage.StageID,
		elapsed:      now.Sub(s.start),
		stageElapsed: now.Sub(s.stage.EnteredAt),
		preview:      s.window.Tail(s.cfg.PreviewChars),
		trail:        s.trail.RecentFor(s.id, s.cfg.TrailInSnapshot),
	})
}

// publish stores a fresh snapshot and pushes it to observers. Delivery uses
// its own deadline so a closing session does not cut it short.
func (s *Session) publish(now time.Time) *Snapshot {
	snap := s.snapshot(SnapshotUpdate, now)
	s.latest.Store(snap)
	if s.deps.Hub == nil {
		return snap
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BroadcastTimeout)
	defer cancel()
	if _, err := s.deps.Hub.Broadcast(ctx, snap); err != nil {
		s.logger.Printf("session %s: broadcast: %v", s.id, err)
	}
	return snap
}
