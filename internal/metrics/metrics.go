// Package metrics exposes Prometheus metrics for the tracking pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gunpashgun/SalesBestFriend/internal/llm"
	"github.com/gunpashgun/SalesBestFriend/internal/stt"
)

// Metrics holds all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	OracleCallsTotal    *prometheus.CounterVec
	OracleDuration      *prometheus.HistogramVec
	TranscriptionsTotal *prometheus.CounterVec
	TranscribeDuration  prometheus.Histogram
	AudioSecondsTotal   prometheus.Counter
	WindowsDropped      *prometheus.CounterVec

	RejectionsTotal  *prometheus.CounterVec
	ItemsCompleted   prometheus.Counter
	FieldsFilled     prometheus.Counter
	StageTransitions prometheus.Counter

	SessionsActive  prometheus.Gauge
	SessionsTotal   *prometheus.CounterVec
	ListenersActive prometheus.Gauge
	BroadcastsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered on its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "callcoach"
	}
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		OracleCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "oracle_calls_total", Help: "Oracle calls by task and result",
		}, []string{"task", "result"}),
		OracleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "oracle_duration_seconds", Help: "Oracle call latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"task"}),
		TranscriptionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "transcriptions_total", Help: "Transcription requests by result",
		}, []string{"result"}),
		TranscribeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "transcribe_duration_seconds", Help: "Transcription latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		AudioSecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "audio_seconds_total", Help: "Audio seconds submitted for transcription",
		}),
		WindowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "audio_windows_dropped_total", Help: "Audio windows not transcribed",
		}, []string{"reason"}),
		RejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "claim_rejections_total", Help: "Rejected oracle claims by kind and guard",
		}, []string{"kind", "guard"}),
		ItemsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "checklist_items_completed_total", Help: "Checklist items completed",
		}),
		FieldsFilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "client_card_fields_filled_total", Help: "Client card fields filled",
		}),
		StageTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "stage_transitions_total", Help: "Stage changes",
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sessions_active", Help: "Number of active ingest sessions",
		}),
		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sessions_total", Help: "Ingest sessions by how they ended",
		}, []string{"status"}),
		ListenersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "listeners_active", Help: "Connected observers",
		}),
		BroadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "broadcast_deliveries_total", Help: "Snapshot deliveries by result",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.OracleCallsTotal,
		m.OracleDuration,
		m.TranscriptionsTotal,
		m.TranscribeDuration,
		m.AudioSecondsTotal,
		m.WindowsDropped,
		m.RejectionsTotal,
		m.ItemsCompleted,
		m.FieldsFilled,
		m.StageTransitions,
		m.SessionsActive,
		m.SessionsTotal,
		m.ListenersActive,
		m.BroadcastsTotal,
	)
	return m
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordRejection(kind, guard string) {
	if m == nil {
		return
	}
	if guard == "" {
		guard = "plausibility"
	}
	m.RejectionsTotal.WithLabelValues(kind, guard).Inc()
}

func (m *Metrics) RecordItemCompleted() {
	if m != nil {
		m.ItemsCompleted.Inc()
	}
}

func (m *Metrics) RecordFieldFilled() {
	if m != nil {
		m.FieldsFilled.Inc()
	}
}

func (m *Metrics) RecordStageTransition() {
	if m != nil {
		m.StageTransitions.Inc()
	}
}

func (m *Metrics) RecordWindowDropped(reason string) {
	if m != nil {
		m.WindowsDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) RecordAudio(d time.Duration) {
	if m != nil {
		m.AudioSecondsTotal.Add(d.Seconds())
	}
}

func (m *Metrics) RecordSessionStart() {
	if m != nil {
		m.SessionsActive.Inc()
	}
}

func (m *Metrics) RecordSessionEnd(status string) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	m.SessionsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) SetListeners(n int) {
	if m != nil {
		m.ListenersActive.Set(float64(n))
	}
}

func (m *Metrics) RecordDelivery(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.BroadcastsTotal.WithLabelValues(result).Inc()
}

// InstrumentClassifier records count and latency of every oracle call.
func (m *Metrics) InstrumentClassifier(next llm.Classifier) llm.Classifier {
	if m == nil {
		return next
	}
	return llm.ClassifierFunc(func(ctx context.Context, p llm.Prompt) (string, error) {
		start := time.Now()
		out, err := next.Classify(ctx, p)
		m.OracleDuration.WithLabelValues(string(p.Task)).Observe(time.Since(start).Seconds())
		m.OracleCallsTotal.WithLabelValues(string(p.Task), result(err)).Inc()
		return out, err
	})
}

// InstrumentTranscriber records count and latency of every transcription.
func (m *Metrics) InstrumentTranscriber(next stt.Transcriber) stt.Transcriber {
	if m == nil {
		return next
	}
	return stt.TranscriberFunc(func(ctx context.Context, wav []byte, language string) (string, error) {
		start := time.Now()
		text, err := next.Transcribe(ctx, wav, language)
		m.TranscribeDuration.Observe(time.Since(start).Seconds())
		res := result(err)
		if err == nil && text == "" {
			res = "empty"
		}
		m.TranscriptionsTotal.WithLabelValues(res).Inc()
		return text, err
	})
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
