package phase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/llm"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

var longText = strings.Repeat("Kita bahas harga paket private dan jadwal kelas. ", 4)

func replying(reply string, err error) llm.Classifier {
	return llm.ClassifierFunc(func(ctx context.Context, p llm.Prompt) (string, error) {
		return reply, err
	})
}

func TestInitial(t *testing.T) {
	st := Initial(callplan.DefaultStructure(), t0)
	require.Equal(t, "stage_greeting", st.StageID)
	require.Equal(t, t0, st.EnteredAt)
	require.Equal(t, State{}, Initial(nil, t0))
}

func TestDetectConfidentChange(t *testing.T) {
	d := NewDetector(replying(`{"stage_id":"stage_negotiation","confidence":0.85}`, nil), DefaultConfig())
	st := Initial(callplan.DefaultStructure(), t0)

	next, out := d.Detect(context.Background(), st, callplan.DefaultStructure(), longText, 5*time.Minute, t0.Add(5*time.Minute))

	require.Equal(t, "stage_negotiation", next.StageID)
	require.Equal(t, t0.Add(5*time.Minute), next.EnteredAt)
	require.True(t, out.Changed)
	require.Equal(t, SourceOracle, out.Source)
}

func TestDetectLowConfidenceKeepsStage(t *testing.T) {
	d := NewDetector(replying(`{"stage_id":"stage_negotiation","confidence":0.4}`, nil), DefaultConfig())
	st := State{StageID: "stage_profiling", EnteredAt: t0}

	next, out := d.Detect(context.Background(), st, callplan.DefaultStructure(), longText, 50*time.Minute, t0.Add(50*time.Minute))

	require.Equal(t, st, next)
	require.False(t, out.Changed)
	require.Equal(t, SourceHysteresis, out.Source)
}

func TestDetectAllowsBackwardMove(t *testing.T) {
	d := NewDetector(replying(`{"stage_id":"stage_profiling","confidence":0.9}`, nil), DefaultConfig())
	st := State{StageID: "stage_presentation", EnteredAt: t0}

	next, _ := d.Detect(context.Background(), st, callplan.DefaultStructure(), longText, 40*time.Minute, t0.Add(40*time.Minute))
	require.Equal(t, "stage_profiling", next.StageID)
}

func TestDetectFallsBackToElapsedTime(t *testing.T) {
	tests := []struct {
		name   string
		oracle llm.Classifier
		text   string
	}{
		{name: "oracle error", oracle: replying("", errors.New("timeout")), text: longText},
		{name: "unknown stage", oracle: replying(`{"stage_id":"stage_dessert","confidence":0.99}`, nil), text: longText},
		{name: "malformed", oracle: replying(`stage two`, nil), text: longText},
		{name: "short transcript", oracle: replying(`{"stage_id":"stage_closure","confidence":0.99}`, nil), text: "halo"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDetector(tc.oracle, DefaultConfig())
			st := Initial(callplan.DefaultStructure(), t0)

			next, out := d.Detect(context.Background(), st, callplan.DefaultStructure(), tc.text, 4*time.Minute, t0.Add(4*time.Minute))

			require.Equal(t, "stage_profiling", next.StageID)
			require.Equal(t, SourceTimeFallback, out.Source)
			require.True(t, out.Changed)
		})
	}
}

func TestDetectUnchangedKeepsEnteredAt(t *testing.T) {
	d := NewDetector(replying(`{"stage_id":"stage_greeting","confidence":0.9}`, nil), DefaultConfig())
	st := Initial(callplan.DefaultStructure(), t0)

	next, out := d.Detect(context.Background(), st, callplan.DefaultStructure(), longText, time.Minute, t0.Add(time.Minute))
	require.Equal(t, t0, next.EnteredAt)
	require.False(t, out.Changed)
}
