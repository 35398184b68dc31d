package checklist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/llm"
	"github.com/gunpashgun/SalesBestFriend/internal/verify"
)

// scriptedOracle answers by task and records every prompt.
type scriptedOracle struct {
	mu      sync.Mutex
	replies map[llm.Task]string
	errs    map[llm.Task]error
	calls   []llm.Task
}

func (o *scriptedOracle) Classify(ctx context.Context, p llm.Prompt) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, p.Task)
	if err := o.errs[p.Task]; err != nil {
		return "", err
	}
	return o.replies[p.Task], nil
}

func (o *scriptedOracle) count(task llm.Task) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, c := range o.calls {
		if c == task {
			n++
		}
	}
	return n
}

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func oneItemStructure() callplan.CallStructure {
	return callplan.CallStructure{{
		ID: "s1", Name: "Profiling", DurationSeconds: 600,
		Items: []callplan.ChecklistItem{{ID: "ask_age", Kind: callplan.KindInquiry, Content: "ask age"}},
	}}
}

func newTracker(o llm.Classifier) *Tracker {
	return NewTracker(o, verify.New(o, verify.DefaultChecklistConfig()), DefaultConfig())
}

func TestEvaluateCompletesItemWithValidEvidence(t *testing.T) {
	o := &scriptedOracle{replies: map[llm.Task]string{
		llm.TaskChecklistItem: `{"completed":true,"confidence":0.95,"evidence":"Anaknya umur 8 tahun","reasoning":"age stated"}`,
		llm.TaskEvidenceCheck: `{"is_valid":true,"explanation":"ok"}`,
	}}
	tr := newTracker(o)

	st, outcomes := tr.Evaluate(context.Background(), State{}, oneItemStructure(), "Anaknya umur 8 tahun", t0)

	require.True(t, st["ask_age"].Completed)
	require.Equal(t, "Anaknya umur 8 tahun", st["ask_age"].Evidence)
	require.Equal(t, t0, st["ask_age"].LastCheckedAt)
	require.Len(t, outcomes, 1)
	require.Equal(t, StatusCompleted, outcomes[0].Status)
	require.Equal(t, 1, o.count(llm.TaskEvidenceCheck))
}

func TestEvaluateLowConfidenceSkipsSecondaryCheck(t *testing.T) {
	o := &scriptedOracle{replies: map[llm.Task]string{
		llm.TaskChecklistItem: `{"completed":true,"confidence":0.5,"evidence":"Anaknya umur 8 tahun"}`,
		llm.TaskEvidenceCheck: `{"is_valid":true}`,
	}}
	tr := newTracker(o)

	st, outcomes := tr.Evaluate(context.Background(), State{}, oneItemStructure(), "Anaknya umur 8 tahun", t0)

	require.False(t, st["ask_age"].Completed)
	require.Equal(t, t0, st["ask_age"].LastCheckedAt)
	require.Equal(t, StatusRejected, outcomes[0].Status)
	require.Equal(t, verify.GuardConfidence, outcomes[0].Guard)
	require.Zero(t, o.count(llm.TaskEvidenceCheck))
}

func TestEvaluateRejectsDuplicateEvidenceAcrossItems(t *testing.T) {
	structure := callplan.CallStructure{{
		ID: "s1", Name: "Profiling", DurationSeconds: 600,
		Items: []callplan.ChecklistItem{
			{ID: "a", Kind: callplan.KindInquiry, Content: "Tanyakan preferensi belajar anak"},
			{ID: "b", Kind: callplan.KindInquiry, Content: "Tanyakan aktivitas harian anak"},
		},
	}}
	o := &scriptedOracle{replies: map[llm.Task]string{
		llm.TaskChecklistItem: `{"completed":true,"confidence":0.9,"evidence":"Dia lebih senang belajar sambil praktek langsung"}`,
		llm.TaskEvidenceCheck: `{"is_valid":true}`,
	}}
	tr := newTracker(o)

	st, outcomes := tr.Evaluate(context.Background(), State{}, structure, "Dia lebih senang belajar sambil praktek langsung di rumah", t0)

	require.True(t, st["a"].Completed)
	require.False(t, st["b"].Completed)
	require.Equal(t, StatusDuplicate, outcomes[1].Status)
	require.Equal(t, "a", outcomes[1].DuplicateOf)
	require.Equal(t, t0, st["b"].LastCheckedAt)
}

func TestEvaluateRejectsGenericEvidenceForEveryItem(t *testing.T) {
	structure := callplan.CallStructure{{
		ID: "s1", Name: "Greeting", DurationSeconds: 600,
		Items: []callplan.ChecklistItem{
			{ID: "a", Kind: callplan.KindAssertion, Content: "Jelaskan tahapan trial class"},
			{ID: "b", Kind: callplan.KindAssertion, Content: "Jelaskan perbedaan dengan sekolah"},
		},
	}}
	o := &scriptedOracle{replies: map[llm.Task]string{
		llm.TaskChecklistItem: `{"completed":true,"confidence":0.95,"evidence":"Oke baik"}`,
		llm.TaskEvidenceCheck: `{"is_valid":true}`,
	}}
	tr := newTracker(o)

	st, outcomes := tr.Evaluate(context.Background(), State{}, structure, "Oke baik, kita mulai sekarang ya", t0)

	require.Zero(t, st.Completed())
	for _, out := range outcomes {
		require.Equal(t, StatusRejected, out.Status)
		require.Equal(t, verify.GuardEvidence, out.Guard)
	}
	require.Zero(t, o.count(llm.TaskEvidenceCheck))
}

func TestEvaluateCooldownSkipsOracle(t *testing.T) {
	o := &scriptedOracle{replies: map[llm.Task]string{
		llm.TaskChecklistItem: `{"completed":false,"confidence":0.2}`,
	}}
	tr := newTracker(o)
	text := "Kita bicara tentang jadwal kelas minggu depan"

	st, _ := tr.Evaluate(context.Background(), State{}, oneItemStructure(), text, t0)
	require.Equal(t, 1, o.count(llm.TaskChecklistItem))

	st, outcomes := tr.Evaluate(context.Background(), st, oneItemStructure(), text+" lagi", t0.Add(10*time.Second))
	require.Equal(t, 1, o.count(llm.TaskChecklistItem))
	require.Equal(t, StatusCoolingDown, outcomes[0].Status)
	require.Equal(t, t0, st["ask_age"].LastCheckedAt)

	_, _ = tr.Evaluate(context.Background(), st, oneItemStructure(), text+" lagi", t0.Add(31*time.Second))
	require.Equal(t, 2, o.count(llm.TaskChecklistItem))
}

func TestEvaluateUsesVerdictCacheForSameContext(t *testing.T) {
	o := &scriptedOracle{replies: map[llm.Task]string{
		llm.TaskChecklistItem: `{"completed":false,"confidence":0.2}`,
	}}
	tr := NewTracker(o, verify.New(o, verify.DefaultChecklistConfig()), Config{CacheTTL: time.Minute, OracleTimeout: time.Second})
	text := "Kita bicara tentang jadwal kelas minggu depan"

	st, _ := tr.Evaluate(context.Background(), State{}, oneItemStructure(), text, t0)
	_, outcomes := tr.Evaluate(context.Background(), st, oneItemStructure(), text, t0.Add(20*time.Second))

	require.Equal(t, 1, o.count(llm.TaskChecklistItem))
	require.True(t, outcomes[0].Cached)

	_, _ = tr.Evaluate(context.Background(), st, oneItemStructure(), text, t0.Add(2*time.Minute))
	require.Equal(t, 2, o.count(llm.TaskChecklistItem))
}

func TestEvaluateShortContextNeverCallsOracle(t *testing.T) {
	o := &scriptedOracle{}
	tr := newTracker(o)

	st, outcomes := tr.Evaluate(context.Background(), State{}, oneItemStructure(), "halo", t0)

	require.Empty(t, o.calls)
	require.Equal(t, verify.GuardContext, outcomes[0].Guard)
	require.Equal(t, t0, st["ask_age"].LastCheckedAt)
}

func TestEvaluateOracleErrorIsRejection(t *testing.T) {
	o := &scriptedOracle{errs: map[llm.Task]error{llm.TaskChecklistItem: errors.New("timeout")}}
	tr := newTracker(o)

	st, outcomes := tr.Evaluate(context.Background(), State{}, oneItemStructure(), "Anaknya umur 8 tahun", t0)

	require.False(t, st["ask_age"].Completed)
	require.Equal(t, StatusOracleError, outcomes[0].Status)
}

func TestEvaluateNeverRevertsCompletion(t *testing.T) {
	o := &scriptedOracle{replies: map[llm.Task]string{
		llm.TaskChecklistItem: `{"completed":false,"confidence":0.9}`,
	}}
	tr := newTracker(o)
	done := State{"ask_age": {Completed: true, Evidence: "Anaknya umur 8 tahun", CompletedAt: t0}}

	st, outcomes := tr.Evaluate(context.Background(), done, oneItemStructure(), "Pembicaraan lain yang cukup panjang", t0.Add(time.Hour))

	require.True(t, st["ask_age"].Completed)
	require.Empty(t, outcomes)
	require.Empty(t, o.calls)
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	o := &scriptedOracle{replies: map[llm.Task]string{llm.TaskChecklistItem: `{"completed":false}`}}
	in := State{}
	_, _ = newTracker(o).Evaluate(context.Background(), in, oneItemStructure(), "Anaknya umur 8 tahun", t0)
	require.Empty(t, in)
}

func TestMarkCompleted(t *testing.T) {
	st, err := MarkCompleted(State{}, oneItemStructure(), "ask_age", t0)
	require.NoError(t, err)
	require.True(t, st["ask_age"].Completed)

	_, err = MarkCompleted(st, oneItemStructure(), "nope", t0)
	require.ErrorIs(t, err, ErrUnknownItem)
}
