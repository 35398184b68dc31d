package session

import (
	"time"

	"github.com/gunpashgun/SalesBestFriend/internal/callplan"
	"github.com/gunpashgun/SalesBestFriend/internal/checklist"
	"github.com/gunpashgun/SalesBestFriend/internal/clientcard"
	"github.com/gunpashgun/SalesBestFriend/internal/eventlog"
)

const (
	SnapshotInitial = "initial"
	SnapshotUpdate  = "update"
)

// Snapshot is the full picture of call progress pushed to observers.
type Snapshot struct {
	Type                string                   `json:"type"`
	SessionID           string                   `json:"sessionId,omitempty"`
	CallElapsedSeconds  int                      `json:"callElapsedSeconds"`
	StageElapsedSeconds int                      `json:"stageElapsedSeconds"`
	CurrentStageID      string                   `json:"currentStageId"`
	Stages              []StageView              `json:"stages"`
	ClientCard          map[string]CardFieldView `json:"clientCard"`
	TranscriptPreview   string                   `json:"transcriptPreview"`
	DebugLog            []eventlog.Entry         `json:"debugLog"`
}

type StageView struct {
	ID                 string                `json:"id"`
	Name               string                `json:"name"`
	StartOffsetSeconds int                   `json:"startOffsetSeconds"`
	DurationSeconds    int                   `json:"durationSeconds"`
	IsCurrent          bool                  `json:"isCurrent"`
	TimingStatus       callplan.TimingStatus `json:"timingStatus"`
	TimingMessage      string                `json:"timingMessage"`
	Items              []ItemView            `json:"items"`
}

type ItemView struct {
	ID            string            `json:"id"`
	Type          callplan.ItemKind `json:"type"`
	Content       string            `json:"content"`
	Completed     bool              `json:"completed"`
	Evidence      string            `json:"evidence"`
	LastCheckedAt *time.Time        `json:"lastCheckedAt,omitempty"`
}

type CardFieldView struct {
	Label       string     `json:"label"`
	Value       string     `json:"value"`
	Evidence    string     `json:"evidence,omitempty"`
	Confidence  float64    `json:"confidence,omitempty"`
	ExtractedAt *time.Time `json:"extractedAt,omitempty"`
}

// WithType returns a shallow copy of s carrying a different message type.
func (s *Snapshot) WithType(kind string) *Snapshot {
	c := *s
	c.Type = kind
	return &c
}

// Progress counts completed items, total items and filled card fields.
func (s *Snapshot) Progress() (completed, total, filled int) {
	for _, st := range s.Stages {
		for _, it := range st.Items {
			total++
			if it.Completed {
				completed++
			}
		}
	}
	for _, f := range s.ClientCard {
		if f.Value != "" {
			filled++
		}
	}
	return completed, total, filled
}

// view is the worker-owned state a snapshot is built from.
type view struct {
	sessionID    string
	structure    callplan.CallStructure
	fields       []callplan.FieldSpec
	checklist    checklist.State
	card         clientcard.State
	stageID      string
	elapsed      time.Duration
	stageElapsed time.Duration
	preview      string
	trail        []eventlog.Entry
}

func buildSnapshot(kind string, v view) *Snapshot {
	snap := &Snapshot{
		Type:                kind,
		SessionID:           v.sessionID,
		CallElapsedSeconds:  int(v.elapsed.Seconds()),
		StageElapsedSeconds: int(v.stageElapsed.Seconds()),
		CurrentStageID:      v.stageID,
		Stages:              make([]StageView, 0, len(v.structure)),
		ClientCard:          make(map[string]CardFieldView, len(v.fields)),
		TranscriptPreview:   v.preview,
		DebugLog:            v.trail,
	}
	if snap.DebugLog == nil {
		snap.DebugLog = []eventlog.Entry{}
	}

	for _, stage := range v.structure {
		status, msg := callplan.Timing(stage, v.elapsed)
		sv := StageView{
			ID:                 stage.ID,
			Name:               stage.Name,
			StartOffsetSeconds: stage.StartOffsetSeconds,
			DurationSeconds:    stage.DurationSeconds,
			IsCurrent:          stage.ID == v.stageID,
			TimingStatus:       status,
			TimingMessage:      msg,
			Items:              make([]ItemView, 0, len(stage.Items)),
		}
		for _, item := range stage.Items {
			st := v.checklist[item.ID]
			iv := ItemView{
				ID:        item.ID,
				Type:      item.Kind,
				Content:   item.Content,
				Completed: st.Completed,
				Evidence:  st.Evidence,
			}
			if !st.LastCheckedAt.IsZero() {
				t := st.LastCheckedAt
				iv.LastCheckedAt = &t
			}
			sv.Items = append(sv.Items, iv)
		}
		snap.Stages = append(snap.Stages, sv)
	}

	for _, f := range v.fields {
		fv := v.card[f.ID]
		cv := CardFieldView{Label: f.Label, Value: fv.Value, Evidence: fv.Evidence, Confidence: fv.Confidence}
		if !fv.ExtractedAt.IsZero() {
			t := fv.ExtractedAt
			cv.ExtractedAt = &t
		}
		snap.ClientCard[f.ID] = cv
	}
	return snap
}

// InitialSnapshot describes a call that has not started: first stage current,
// nothing completed, empty card.
func InitialSnapshot(structure callplan.CallStructure, fields []callplan.FieldSpec) *Snapshot {
	v := view{structure: structure, fields: fields}
	if len(structure) > 0 {
		v.stageID = structure[0].ID
	}
	snap := buildSnapshot(SnapshotInitial, v)
	for i := range snap.Stages {
		snap.Stages[i].IsCurrent = false
		snap.Stages[i].TimingStatus = callplan.TimingNotStarted
		snap.Stages[i].TimingMessage = "Not started"
	}
	return snap
}
