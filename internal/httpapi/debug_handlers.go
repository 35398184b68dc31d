package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gunpashgun/SalesBestFriend/internal/checklist"
	"github.com/gunpashgun/SalesBestFriend/internal/clientcard"
	"github.com/gunpashgun/SalesBestFriend/internal/session"
)

const defaultDebugEntries = 100

func (r *Router) handleDebugLog(w http.ResponseWriter, req *http.Request) {
	n := defaultDebugEntries
	if v := req.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"log":   r.trail.Recent(n),
		"total": r.trail.Len(),
	})
}

type transcriptOutcome struct {
	Completed []string          `json:"completedItems"`
	Rejected  map[string]string `json:"rejectedItems,omitempty"`
	Filled    map[string]string `json:"filledFields,omitempty"`
	StageID   string            `json:"stageId"`
	Source    string            `json:"stageSource,omitempty"`
}

type transcriptResponse struct {
	Success  bool              `json:"success"`
	Live     bool              `json:"live"`
	Outcome  transcriptOutcome `json:"outcome"`
	Snapshot *session.Snapshot `json:"snapshot"`
}

// handleProcessTranscript runs a text transcript through the same pipeline
// as live audio. With a live session the text is appended to it; otherwise a
// one-off session analyses it and is discarded.
func (r *Router) handleProcessTranscript(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, r.cfg.MaxBodyBytes)
	if err := req.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	text := strings.TrimSpace(req.PostFormValue("transcript"))
	if text == "" {
		writeError(w, http.StatusBadRequest, "transcript is required")
		return
	}
	if lang := req.PostFormValue("language"); lang != "" {
		r.setLanguage(lang)
	}

	sess := r.sessions.Live()
	live := sess != nil
	if !live {
		sess = r.newScratchSession()
		defer sess.Close()
	}

	ch, err := sess.SubmitText(text)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}

	var res session.Result
	select {
	case res = <-ch:
	case <-req.Context().Done():
		return
	case <-time.After(2 * time.Minute):
		writeError(w, http.StatusGatewayTimeout, "analysis timed out")
		return
	}
	if res.Err != nil {
		r.logger.Printf("process_transcript: %v", res.Err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, transcriptResponse{
		Success:  true,
		Live:     live,
		Outcome:  summarize(res),
		Snapshot: res.Snapshot,
	})
}

func summarize(res session.Result) transcriptOutcome {
	out := transcriptOutcome{Completed: []string{}}
	if res.Stage != nil {
		out.StageID = res.Stage.StageID
		out.Source = string(res.Stage.Source)
	}
	for _, o := range res.Checklist {
		switch o.Status {
		case checklist.StatusCompleted:
			out.Completed = append(out.Completed, o.ItemID)
		case checklist.StatusRejected, checklist.StatusDuplicate:
			if out.Rejected == nil {
				out.Rejected = map[string]string{}
			}
			out.Rejected[o.ItemID] = o.Reason
		}
	}
	for _, o := range res.Card {
		if o.Status == clientcard.StatusFilled {
			if out.Filled == nil {
				out.Filled = map[string]string{}
			}
			out.Filled[o.FieldID] = o.Value
		}
	}
	return out
}
