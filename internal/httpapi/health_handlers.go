package httpapi

import (
	"net/http"
	"time"

	"github.com/gunpashgun/SalesBestFriend/internal/costs"
)

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Router) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	if r.sessions.IsDraining() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("draining"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Router) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "call-progress-tracker",
		"endpoints": map[string]string{
			"ingest": "/ingest",
			"coach":  "/coach",
			"health": "/health",
			"config": "/api/config/call-structure",
		},
	})
}

type liveSessionInfo struct {
	ID             string           `json:"id"`
	StartedAt      time.Time        `json:"startedAt"`
	Language       string           `json:"language"`
	CurrentStageID string           `json:"currentStageId"`
	ElapsedSeconds int              `json:"callElapsedSeconds"`
	CompletedItems int              `json:"completedItems"`
	TotalItems     int              `json:"totalItems"`
	FilledFields   int              `json:"filledFields"`
	Usage          costs.Usage      `json:"usage"`
	EstimatedCosts costs.UsageCosts `json:"estimatedCosts"`
}

type healthResponse struct {
	Status           string           `json:"status"`
	IsLiveRecording  bool             `json:"isLiveRecording"`
	CoachConnections int              `json:"coachConnections"`
	Language         string           `json:"language"`
	Draining         bool             `json:"draining"`
	Session          *liveSessionInfo `json:"session,omitempty"`
}

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:           "healthy",
		CoachConnections: r.hub.Count(),
		Language:         r.Language(),
		Draining:         r.sessions.IsDraining(),
	}

	if live := r.sessions.Live(); live != nil {
		resp.IsLiveRecording = true
		info := &liveSessionInfo{
			ID:        live.ID(),
			StartedAt: live.StartedAt(),
			Language:  live.Language(),
			Usage:     live.Usage(),
		}
		info.EstimatedCosts = costs.CalculateUsageCosts(info.Usage, costs.STTCentsPerMinute(r.cfg.STTProvider))
		if snap := live.Latest(); snap != nil {
			info.CurrentStageID = snap.CurrentStageID
			info.ElapsedSeconds = snap.CallElapsedSeconds
			info.CompletedItems, info.TotalItems, info.FilledFields = snap.Progress()
		}
		resp.Session = info
	}
	writeJSON(w, http.StatusOK, resp)
}
