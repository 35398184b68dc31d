package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gunpashgun/SalesBestFriend/internal/session"
)

// Discord is a simple Discord webhook notifier.
type Discord struct {
	webhookURL string
	logger     *log.Logger
	client     *http.Client
}

// NewDiscord creates a new Discord notifier. If webhookURL is empty,
// notifications are silently skipped.
func NewDiscord(webhookURL string, logger *log.Logger) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		logger:     logger,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled returns true if the webhook is configured.
func (d *Discord) Enabled() bool {
	return d.webhookURL != ""
}

// discordMessage is the payload for Discord webhook.
type discordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// send posts a message to the webhook. Errors are logged and returned.
func (d *Discord) send(ctx context.Context, msg discordMessage) error {
	if !d.Enabled() {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("discord: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Printf("discord: failed to send webhook: %v", err)
		return fmt.Errorf("discord: send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		d.logger.Printf("discord: webhook returned status %d", resp.StatusCode)
		return fmt.Errorf("discord: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NotifyCallSummary posts the outcome of a finished call: stages reached,
// checklist coverage and what was learned about the client.
func (d *Discord) NotifyCallSummary(ctx context.Context, sum session.Summary) error {
	if !d.Enabled() || sum.Final == nil {
		return nil
	}
	completed, total, filled := sum.Final.Progress()

	color := 0xFFA500 // Orange
	if total > 0 && completed*10 >= total*8 {
		color = 0x00FF00 // Green
	}

	fields := []embedField{
		{Name: "Duration", Value: sum.Duration.Round(time.Second).String(), Inline: true},
		{Name: "Checklist", Value: fmt.Sprintf("%d/%d", completed, total), Inline: true},
		{Name: "Client card", Value: fmt.Sprintf("%d/%d", filled, len(sum.Final.ClientCard)), Inline: true},
		{Name: "Last stage", Value: stageName(sum.Final), Inline: true},
	}
	if missed := missedItems(sum.Final, 5); missed != "" {
		fields = append(fields, embedField{Name: "Missed", Value: missed})
	}

	msg := discordMessage{
		Embeds: []discordEmbed{{
			Title:       "Call finished",
			Description: fmt.Sprintf("Session `%s` ended (%s)", sum.ID, sum.Status),
			Color:       color,
			Fields:      fields,
			Timestamp:   sum.StartedAt.Add(sum.Duration).UTC().Format(time.RFC3339),
		}},
	}
	return d.send(ctx, msg)
}

func stageName(snap *session.Snapshot) string {
	for _, st := range snap.Stages {
		if st.ID == snap.CurrentStageID {
			return st.Name
		}
	}
	return "-"
}

// missedItems lists up to n open checklist items from stages the call has
// already reached.
func missedItems(snap *session.Snapshot, n int) string {
	var out []string
	for _, st := range snap.Stages {
		for _, it := range st.Items {
			if !it.Completed && len(out) < n {
				out = append(out, "• "+it.Content)
			}
		}
		if st.ID == snap.CurrentStageID {
			break
		}
	}
	return strings.Join(out, "\n")
}
