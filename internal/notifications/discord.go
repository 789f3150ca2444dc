package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joyfuladam/voskcaption/internal/stats"
)

// Discord is a simple Discord webhook notifier for the AV team's ops
// channel.
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

// send posts a message to Discord webhook asynchronously.
// Errors are logged but don't affect caller.
func (d *Discord) send(ctx context.Context, msg discordMessage) {
	if !d.Enabled() {
		return
	}

	go func() {
		body, err := json.Marshal(msg)
		if err != nil {
			d.logger.Printf("discord: failed to marshal message: %v", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", d.webhookURL, bytes.NewReader(body))
		if err != nil {
			d.logger.Printf("discord: failed to create request: %v", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			d.logger.Printf("discord: failed to send webhook: %v", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			d.logger.Printf("discord: webhook returned status %d", resp.StatusCode)
		}
	}()
}

// NotifySessionStarted announces that captioning has begun.
func (d *Discord) NotifySessionStarted(ctx context.Context, provider, language string) {
	msg := discordMessage{
		Embeds: []discordEmbed{{
			Title:       "Captions started",
			Description: fmt.Sprintf("Live captioning is running (`%s`, %s).", provider, language),
			Color:       0x00FF00, // Green
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
	d.send(ctx, msg)
}

// NotifySessionStopped announces the end of a captioning session,
// with its summary when one was recorded.
func (d *Discord) NotifySessionStopped(ctx context.Context, summary *stats.SessionStats) {
	embed := discordEmbed{
		Title:     "Captions stopped",
		Color:     0xFFA500, // Orange
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if summary != nil {
		duration := time.Duration(summary.DurationSeconds) * time.Second
		embed.Fields = []embedField{
			{Name: "Duration", Value: duration.String(), Inline: true},
			{Name: "Lines", Value: fmt.Sprintf("%d", summary.FinalCount), Inline: true},
			{Name: "Words", Value: fmt.Sprintf("%d", summary.WordCount), Inline: true},
			{Name: "Words/min", Value: fmt.Sprintf("%.1f", summary.WordsPerMinute), Inline: true},
		}
	}
	d.send(ctx, discordMessage{Embeds: []discordEmbed{embed}})
}

// NotifyRecognizerError reports a dropped recognizer session. The
// health monitor restarts it, so this is a heads-up, not a page.
func (d *Discord) NotifyRecognizerError(ctx context.Context, provider string, err error) {
	msg := discordMessage{
		Embeds: []discordEmbed{{
			Title:       "Recognizer error",
			Description: fmt.Sprintf("`%s` dropped: %v", provider, err),
			Color:       0xFF0000, // Red
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
	d.send(ctx, msg)
}
