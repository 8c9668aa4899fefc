package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"inteqt-web/backend/models"
	"inteqt-web/backend/system"
)

// WebhookService handles Discord webhook notifications
type WebhookService struct {
	webhookURL string
	enabled    bool
	client     *http.Client
}

// DiscordEmbed represents a Discord embed object
type DiscordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

// DiscordEmbedField represents a field in a Discord embed
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordEmbedFooter represents a footer in a Discord embed
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// DiscordWebhookPayload represents a Discord webhook message
type DiscordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Content  string         `json:"content,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds,omitempty"`
}

// NewWebhookService creates a new WebhookService
func NewWebhookService() *WebhookService {
	return &WebhookService{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetWebhookURL sets the Discord webhook URL
func (w *WebhookService) SetWebhookURL(url string) {
	w.webhookURL = url
	w.enabled = url != ""
}

// IsEnabled returns whether the webhook is enabled
func (w *WebhookService) IsEnabled() bool {
	return w.enabled && w.webhookURL != ""
}

// Discord color constants
const (
	ColorRed    = 0xFF0000 // Rejected
	ColorOrange = 0xFFAA00 // Pending review
	ColorGreen  = 0x00FF00 // Approved
	ColorBlue   = 0x00AAFF // Info
)

const footerText = "inte-QT Content Review"

// SubmissionReceived implements Notifier. Delivery happens in the background.
func (w *WebhookService) SubmissionReceived(p *models.CountryProfile, owner *models.Account, isUpdate bool) {
	if !w.IsEnabled() {
		return
	}
	embed := submissionEmbed(p, owner, isUpdate)
	go w.deliver(embed)
}

// SubmissionReviewed implements Notifier. Delivery happens in the background.
func (w *WebhookService) SubmissionReviewed(p *models.CountryProfile, reviewer *models.Account) {
	if !w.IsEnabled() {
		return
	}
	embed := reviewEmbed(p, reviewer)
	go w.deliver(embed)
}

func (w *WebhookService) deliver(embed DiscordEmbed) {
	if err := w.sendEmbed(embed); err != nil {
		system.Warn("Discord webhook failed: %v", err)
	}
}

func submissionEmbed(p *models.CountryProfile, owner *models.Account, isUpdate bool) DiscordEmbed {
	title := "📝 New Submission"
	if isUpdate {
		title = "✏️ Submission Updated"
	}
	return DiscordEmbed{
		Title:       title,
		Description: fmt.Sprintf("**%s** is waiting for review", p.Name),
		Color:       ColorOrange,
		Fields: []DiscordEmbedField{
			{Name: "Slug", Value: fmt.Sprintf("`%s`", p.SlugValue()), Inline: true},
			{Name: "Submitted By", Value: owner.Email, Inline: true},
			{Name: "References", Value: fmt.Sprintf("%d", len(p.References)), Inline: true},
		},
		Footer:    &DiscordEmbedFooter{Text: footerText},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func reviewEmbed(p *models.CountryProfile, reviewer *models.Account) DiscordEmbed {
	embed := DiscordEmbed{
		Fields: []DiscordEmbedField{
			{Name: "Reviewer", Value: reviewer.Email, Inline: true},
		},
		Footer:    &DiscordEmbedFooter{Text: footerText},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if p.Status == models.StatusApproved {
		embed.Title = "✅ Submission Approved"
		embed.Description = fmt.Sprintf("**%s** is live at `/%s`", p.Name, p.SlugValue())
		embed.Color = ColorGreen
	} else {
		embed.Title = "❌ Submission Rejected"
		embed.Description = fmt.Sprintf("**%s** was sent back to its author", p.Name)
		embed.Color = ColorRed
		embed.Fields = append(embed.Fields, DiscordEmbedField{Name: "Reason", Value: p.RejectionNote})
	}
	return embed
}

// SendSystemAlert sends a free-form notification.
func (w *WebhookService) SendSystemAlert(title, description string, color int) error {
	if !w.IsEnabled() {
		return nil
	}
	return w.sendEmbed(DiscordEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Footer:      &DiscordEmbedFooter{Text: footerText},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

// sendEmbed sends a Discord embed message
func (w *WebhookService) sendEmbed(embed DiscordEmbed) error {
	payload := DiscordWebhookPayload{
		Username: "inte-QT",
		Embeds:   []DiscordEmbed{embed},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, w.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned error status: %d", resp.StatusCode)
	}
	return nil
}
