package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inteqt-web/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookServer(t *testing.T, status int) (*httptest.Server, chan DiscordWebhookPayload) {
	t.Helper()
	received := make(chan DiscordWebhookPayload, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload DiscordWebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			received <- payload
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, received
}

func waitPayload(t *testing.T, ch chan DiscordWebhookPayload) DiscordWebhookPayload {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not called")
		return DiscordWebhookPayload{}
	}
}

func TestWebhookService_Disabled(t *testing.T) {
	w := NewWebhookService()
	assert.False(t, w.IsEnabled())
	assert.NoError(t, w.SendSystemAlert("t", "d", ColorBlue))

	w.SetWebhookURL("https://discord.example.com/api/webhooks/1")
	assert.True(t, w.IsEnabled())
	w.SetWebhookURL("")
	assert.False(t, w.IsEnabled())
}

func TestWebhookService_SendSystemAlert(t *testing.T) {
	srv, received := newWebhookServer(t, http.StatusNoContent)
	w := NewWebhookService()
	w.SetWebhookURL(srv.URL)

	require.NoError(t, w.SendSystemAlert("Hello", "World", ColorBlue))
	payload := waitPayload(t, received)
	assert.Equal(t, "inte-QT", payload.Username)
	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "Hello", payload.Embeds[0].Title)
	assert.Equal(t, ColorBlue, payload.Embeds[0].Color)
	assert.Equal(t, footerText, payload.Embeds[0].Footer.Text)
}

func TestWebhookService_ErrorStatus(t *testing.T) {
	srv, _ := newWebhookServer(t, http.StatusTooManyRequests)
	w := NewWebhookService()
	w.SetWebhookURL(srv.URL)
	assert.Error(t, w.SendSystemAlert("Hello", "World", ColorBlue))
}

func TestWebhookService_Notifier(t *testing.T) {
	srv, received := newWebhookServer(t, http.StatusNoContent)
	w := NewWebhookService()
	w.SetWebhookURL(srv.URL)

	slug := "testland"
	owner := &models.Account{Email: "alice@inte-qt.com"}
	reviewer := &models.Account{Email: "ops@inte-qt.com"}
	p := &models.CountryProfile{Name: "Testland", Slug: &slug, Status: models.StatusPending, References: []string{"https://example.com"}}

	w.SubmissionReceived(p, owner, true)
	embed := waitPayload(t, received).Embeds[0]
	assert.Contains(t, embed.Title, "Submission Updated")
	assert.Equal(t, ColorOrange, embed.Color)
	assert.Equal(t, "alice@inte-qt.com", embed.Fields[1].Value)

	p.Status = models.StatusRejected
	p.RejectionNote = "incomplete"
	w.SubmissionReviewed(p, reviewer)
	embed = waitPayload(t, received).Embeds[0]
	assert.Contains(t, embed.Title, "Rejected")
	assert.Equal(t, ColorRed, embed.Color)
	assert.Equal(t, "incomplete", embed.Fields[len(embed.Fields)-1].Value)
}

func TestReviewEmbed_Approved(t *testing.T) {
	slug := "north-land"
	p := &models.CountryProfile{Name: "North Land", Slug: &slug, Status: models.StatusApproved}
	embed := reviewEmbed(p, &models.Account{Email: "ops@inte-qt.com"})
	assert.Equal(t, ColorGreen, embed.Color)
	assert.Contains(t, embed.Description, "/north-land")
	assert.Len(t, embed.Fields, 1)
}
