package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"clipstream/video-api/model"

	"github.com/spf13/viper"
)

// ErrNotificationFailed wraps webhook delivery failures. Callers log and
// swallow it, a lost notification never fails the upload.
var ErrNotificationFailed = errors.New("notification failed")

// Notifier posts an embed to a Discord-compatible webhook whenever a new
// video lands. A Notifier with no URL configured is a no-op.
type Notifier struct {
	URL    string
	Client *http.Client
}

func NewNotifier() *Notifier {
	return &Notifier{
		URL:    viper.GetString("discord.webhook_url"),
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	URL         string              `json:"url"`
	Timestamp   string              `json:"timestamp"`
	Fields      []webhookEmbedField `json:"fields"`
}

type webhookEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookPayload struct {
	Username string         `json:"username"`
	Embeds   []webhookEmbed `json:"embeds"`
}

// Send delivers one upload notification. At-most-once per video is the
// caller's job (catalog.MarkNotified), Send itself does no retries.
func (n *Notifier) Send(rec model.VideoRecord, shareLink string) error {
	if n.URL == "" {
		return nil
	}

	payload := webhookPayload{
		Username: "clipstream",
		Embeds: []webhookEmbed{{
			Title:       "New video uploaded",
			Description: rec.OriginalName,
			URL:         shareLink,
			Timestamp:   rec.UploadDate.UTC().Format(time.RFC3339),
			Fields: []webhookEmbedField{
				{Name: "Uploader", Value: rec.UploaderUsername, Inline: true},
				{Name: "Size", Value: fmt.Sprintf("%.2f MB", float64(rec.Size)/(1<<20)), Inline: true},
				{Name: "Type", Value: rec.ContentType, Inline: true},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w, %w", ErrNotificationFailed, err)
	}

	resp, err := n.Client.Post(n.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w, %w", ErrNotificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w, webhook answered %s", ErrNotificationFailed, resp.Status)
	}

	return nil
}
