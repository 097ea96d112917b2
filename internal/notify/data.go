package notify

import (
	"encoding/json"
	"strings"
)

// Notification is the displayable outcome of a push payload: a title, a
// body, and the URL to open when the notification is clicked.
type Notification struct {
	title     string
	body      string
	targetUrl string
}

func NewNotification(title string, body string, targetUrl string) Notification {
	return Notification{
		title:     title,
		body:      body,
		targetUrl: targetUrl,
	}
}

func (n *Notification) Title() string {
	return n.title
}

func (n *Notification) Body() string {
	return n.body
}

func (n *Notification) TargetURL() string {
	return n.targetUrl
}

type pushPayloadDTO struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// ParsePushPayload decodes a push payload of the form
// {"title": ..., "body": ..., "url": ...}. Absent fields fall back to
// defaults so a sparse payload still yields a presentable notification.
// Malformed JSON is an error; the caller decides whether to surface it.
func ParsePushPayload(payload []byte) (Notification, error) {
	dto := pushPayloadDTO{}
	if err := json.Unmarshal(payload, &dto); err != nil {
		return Notification{}, &NotifyError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePayloadInvalid,
		}
	}

	title := strings.TrimSpace(dto.Title)
	if title == "" {
		title = "Update available"
	}
	targetUrl := strings.TrimSpace(dto.URL)
	if targetUrl == "" {
		targetUrl = "/"
	}

	return NewNotification(title, dto.Body, targetUrl), nil
}
