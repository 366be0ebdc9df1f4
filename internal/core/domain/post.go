package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	ImageRef   string    `json:"image_ref,omitempty"`
	ButtonText string    `json:"button_text,omitempty"`
	ButtonURL  string    `json:"button_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	AdminID    int64     `json:"admin_id"`
}

func NewPostID(now time.Time) string {
	return strconv.FormatInt(now.UnixNano(), 10)
}

func (p Post) HasButton() bool {
	return p.ButtonText != "" && p.ButtonURL != ""
}

// Message renders the post for a single recipient.
func (p Post) Message(chatID int64) OutgoingMessage {
	msg := OutgoingMessage{
		ChatID:   chatID,
		Text:     p.Title + "\n\n" + p.Text,
		ImageRef: p.ImageRef,
	}
	if p.HasButton() {
		msg.Link = &LinkButton{Text: p.ButtonText, URL: p.ButtonURL}
	}
	return msg
}

// ValidateButtonURL accepts only absolute http and https links.
func ValidateButtonURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidButtonURL, raw)
	}
	return nil
}

type BroadcastReport struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	Total      int       `json:"total"`
	Delivered  int       `json:"delivered"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
