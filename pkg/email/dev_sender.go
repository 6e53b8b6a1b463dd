package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// DevSender implements Sender for local development. Instead of calling a
// provider it drops each message into a directory as a pair of files: the
// HTML body, and a JSON sidecar with the envelope (recipient, subject, tag,
// send time) so the magic-link flow can be exercised without Postmark
// credentials.
type DevSender struct {
	dir string
	now func() time.Time
}

// NewDevSender creates a development email sender that saves emails to disk.
// The directory is created on first send if it doesn't exist.
func NewDevSender(dir string) Sender {
	return &DevSender{dir: dir, now: time.Now}
}

// envelope is the sidecar written next to each saved body.
type envelope struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Tag     string    `json:"tag,omitempty"`
	SentAt  time.Time `json:"sentAt"`
}

// SendEmail writes the message to the configured directory.
func (d *DevSender) SendEmail(_ context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create dev mail directory: %v", ErrFailedToSendEmail, err)
	}

	sentAt := d.now()
	base := filepath.Join(d.dir, d.filename(params, sentAt))

	if err := os.WriteFile(base+".html", []byte(params.BodyHTML), 0o644); err != nil {
		return fmt.Errorf("%w: write body: %v", ErrFailedToSendEmail, err)
	}

	sidecar, err := json.MarshalIndent(envelope{
		To:      params.SendTo,
		Subject: params.Subject,
		Tag:     params.Tag,
		SentAt:  sentAt,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode envelope: %v", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(base+".json", sidecar, 0o644); err != nil {
		return fmt.Errorf("%w: write envelope: %v", ErrFailedToSendEmail, err)
	}

	return nil
}

// filename keys saved messages by send time and tag so a directory listing
// reads chronologically and a flow's messages group together.
func (d *DevSender) filename(params SendEmailParams, sentAt time.Time) string {
	label := params.Tag
	if label == "" {
		label = params.Subject
	}
	return sentAt.Format("20060102_150405") + "_" + slugify(label)
}

// slugify reduces a label to lowercase letters, digits and dashes.
func slugify(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '.':
			sb.WriteByte('-')
		}
	}
	out := strings.Trim(sb.String(), "-")
	if out == "" {
		return "email"
	}
	const maxLen = 80
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}
