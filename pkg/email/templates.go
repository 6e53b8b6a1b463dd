package email

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// MagicLinkEmail renders the magic-link message. The link embeds the raw
// signed token; only its digest is ever persisted server-side.
func MagicLinkEmail(link string, validFor time.Duration) (string, error) {
	return render("magic_link.html", struct {
		Link      string
		ExpiresIn string
	}{
		Link:      link,
		ExpiresIn: humanDuration(validFor),
	})
}

// NewsletterWelcomeEmail renders the newsletter signup confirmation.
func NewsletterWelcomeEmail(emailAddr string) (string, error) {
	return render("newsletter_welcome.html", struct {
		Email string
	}{Email: emailAddr})
}

func render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return sb.String(), nil
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	minutes := int(d.Minutes())
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
