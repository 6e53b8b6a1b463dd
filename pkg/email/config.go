package email

// Config holds email service configuration. Postmark tokens are optional to
// support development environments: when they are unset, the dev sender
// writes emails to disk instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@cultureforchange.net"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"hello@cultureforchange.net"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// NewFromConfig returns the Postmark sender when tokens are configured and
// the disk-backed dev sender otherwise.
func NewFromConfig(cfg Config) (Sender, error) {
	if cfg.PostmarkServerToken == "" && cfg.PostmarkAccountToken == "" {
		return NewDevSender(cfg.DevDir), nil
	}
	return NewPostmarkClient(cfg)
}
