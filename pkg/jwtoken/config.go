package jwtoken

import "time"

// Config holds token signing configuration. Secret is required: the process
// must not start without it.
type Config struct {
	Secret       string        `env:"JWT_SECRET,required"`
	SessionTTL   time.Duration `env:"JWT_EXPIRES_IN" envDefault:"720h"`
	MagicLinkTTL time.Duration `env:"MAGIC_LINK_EXPIRES_IN" envDefault:"6h"`
}

// NewFromConfig creates a Service from the provided Config.
func NewFromConfig(cfg Config, opts ...Option) (*Service, error) {
	configOpts := make([]Option, 0, 2+len(opts))
	configOpts = append(configOpts,
		WithSessionTTL(cfg.SessionTTL),
		WithMagicLinkTTL(cfg.MagicLinkTTL),
	)
	configOpts = append(configOpts, opts...)

	return New(cfg.Secret, configOpts...)
}
