package strapi

import "time"

// Config holds the connection settings for the external Strapi instance.
// The API token is a server-side credential and must never reach the client.
type Config struct {
	URL      string        `env:"STRAPI_URL" envDefault:"http://localhost:1337"`
	APIToken string        `env:"STRAPI_API_TOKEN"`
	Timeout  time.Duration `env:"STRAPI_TIMEOUT" envDefault:"15s"`
}
