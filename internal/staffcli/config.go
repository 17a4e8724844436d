package staffcli

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/guildgate/internal/flagx"
)

// Config holds the console settings. Environment variables use the
// GUILDGATE_ prefix, flags override them.
type Config struct {
	Endpoint    string `env:"GRPC_ENDPOINT"`
	AccessToken string `env:"ACCESS_TOKEN"`
	PageSize    int    `env:"PAGE_SIZE"`
}

var knownFlags = []string{"-a", "-token", "-page"}

func (c *Config) LoadDefaults() {
	c.Endpoint = "localhost:50051"
	c.PageSize = 5
}

// LoadConfig applies defaults, then GUILDGATE_* variables, then flags.
func LoadConfig(args []string) (*Config, error) {
	c := &Config{}
	c.LoadDefaults()
	if err := env.ParseWithOptions(c, env.Options{Prefix: "GUILDGATE_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("reviewctl", flag.ContinueOnError)
	fs.StringVar(&c.Endpoint, "a", c.Endpoint, "review API address")
	fs.StringVar(&c.AccessToken, "token", c.AccessToken, "staff access token")
	fs.IntVar(&c.PageSize, "page", c.PageSize, "applications per page")
	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return nil, err
	}
	return c, nil
}
