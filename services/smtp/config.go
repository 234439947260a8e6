package smtp

import (
	"strings"
	"time"

	"github.com/influxdata/influxdb/toml"
	"github.com/pkg/errors"

	"github.com/scomtools/channelctl/channel"
)

type Config struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// From address for test messages.
	From string `toml:"from"`
	// Default To addresses for test messages.
	To []string `toml:"to"`
	// Close connection to the delivery server after idle timeout has elapsed.
	IdleTimeout toml.Duration `toml:"idle-timeout"`
}

func NewConfig() Config {
	return Config{
		Host:        "localhost",
		Port:        25,
		IdleTimeout: toml.Duration(time.Second * 30),
	}
}

func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port <= 0 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.IdleTimeout < 0 {
		return errors.New("idle timeout must be positive")
	}
	// Poor mans email validation, but since emails have a very large domain
	// this is probably good enough to catch user error.
	if c.From != "" && !strings.ContainsRune(c.From, '@') {
		return errors.Errorf("invalid from email address: %q", c.From)
	}
	for _, t := range c.To {
		if !strings.ContainsRune(t, '@') {
			return errors.Errorf("invalid to email address: %q", t)
		}
	}
	return nil
}

// ConfigFromDefinition merges a channel definition's delivery details into
// a base config so a preview message can be sent through the channel's
// own endpoint. NTLM endpoints are refused: the mailer only speaks
// anonymous SMTP.
func ConfigFromDefinition(def *channel.Definition, base Config) (Config, error) {
	if def.Endpoint.Auth == channel.AuthNTLM {
		return Config{}, errors.New("ntlm authentication is not supported for test delivery")
	}
	c := base
	c.Host = def.Endpoint.Server
	c.Port = def.Endpoint.Port
	c.From = def.From
	return c, c.Validate()
}
