package main

import (
	"time"

	"github.com/BurntSushi/toml"
	influxtoml "github.com/influxdata/influxdb/toml"
	"github.com/pkg/errors"

	"github.com/scomtools/channelctl/services/logging"
	"github.com/scomtools/channelctl/services/smtp"
)

// Config represents the configuration format for the channelctl binary.
type Config struct {
	SCOM    SCOMConfig     `toml:"scom"`
	SMTP    smtp.Config    `toml:"smtp-test"`
	Logging logging.Config `toml:"logging"`
}

// SCOMConfig holds the connection details for the administration gateway.
type SCOMConfig struct {
	URL                string              `toml:"url"`
	Timeout            influxtoml.Duration `toml:"timeout"`
	InsecureSkipVerify bool                `toml:"insecure-skip-verify"`
}

func NewConfig() *Config {
	return &Config{
		SCOM: SCOMConfig{
			URL:     "http://localhost:5724",
			Timeout: influxtoml.Duration(time.Second * 30),
		},
		SMTP:    smtp.NewConfig(),
		Logging: logging.NewConfig(),
	}
}

func (c *Config) Validate() error {
	if c.SCOM.URL == "" {
		return errors.New("scom gateway url cannot be empty")
	}
	return nil
}

// loadConfig reads the optional config file and applies the -url flag
// override on top of it.
func loadConfig(path, urlOverride string) (*Config, error) {
	c := NewConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}
	if urlOverride != "" {
		c.SCOM.URL = urlOverride
	}
	return c, c.Validate()
}
