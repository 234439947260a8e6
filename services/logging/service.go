// Package logging hands out level-filtered loggers to the rest of the
// process. Messages carry a D!/I!/W!/E! prefix consumed by wlog.
package logging

import (
	"io"
	"log"
	"os"
	"path"

	"github.com/influxdata/wlog"
)

// Interface for creating new loggers
type Interface interface {
	NewLogger(prefix string, flag int) *log.Logger
	NewRawLogger(prefix string, flag int) *log.Logger
}

type Service struct {
	c      Config
	w      io.Writer
	closer io.Closer
}

func NewService(c Config) *Service {
	return &Service{c: c}
}

func (s *Service) Open() error {
	switch s.c.File {
	case "STDERR":
		s.w = os.Stderr
	case "STDOUT":
		s.w = os.Stdout
	default:
		dir := path.Dir(s.c.File)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
		f, err := os.OpenFile(s.c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return err
		}
		s.w = f
		s.closer = f
	}
	return wlog.SetLevelFromName(s.c.Level)
}

func (s *Service) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *Service) NewLogger(prefix string, flag int) *log.Logger {
	return wlog.New(s.w, prefix, flag)
}

func (s *Service) NewRawLogger(prefix string, flag int) *log.Logger {
	return log.New(s.w, prefix, flag)
}
