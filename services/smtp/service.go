// Package smtp sends preview notifications through a channel's delivery
// endpoint, so a newly provisioned channel can be verified end to end.
package smtp

import (
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/scomtools/channelctl/channel"
)

var ErrNoRecipients = errors.New("not sending email, no recipients defined")

type Service struct {
	mu     sync.Mutex
	c      Config
	mail   chan *gomail.Message
	logger *log.Logger
	wg     sync.WaitGroup
	opened bool
}

func NewService(c Config, l *log.Logger) *Service {
	return &Service{
		c:      c,
		logger: l,
	}
}

func (s *Service) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return nil
	}
	s.opened = true

	s.mail = make(chan *gomail.Message)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runMailer()
	}()

	return nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return nil
	}
	s.opened = false

	close(s.mail)
	s.wg.Wait()

	return nil
}

func (s *Service) dialer() (d *gomail.Dialer, idleTimeout time.Duration) {
	d = &gomail.Dialer{Host: s.c.Host, Port: s.c.Port}
	idleTimeout = time.Duration(s.c.IdleTimeout)
	return
}

func (s *Service) runMailer() {
	d, idleTimeout := s.dialer()

	var conn gomail.SendCloser
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()

	var err error
	open := false
	for {
		timer := time.NewTimer(idleTimeout)
		select {
		case m, ok := <-s.mail:
			if !ok {
				return
			}
			if !open {
				if conn, err = d.Dial(); err != nil {
					s.logger.Println("E! error connecting to SMTP server", err)
					break
				}
				open = true
			}
			if err := gomail.Send(conn, m); err != nil {
				s.logger.Println("E!", err)
			}
		// Close the connection to the SMTP server if no email was sent in
		// the last IdleTimeout duration.
		case <-timer.C:
			if open {
				if err := conn.Close(); err != nil {
					s.logger.Println("E! error closing connection to SMTP server:", err)
				}
				open = false
			}
		}
		timer.Stop()
	}
}

// SendPreview sends the definition's rendered templates to the given
// recipients, applying the definition's delivery headers. The placeholder
// tokens are sent verbatim; this is a preview of the template, not of an
// evaluated alert.
func (s *Service) SendPreview(def *channel.Definition, to []string) error {
	m, err := s.prepareMessage(def, to)
	if err != nil {
		return err
	}
	s.mail <- m
	return nil
}

func (s *Service) prepareMessage(def *channel.Definition, to []string) (*gomail.Message, error) {
	if len(to) == 0 {
		to = s.c.To
	}
	if len(to) == 0 {
		return nil, ErrNoRecipients
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.c.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", def.Subject)
	for _, h := range def.Headers {
		m.SetHeader(h.Name, h.Value)
	}
	contentType := "text/plain"
	if def.IsHTML {
		contentType = "text/html"
	}
	m.SetBody(contentType, def.Body)
	return m, nil
}
