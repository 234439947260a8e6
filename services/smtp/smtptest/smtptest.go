// Package smtptest provides a minimal in-process SMTP server that
// captures delivered messages for assertions.
package smtptest

import (
	"fmt"
	"io/ioutil"
	"net"
	"net/mail"
	"net/textproto"
	"strconv"
	"sync"
)

type Message struct {
	Header mail.Header
	Body   string
}

type Server struct {
	Host string
	Port int

	l        *net.TCPListener
	wg       sync.WaitGroup
	mu       sync.Mutex
	received []*Message
	errors   []error
}

func NewServer() (*Server, error) {
	laddr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return nil, err
	}
	l, err := net.ListenTCP("tcp", laddr)
	if err != nil {
		return nil, err
	}

	host, portStr, err := net.SplitHostPort(l.Addr().String())
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		Host: host,
		Port: port,
		l:    l,
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()
	return s, nil
}

func (s *Server) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors
}

func (s *Server) SentMessages() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.received
}

func (s *Server) Close() error {
	s.l.Close()
	s.wg.Wait()
	return nil
}

func (s *Server) run() {
	for {
		conn, err := s.l.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			if err := s.handleConn(conn); err != nil {
				s.mu.Lock()
				s.errors = append(s.errors, err)
				s.mu.Unlock()
			}
		}()
	}
}

const (
	replyGreeting = "220 hello"
	replyOK       = "250 Ok"
	replyData     = "354 Go ahead"
	replyGoodbye  = "221 Goodbye"
)

// handleConn implements just enough of the SMTP protocol to capture the
// message contents.
func (s *Server) handleConn(conn net.Conn) error {
	tc := textproto.NewConn(conn)
	if err := tc.PrintfLine(replyGreeting); err != nil {
		return err
	}
	for {
		line, err := tc.ReadLine()
		if err != nil {
			tc.PrintfLine(replyGoodbye)
			return err
		}
		if len(line) < 4 {
			tc.PrintfLine(replyGoodbye)
			return fmt.Errorf("unexpected data %q", line)
		}
		switch line[:4] {
		case "EHLO", "MAIL", "RCPT":
			tc.PrintfLine(replyOK)
		case "DATA":
			if err := tc.PrintfLine(replyData); err != nil {
				return err
			}
			message, err := mail.ReadMessage(tc.DotReader())
			if err != nil {
				tc.PrintfLine(replyGoodbye)
				return err
			}
			body, err := ioutil.ReadAll(message.Body)
			if err != nil {
				tc.PrintfLine(replyGoodbye)
				return err
			}
			s.mu.Lock()
			s.received = append(s.received, &Message{
				Header: message.Header,
				Body:   string(body),
			})
			s.mu.Unlock()
			if err := tc.PrintfLine(replyOK); err != nil {
				return err
			}
		case "QUIT":
			return tc.PrintfLine(replyGoodbye)
		}
	}
}
