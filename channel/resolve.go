package channel

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Source is one of the two mutually exclusive settings construction
// paths: fresh delivery parameters or an existing channel to clone.
type Source interface {
	Validate() error
	Resolve(m Management) (Settings, error)
}

// NewSource selects the construction path. Supplying both fresh delivery
// parameters and a channel to clone, or neither, is invalid. The check
// happens here, before any management group call is made.
func NewSource(fresh *FreshSource, cloneFrom string) (Source, error) {
	switch {
	case fresh != nil && cloneFrom != "":
		return nil, errors.Wrap(ErrInvalidConfig, "cannot combine new delivery parameters with a channel to clone")
	case fresh == nil && cloneFrom == "":
		return nil, errors.Wrap(ErrInvalidConfig, "either new delivery parameters or a channel to clone must be given")
	case fresh != nil:
		return fresh, nil
	default:
		return CloneSource{From: cloneFrom}, nil
	}
}

// FreshSource builds a new delivery endpoint from explicit parameters.
// All fields carry fully resolved values; use NewFreshSource for the
// platform defaults.
type FreshSource struct {
	Server       string
	From         string
	Port         int
	RetryMinutes int
	Auth         AuthMode
	// Description overrides the generated "Created on ... by ..." text
	// when non-empty.
	Description string
}

func NewFreshSource(server, from string) *FreshSource {
	return &FreshSource{
		Server:       server,
		From:         from,
		Port:         DefaultPort,
		RetryMinutes: DefaultRetryMinutes,
		Auth:         AuthAnonymous,
	}
}

func (s *FreshSource) Validate() error {
	if s.Server == "" {
		return errors.Wrap(ErrInvalidConfig, "delivery server cannot be empty")
	}
	if s.Port < 0 || s.Port > 65535 {
		return errors.Wrapf(ErrInvalidConfig, "invalid port %d", s.Port)
	}
	if s.RetryMinutes <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "retry interval must be positive, got %d", s.RetryMinutes)
	}
	if s.Auth != AuthAnonymous && s.Auth != AuthNTLM {
		return errors.Wrapf(ErrInvalidConfig, "unknown authentication mode %q", s.Auth)
	}
	// Poor mans email validation, good enough to catch user error.
	if !strings.ContainsRune(s.From, '@') {
		return errors.Wrapf(ErrInvalidConfig, "invalid from address %q", s.From)
	}
	return nil
}

func (s *FreshSource) Resolve(m Management) (Settings, error) {
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	ep := &DeliveryEndpoint{
		DisplayName:   fmt.Sprintf("SMTP %s:%d", s.Server, s.Port),
		Description:   fmt.Sprintf("SMTP delivery endpoint for %s", s.Server),
		Server:        s.Server,
		Port:          s.Port,
		Auth:          s.Auth,
		RetryInterval: s.RetryMinutes * 60,
	}
	return Settings{
		Description:     s.Description,
		BodyEncoding:    DefaultEncoding,
		SubjectEncoding: DefaultEncoding,
		From:            s.From,
		ReplyTo:         s.From,
		Endpoint:        ep,
		OwnsEndpoint:    true,
	}, nil
}

// CloneSource copies endpoint, encoding and addressing from an existing
// channel, substituting a generated description. The copied endpoint is
// borrowed, not duplicated.
type CloneSource struct {
	// From is either a channel id or a display name.
	From string
}

func (s CloneSource) Validate() error {
	if s.From == "" {
		return errors.Wrap(ErrInvalidConfig, "channel to clone cannot be empty")
	}
	return nil
}

func (s CloneSource) Resolve(m Management) (Settings, error) {
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	existing, err := s.lookup(m)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Description:     Description(existing.DisplayName, "", ""),
		BodyEncoding:    existing.BodyEncoding,
		SubjectEncoding: existing.SubjectEncoding,
		From:            existing.From,
		ReplyTo:         existing.ReplyTo,
		Endpoint:        existing.Endpoint,
		OwnsEndpoint:    false,
	}, nil
}

// lookup classifies the identifier exactly once: anything with the shape
// of a channel id resolves by id, everything else is a display name.
func (s CloneSource) lookup(m Management) (*ExistingChannel, error) {
	if id, ok := parseChannelID(s.From); ok {
		return m.ChannelByID(id)
	}
	return m.ChannelByName(s.From)
}

// parseChannelID reports whether ref has the canonical 8-4-4-4-12 form
// of a management group object id. Malformed ids are tolerated; they
// fall through to the display-name lookup.
func parseChannelID(ref string) (uuid.UUID, bool) {
	if len(ref) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
