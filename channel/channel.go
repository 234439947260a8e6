// Package channel constructs SCOM email notification channel definitions,
// either from fresh delivery-server parameters or by cloning the settings
// of an existing channel, and submits them to the management group.
package channel

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfig is the cause of any malformed or conflicting input.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNotFound is returned when an identifier resolves to no channel.
	ErrNotFound = errors.New("no channel matches the given identifier")
	// ErrNoSession is returned when the management group is unreachable.
	ErrNoSession = errors.New("no active management group session")
)

// AuthMode is the authentication mode of a delivery server.
type AuthMode string

const (
	AuthAnonymous AuthMode = "anonymous"
	AuthNTLM      AuthMode = "ntlm"
)

// Defaults applied on the fresh construction path.
const (
	DefaultPort         = 25
	DefaultRetryMinutes = 5
	DefaultEncoding     = "utf-8"
)

// DeliveryEndpoint holds the delivery-server connection details a channel
// uses to dispatch messages.
type DeliveryEndpoint struct {
	// ID is assigned by the management group on first save.
	// uuid.Nil means the endpoint has not been persisted yet.
	ID          uuid.UUID
	DisplayName string
	Description string
	Server      string
	Port        int
	Auth        AuthMode
	// RetryInterval is the primary server retry interval in seconds.
	RetryInterval int
}

// Header is a single message header applied to every notification
// the channel sends. Order is significant.
type Header struct {
	Name  string
	Value string
}

// Settings is the normalized settings record produced by a Source and
// consumed by Assemble.
type Settings struct {
	Description     string
	BodyEncoding    string
	SubjectEncoding string
	From            string
	ReplyTo         string
	Endpoint        *DeliveryEndpoint
	// OwnsEndpoint reports whether the endpoint was built by this run.
	// A cloned endpoint is borrowed from the original channel and must
	// never be persisted or mutated here.
	OwnsEndpoint bool
}

// ExistingChannel is a resolved reference to a channel already known to
// the management group, carrying the action fields the clone path copies.
type ExistingChannel struct {
	ID              uuid.UUID
	DisplayName     string
	BodyEncoding    string
	SubjectEncoding string
	From            string
	ReplyTo         string
	Endpoint        *DeliveryEndpoint
}

// Definition is the complete channel definition ready for submission.
// Template strings may contain placeholder tokens interpreted by the
// notification subsystem; they are passed through verbatim.
type Definition struct {
	// ID is uuid.Nil until the definition is persisted.
	ID              uuid.UUID
	DisplayName     string
	Description     string
	Subject         string
	Body            string
	IsHTML          bool
	Headers         []Header
	BodyEncoding    string
	SubjectEncoding string
	From            string
	ReplyTo         string
	Endpoint        *DeliveryEndpoint
}

// Management is the administration surface of the monitoring platform.
// Save methods have create semantics when the object's ID is uuid.Nil,
// assigning a fresh ID, and update semantics otherwise.
type Management interface {
	// ChannelByName returns ErrNotFound when no channel has the name.
	ChannelByName(name string) (*ExistingChannel, error)
	// ChannelByID returns ErrNotFound when the id is unknown.
	ChannelByID(id uuid.UUID) (*ExistingChannel, error)
	// ConnectedUser returns the domain-qualified user of the current
	// session, or ErrNoSession.
	ConnectedUser() (string, error)
	SaveEndpoint(ep *DeliveryEndpoint) error
	SaveChannel(def *Definition) error
}

// Assemble merges a settings record and format flags into a final channel
// definition. The definition is always a new object (ID left at uuid.Nil);
// on the clone path only the endpoint is reused.
func Assemble(s Settings, opts Options) *Definition {
	def := &Definition{
		DisplayName:     DisplayName(opts.HTML, opts.HighImportance, opts.ConsoleURL != ""),
		Description:     s.Description,
		Subject:         Subject(),
		Body:            Body(opts.HTML, opts.ConsoleURL),
		IsHTML:          opts.HTML,
		BodyEncoding:    s.BodyEncoding,
		SubjectEncoding: s.SubjectEncoding,
		From:            s.From,
		ReplyTo:         s.ReplyTo,
		Endpoint:        s.Endpoint,
	}
	if opts.HighImportance {
		def.Headers = []Header{
			{Name: "Importance", Value: "High"},
			{Name: "X-Priority", Value: "1"},
			{Name: "X-MSMail-Priority", Value: "High"},
		}
	}
	return def
}
