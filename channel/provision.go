package channel

import (
	"log"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Options control the rendered templates and persistence behavior of a
// single provisioning run.
type Options struct {
	HTML           bool
	HighImportance bool
	// ConsoleURL is an already normalized alternate console address.
	// Empty means default console links.
	ConsoleURL string
	// DryRun constructs the full definition without persisting anything.
	DryRun bool
}

// Provisioner runs the settings-resolution and assembly pipeline against
// a management group.
type Provisioner struct {
	mgmt   Management
	clock  clock.Clock
	logger *log.Logger
}

func NewProvisioner(m Management, l *log.Logger) *Provisioner {
	return &Provisioner{
		mgmt:   m,
		clock:  clock.New(),
		logger: l,
	}
}

// Provision resolves the source into a settings record, assembles the
// channel definition and submits it. A freshly built endpoint is saved
// before the definition that references it, so the definition always
// carries a resolvable endpoint identity.
func (p *Provisioner) Provision(src Source, opts Options) (*Definition, error) {
	settings, err := src.Resolve(p.mgmt)
	if err != nil {
		return nil, err
	}
	if settings.Description == "" {
		user, err := p.mgmt.ConnectedUser()
		if err != nil {
			return nil, errors.Wrap(err, "resolving connected user")
		}
		settings.Description = Description("", p.clock.Now().Format(time.RFC1123), user)
	}
	def := Assemble(settings, opts)
	if opts.DryRun {
		p.logger.Printf("I! dry run, skipping persistence for channel %q", def.DisplayName)
		return def, nil
	}
	if settings.OwnsEndpoint {
		if err := p.mgmt.SaveEndpoint(settings.Endpoint); err != nil {
			return nil, errors.Wrap(err, "saving delivery endpoint")
		}
		p.logger.Printf("D! saved delivery endpoint %s as %s", settings.Endpoint.DisplayName, settings.Endpoint.ID)
	}
	if err := p.mgmt.SaveChannel(def); err != nil {
		return nil, errors.Wrap(err, "saving channel")
	}
	p.logger.Printf("I! created notification channel %q", def.DisplayName)
	return def, nil
}
