package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/scomtools/channelctl/channel"
	client "github.com/scomtools/channelctl/client/v1"
	"github.com/scomtools/channelctl/services/logging"
	"github.com/scomtools/channelctl/services/smtp"
)

// These variables are populated via the Go linker.
var (
	version string = "v0.1"
	commit  string
	branch  string
)

var usageStr = `
Usage: channelctl [command] [args]

Commands:

	define   create an email notification channel, from new delivery parameters or by cloning an existing channel.
	test     send a preview notification through an existing channel's delivery endpoint.
	ping     check the connection to the administration gateway.
	help     get help for a command.
	version  displays the channelctl version info.
`

func usage() {
	fmt.Fprintln(os.Stderr, usageStr)
	os.Exit(1)
}

func main() {

	if len(os.Args) == 1 {
		fmt.Fprintln(os.Stderr, "Error: Must pass a command.")
		usage()
	}

	command := os.Args[1]
	args := os.Args[2:]
	var commandF func(args []string) error
	var commandArgs []string
	switch command {
	case "help":
		commandArgs = args
		commandF = doHelp
	case "define":
		defineFlags.Parse(args)
		commandArgs = defineFlags.Args()
		commandF = doDefine
	case "test":
		testFlags.Parse(args)
		commandArgs = testFlags.Args()
		commandF = doTest
	case "ping":
		pingFlags.Parse(args)
		commandArgs = pingFlags.Args()
		commandF = doPing
	case "version":
		commandArgs = args
		commandF = doVersion
	default:
		fmt.Fprintln(os.Stderr, "Unknown command", command)
		usage()
	}

	err := commandF(commandArgs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
}

// Init flag sets
func init() {
	defineFlags.Usage = defineUsage
	testFlags.Usage = testUsage
	pingFlags.Usage = pingUsage
}

// openGateway loads the configuration, opens the logging service and
// connects a gateway client.
func openGateway(configPath, urlOverride string) (*Config, *logging.Service, *client.Client, error) {
	cfg, err := loadConfig(configPath, urlOverride)
	if err != nil {
		return nil, nil, nil, err
	}
	logService := logging.NewService(cfg.Logging)
	if err := logService.Open(); err != nil {
		return nil, nil, nil, err
	}
	cl, err := client.New(client.Config{
		URL:                cfg.SCOM.URL,
		Timeout:            time.Duration(cfg.SCOM.Timeout),
		InsecureSkipVerify: cfg.SCOM.InsecureSkipVerify,
	})
	if err != nil {
		logService.Close()
		return nil, nil, nil, err
	}
	return cfg, logService, cl, nil
}

// Help

func helpUsage() {
	var u = "Usage: channelctl help [command]\n"
	fmt.Fprintln(os.Stderr, u)
}

func doHelp(args []string) error {
	if len(args) == 1 {
		command := args[0]
		switch command {
		case "define":
			defineFlags.Usage()
		case "test":
			testFlags.Usage()
		case "ping":
			pingFlags.Usage()
		case "help":
			helpUsage()
		case "version":
			versionUsage()
		default:
			fmt.Fprintln(os.Stderr, "Unknown command", command)
			usage()
		}
	} else {
		helpUsage()
	}
	return nil
}

// Define
var (
	defineFlags = flag.NewFlagSet("define", flag.ExitOnError)
	dserver     = defineFlags.String("server", "", "the SMTP server address. Starts a new delivery endpoint.")
	dport       = defineFlags.Int("port", channel.DefaultPort, "the SMTP server port.")
	dfrom       = defineFlags.String("from", "", "the sender address for notifications.")
	dretry      = defineFlags.Int("retry", channel.DefaultRetryMinutes, "the primary server retry interval in minutes.")
	dauth       = defineFlags.String("auth", string(channel.AuthAnonymous), "the SMTP authentication mode (anonymous|ntlm).")
	ddesc       = defineFlags.String("description", "", "override the generated channel description.")
	dclone      = defineFlags.String("clone-from", "", "the id or display name of an existing channel whose delivery settings should be reused.")
	dplain      = defineFlags.Bool("plain", false, "render plain text notifications instead of HTML.")
	dhigh       = defineFlags.Bool("high-importance", false, "flag notifications as high importance.")
	dconsole    = defineFlags.String("console-url", "", "alternate web console URL for alert and object links.")
	ddry        = defineFlags.Bool("dry-run", false, "construct and print the definition without persisting anything.")
	durl        = defineFlags.String("url", "", "the URL of the administration gateway. Overrides the config file.")
	dconfig     = defineFlags.String("config", "", "path to a channelctl configuration file.")
)

func defineUsage() {
	var u = `Usage: channelctl define [options]

Create an email notification channel.

Either pass new delivery parameters (-server and -from) or clone the
delivery settings of an existing channel (-clone-from). The two are
mutually exclusive. A cloned channel reuses the original's delivery
endpoint; it is not duplicated.

Examples:

	$ channelctl define -server mail.example.com -from scom@example.com -high-importance

		This creates an HTML, high importance channel with a new delivery endpoint.

	$ channelctl define -clone-from 'Ops Email' -plain -console-url squaredup.example.com

		This creates a plain text channel reusing the 'Ops Email' delivery
		endpoint, with alert links pointing at the alternate console.

Options:
`
	fmt.Fprintln(os.Stderr, u)
	defineFlags.PrintDefaults()
}

func doDefine(args []string) error {
	_, logService, cl, err := openGateway(*dconfig, *durl)
	if err != nil {
		return err
	}
	defer logService.Close()

	consoleURL, err := channel.NormalizeConsoleURL(*dconsole)
	if err != nil {
		return err
	}

	var fresh *channel.FreshSource
	if *dserver != "" || *dfrom != "" {
		fresh = &channel.FreshSource{
			Server:       *dserver,
			From:         *dfrom,
			Port:         *dport,
			RetryMinutes: *dretry,
			Auth:         channel.AuthMode(*dauth),
			Description:  *ddesc,
		}
	}
	src, err := channel.NewSource(fresh, *dclone)
	if err != nil {
		return err
	}

	p := channel.NewProvisioner(cl, logService.NewLogger("[provision] ", log.LstdFlags))
	def, err := p.Provision(src, channel.Options{
		HTML:           !*dplain,
		HighImportance: *dhigh,
		ConsoleURL:     consoleURL,
		DryRun:         *ddry,
	})
	if err != nil {
		return err
	}

	outFmt := "%-16s%v\n"
	fmt.Fprintf(os.Stdout, outFmt, "Name", def.DisplayName)
	fmt.Fprintf(os.Stdout, outFmt, "Description", def.Description)
	fmt.Fprintf(os.Stdout, outFmt, "Endpoint", fmt.Sprintf("%s:%d (%s)", def.Endpoint.Server, def.Endpoint.Port, def.Endpoint.Auth))
	fmt.Fprintf(os.Stdout, outFmt, "Format", formatLabel(def.IsHTML))
	fmt.Fprintf(os.Stdout, outFmt, "Headers", len(def.Headers))
	if *ddry {
		fmt.Fprintf(os.Stdout, outFmt, "ID", "none (dry run)")
	} else {
		fmt.Fprintf(os.Stdout, outFmt, "ID", def.ID)
	}
	return nil
}

func formatLabel(isHTML bool) string {
	if isHTML {
		return "HTML"
	}
	return "plain text"
}

// Test
var (
	testFlags   = flag.NewFlagSet("test", flag.ExitOnError)
	tchannel    = testFlags.String("channel", "", "the id or display name of the channel to test.")
	tto         = testFlags.String("to", "", "comma separated list of recipients. Defaults to the smtp-test config section.")
	tplain      = testFlags.Bool("plain", false, "preview the plain text rendering instead of HTML.")
	thigh       = testFlags.Bool("high-importance", false, "preview with high importance headers.")
	tconsoleURL = testFlags.String("console-url", "", "alternate web console URL for alert and object links.")
	turl        = testFlags.String("url", "", "the URL of the administration gateway. Overrides the config file.")
	tconfig     = testFlags.String("config", "", "path to a channelctl configuration file.")
)

func testUsage() {
	var u = `Usage: channelctl test [options]

Send a preview notification through an existing channel's delivery
endpoint. The message carries the rendered templates verbatim, with the
placeholder tokens left unevaluated.

Options:
`
	fmt.Fprintln(os.Stderr, u)
	testFlags.PrintDefaults()
}

func doTest(args []string) error {
	cfg, logService, cl, err := openGateway(*tconfig, *turl)
	if err != nil {
		return err
	}
	defer logService.Close()

	if *tchannel == "" {
		fmt.Fprintln(os.Stderr, "Must pass the channel option.")
		testFlags.Usage()
		os.Exit(2)
	}

	consoleURL, err := channel.NormalizeConsoleURL(*tconsoleURL)
	if err != nil {
		return err
	}
	settings, err := channel.CloneSource{From: *tchannel}.Resolve(cl)
	if err != nil {
		return err
	}
	def := channel.Assemble(settings, channel.Options{
		HTML:           !*tplain,
		HighImportance: *thigh,
		ConsoleURL:     consoleURL,
	})

	smtpConfig, err := smtp.ConfigFromDefinition(def, cfg.SMTP)
	if err != nil {
		return err
	}
	var to []string
	if *tto != "" {
		to = strings.Split(*tto, ",")
	}

	s := smtp.NewService(smtpConfig, logService.NewLogger("[smtp] ", log.LstdFlags))
	if err := s.Open(); err != nil {
		return err
	}
	if err := s.SendPreview(def, to); err != nil {
		s.Close()
		return err
	}
	if err := s.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Sent preview notification through %s:%d\n", def.Endpoint.Server, def.Endpoint.Port)
	return nil
}

// Ping
var (
	pingFlags = flag.NewFlagSet("ping", flag.ExitOnError)
	purl      = pingFlags.String("url", "", "the URL of the administration gateway. Overrides the config file.")
	pconfig   = pingFlags.String("config", "", "path to a channelctl configuration file.")
)

func pingUsage() {
	var u = `Usage: channelctl ping [options]

	Check the connection to the administration gateway.
`
	fmt.Fprintln(os.Stderr, u)
	pingFlags.PrintDefaults()
}

func doPing(args []string) error {
	_, logService, cl, err := openGateway(*pconfig, *purl)
	if err != nil {
		return err
	}
	defer logService.Close()

	d, v, err := cl.Ping()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Gateway version %s responded in %s\n", v, d)
	return nil
}

// Version
func versionUsage() {
	var u = `Usage: channelctl version

	Print version info.
`
	fmt.Fprintln(os.Stderr, u)
}

func doVersion(args []string) error {
	fmt.Fprintf(os.Stdout, "Channelctl %s (git: %s %s)\n", version, branch, commit)
	return nil
}
