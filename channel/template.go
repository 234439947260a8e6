package channel

import (
	"fmt"
	"strings"
)

// SCOM data-item placeholders embedded in the generated templates.
// The notification subsystem substitutes them at send time; this package
// never evaluates them.
const (
	phAlertName        = "$Data/Context/DataItem/AlertName$"
	phAlertDescription = "$Data/Context/DataItem/AlertDescription$"
	phSeverity         = "$Data/Context/DataItem/Severity$"
	phMonitor          = "$Data/Context/DataItem/CreatedByMonitor$"
	phResolutionState  = "$Data/Context/DataItem/ResolutionStateName$"
	phEntityName       = "$Data/Context/DataItem/ManagedEntityDisplayName$"
	phEntityPath       = "$Data/Context/DataItem/ManagedEntityPath$"
	phAlertID          = "$UrlEncodeData/Context/DataItem/AlertId$"
	phEntityID         = "$UrlEncodeData/Context/DataItem/ManagedEntity$"
	phSubscriptionID   = "$MPElement$"
	phWebConsoleURL    = `$Target/Property[Type="Notification!Microsoft.SystemCenter.AlertNotificationSubscriptionServer"]/WebConsoleUrl$`
)

// Console labels used in generated display names.
const (
	defaultConsoleLabel   = "SCOM Web Console"
	alternateConsoleLabel = "Squared Up Console"
)

// Fixed drilldown suffixes appended to an alternate console URL.
const (
	alertDrilldownSuffix  = "/#/drilldown/scomalert?id="
	objectDrilldownSuffix = "/#/drilldown/scomobject?id="
)

type bodyField struct {
	label string
	value string
	link  bool
}

// linkTemplates builds the alert-detail and object-detail URL templates.
// With no console URL the links resolve against the platform's own web
// console via the WebConsoleUrl target property.
func linkTemplates(consoleURL string) (alertLink, objectLink string) {
	if consoleURL == "" {
		alertLink = phWebConsoleURL + "?DisplayMode=Pivot&AlertID=" + phAlertID
		objectLink = phWebConsoleURL + "?DisplayMode=Pivot&MonitoringObjectID=" + phEntityID
		return
	}
	alertLink = consoleURL + alertDrilldownSuffix + phAlertID
	objectLink = consoleURL + objectDrilldownSuffix + phEntityID
	return
}

// bodyFields is the single source of the body's field set, so the HTML
// and plain renderings stay field-for-field identical.
func bodyFields(consoleURL string) []bodyField {
	alertLink, objectLink := linkTemplates(consoleURL)
	return []bodyField{
		{label: "Severity", value: phSeverity},
		{label: "Monitor", value: phMonitor},
		{label: "Resolution state", value: phResolutionState},
		{label: "Alert", value: phAlertName},
		{label: "Managed entity", value: phEntityName},
		{label: "Path", value: phEntityPath},
		{label: "Description", value: phAlertDescription},
		{label: "Alert link", value: alertLink, link: true},
		{label: "Object link", value: objectLink, link: true},
		{label: "Subscription", value: phSubscriptionID},
	}
}

const htmlBodyHeader = `<html>
<head>
<style type="text/css">
body { font-family: Verdana, sans-serif; font-size: 12px; }
table { border-collapse: collapse; }
td { padding: 4px 8px; border: 1px solid #d0d0d0; }
td.label { font-weight: bold; background-color: #f0f0f0; }
td.sev0 { background-color: #d9d9d9; }
td.sev1 { background-color: #ffd700; }
td.sev2 { background-color: #e81123; color: #ffffff; }
td.state-New { background-color: #fff4a3; }
</style>
</head>
<body>
<table>
`

const htmlBodyFooter = `</table>
</body>
</html>
`

// Body renders the notification body template. The HTML rendering keys
// CSS classes off the severity and resolution-state placeholder values;
// the plain rendering emits the same fields line-delimited.
func Body(isHTML bool, consoleURL string) string {
	fields := bodyFields(consoleURL)
	var b strings.Builder
	if !isHTML {
		for _, f := range fields {
			b.WriteString(f.label)
			b.WriteString(": ")
			b.WriteString(f.value)
			b.WriteString("\n")
		}
		return b.String()
	}
	b.WriteString(htmlBodyHeader)
	for _, f := range fields {
		var class string
		switch f.label {
		case "Severity":
			class = ` class="sev` + phSeverity + `"`
		case "Resolution state":
			class = ` class="state-` + phResolutionState + `"`
		}
		value := f.value
		if f.link {
			value = `<a href="` + f.value + `">` + f.value + `</a>`
		}
		fmt.Fprintf(&b, "<tr><td class=\"label\">%s</td><td%s>%s</td></tr>\n", f.label, class, value)
	}
	b.WriteString(htmlBodyFooter)
	return b.String()
}

// DisplayName builds the deterministic channel display name for the
// given format flags.
func DisplayName(isHTML, highImportance, altConsole bool) string {
	format := "Plain text"
	if isHTML {
		format = "HTML"
	}
	console := defaultConsoleLabel
	if altConsole {
		console = alternateConsoleLabel
	}
	importance := "Normal"
	if highImportance {
		importance = "High"
	}
	return fmt.Sprintf("%s Notifications - %s - %s importance", format, console, importance)
}

// Subject returns the constant subject template.
func Subject() string {
	return "Alert " + phResolutionState + ": " + phAlertName
}

// Description builds the channel description. With a base display name it
// describes a clone of that channel, otherwise it records who created the
// channel and when.
func Description(baseDisplayName, now, user string) string {
	if baseDisplayName != "" {
		return fmt.Sprintf("This is a modified copy of the '%s' channel. Any changes to the connection details of the original channel will be used automatically by this channel.", baseDisplayName)
	}
	return fmt.Sprintf("Created on %s by %s", now, user)
}
