package channel

import (
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDisplayName(t *testing.T) {
	testCases := []struct {
		html       bool
		high       bool
		altConsole bool
		exp        string
	}{
		{html: true, high: true, altConsole: true, exp: "HTML Notifications - Squared Up Console - High importance"},
		{html: true, high: true, altConsole: false, exp: "HTML Notifications - SCOM Web Console - High importance"},
		{html: true, high: false, altConsole: false, exp: "HTML Notifications - SCOM Web Console - Normal importance"},
		{html: false, high: false, altConsole: false, exp: "Plain text Notifications - SCOM Web Console - Normal importance"},
		{html: false, high: true, altConsole: true, exp: "Plain text Notifications - Squared Up Console - High importance"},
	}
	for _, tc := range testCases {
		t.Run(tc.exp, func(t *testing.T) {
			if got := DisplayName(tc.html, tc.high, tc.altConsole); got != tc.exp {
				t.Fatalf("unexpected display name: got %q exp %q", got, tc.exp)
			}
		})
	}
}

var htmlLabelRE = regexp.MustCompile(`<td class="label">([^<]+)</td>`)

// plainLabels extracts the field labels of the plain-text rendering.
func plainLabels(body string) []string {
	var labels []string
	for _, line := range strings.Split(strings.TrimSuffix(body, "\n"), "\n") {
		parts := strings.SplitN(line, ": ", 2)
		labels = append(labels, parts[0])
	}
	return labels
}

// htmlLabels extracts the field labels of the HTML rendering.
func htmlLabels(body string) []string {
	var labels []string
	for _, m := range htmlLabelRE.FindAllStringSubmatch(body, -1) {
		labels = append(labels, m[1])
	}
	return labels
}

func TestBody_FormatParity(t *testing.T) {
	// Both renderings must expose the identical ordered field set,
	// with and without an alternate console URL.
	for _, consoleURL := range []string{"", "https://squaredup.example.com"} {
		html := Body(true, consoleURL)
		plain := Body(false, consoleURL)
		if diff := cmp.Diff(plainLabels(plain), htmlLabels(html)); diff != "" {
			t.Fatalf("field labels differ between renderings (consoleURL=%q): %s", consoleURL, diff)
		}
	}
}

func TestBody_Fields(t *testing.T) {
	exp := []string{
		"Severity",
		"Monitor",
		"Resolution state",
		"Alert",
		"Managed entity",
		"Path",
		"Description",
		"Alert link",
		"Object link",
		"Subscription",
	}
	if diff := cmp.Diff(exp, plainLabels(Body(false, ""))); diff != "" {
		t.Fatalf("unexpected plain body fields: %s", diff)
	}
}

func TestBody_Links(t *testing.T) {
	t.Run("default console", func(t *testing.T) {
		body := Body(true, "")
		if !strings.Contains(body, phWebConsoleURL+"?DisplayMode=Pivot&AlertID="+phAlertID) {
			t.Fatal("expected platform-relative alert link in body")
		}
		if strings.Contains(body, "http://") || strings.Contains(body, "https://") {
			t.Fatal("default console body must not contain a literal external hostname")
		}
	})
	t.Run("alternate console", func(t *testing.T) {
		consoleURL := "https://squaredup.example.com"
		body := Body(true, consoleURL)
		if !strings.Contains(body, consoleURL+alertDrilldownSuffix+phAlertID) {
			t.Fatal("expected alternate console alert link in body")
		}
		if !strings.Contains(body, consoleURL+objectDrilldownSuffix+phEntityID) {
			t.Fatal("expected alternate console object link in body")
		}
		if strings.Contains(body, phWebConsoleURL) {
			t.Fatal("alternate console body must not fall back to the WebConsoleUrl property")
		}
	})
}

func TestBody_SeverityClasses(t *testing.T) {
	body := Body(true, "")
	if !strings.Contains(body, `class="sev`+phSeverity+`"`) {
		t.Fatal("expected severity-keyed CSS class in HTML body")
	}
	if !strings.Contains(body, `class="state-`+phResolutionState+`"`) {
		t.Fatal("expected resolution-state-keyed CSS class in HTML body")
	}
	for _, class := range []string{"td.sev0", "td.sev1", "td.sev2", "td.state-New"} {
		if !strings.Contains(body, class) {
			t.Fatalf("expected CSS rule %s in HTML body", class)
		}
	}
	if plain := Body(false, ""); strings.Contains(plain, "<") {
		t.Fatal("plain body must not contain markup")
	}
}

func TestSubject(t *testing.T) {
	subject := Subject()
	if !strings.Contains(subject, phResolutionState) || !strings.Contains(subject, phAlertName) {
		t.Fatalf("subject must contain resolution-state and alert-name placeholders, got %q", subject)
	}
	if Subject() != subject {
		t.Fatal("subject must be constant")
	}
}

func TestDescription(t *testing.T) {
	got := Description("Ops Email", "", "")
	exp := "This is a modified copy of the 'Ops Email' channel. Any changes to the connection details of the original channel will be used automatically by this channel."
	if got != exp {
		t.Fatalf("unexpected clone description: got %q exp %q", got, exp)
	}

	got = Description("", "Mon, 02 Jan 2006 15:04:05 UTC", `CONTOSO\ops`)
	exp = `Created on Mon, 02 Jan 2006 15:04:05 UTC by CONTOSO\ops`
	if got != exp {
		t.Fatalf("unexpected fresh description: got %q exp %q", got, exp)
	}
}
