package channel

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// NormalizeConsoleURL canonicalizes an optional alternate console URL.
// An empty input returns empty, meaning default console links. Otherwise
// trailing slashes are trimmed and "http://" is prepended when no scheme
// is present. The result must be a well-formed absolute URL.
func NormalizeConsoleURL(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	u := strings.TrimRight(raw, "/")
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	parsed, err := url.Parse(u)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return "", errors.Wrapf(ErrInvalidConfig, "invalid console url %q", raw)
	}
	return u, nil
}
