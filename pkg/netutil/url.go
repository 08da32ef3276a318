package netutil

import (
	"net"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ValidateRpcEndpoint validates a URL pointing at a JSON RPC node. Plain
// host:port values are assumed to use http.
func ValidateRpcEndpoint(value string, requireSecureConnection bool) error {
	if !strings.Contains(value, "://") {
		// Add a HTTP scheme by default
		value = "http://" + value
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return err
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}

	if requireSecureConnection && parsed.Scheme != "https" {
		return errors.New("url scheme must be https")
	}

	hostname := parsed.Hostname()
	if len(hostname) == 0 {
		return errors.New("host component missing")
	}
	if net.ParseIP(hostname) != nil {
		return nil
	}
	if err := ValidateDomainName(hostname); err != nil {
		return errors.Wrap(err, "host is not a valid domain name")
	}
	return nil
}
