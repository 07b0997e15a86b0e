package validation

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
)

// hostnameRegex is a pre-compiled regex for RFC 1123 hostname validation
var hostnameRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// Error represents a validation error with an actionable remediation hint
type Error struct {
	Field       string
	Value       string
	Message     string
	Remediation string
}

func (e *Error) Error() string {
	if e.Remediation != "" {
		return fmt.Sprintf("%s: %s\nRemediation: %s", e.Field, e.Message, e.Remediation)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Port validates a port number (1-65535)
func Port(field, value string) error {
	if value == "" {
		return nil
	}

	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return &Error{
			Field:       field,
			Value:       value,
			Message:     fmt.Sprintf("invalid port number: %q", value),
			Remediation: "Provide a valid port number between 1 and 65535",
		}
	}
	return nil
}

// Host validates a hostname or IP address
func Host(field, value string) error {
	if value == "" {
		return nil
	}

	if net.ParseIP(value) != nil {
		return nil
	}
	if len(value) <= 253 && hostnameRegex.MatchString(value) {
		return nil
	}
	return &Error{
		Field:       field,
		Value:       value,
		Message:     fmt.Sprintf("invalid host: %q", value),
		Remediation: "Provide a valid hostname (e.g., lb.example.com) or IP address",
	}
}

// TargetURL validates a probe target URL: http or https scheme, a valid
// host, and an optional valid port.
func TargetURL(field, value string) error {
	if value == "" {
		return nil
	}

	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return &Error{
			Field:       field,
			Value:       value,
			Message:     fmt.Sprintf("invalid URL: %q", value),
			Remediation: "Provide a valid URL with scheme and host (e.g., http://203.0.113.10:80)",
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &Error{
			Field:       field,
			Value:       value,
			Message:     fmt.Sprintf("unsupported scheme: %q", u.Scheme),
			Remediation: "Probe targets must use http or https",
		}
	}
	if err := Host(field, u.Hostname()); err != nil {
		return err
	}
	return Port(field, u.Port())
}
