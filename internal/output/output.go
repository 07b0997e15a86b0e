package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kubereach/kubereach/internal/resolver"
)

// Format represents the output format
type Format string

const (
	// FormatText is the default human-readable text format
	FormatText Format = "text"
	// FormatJSON is machine-readable JSON format
	FormatJSON Format = "json"
)

// ParseFormat parses a format string and validates it
func ParseFormat(s string) (Format, error) {
	format := Format(s)
	switch format {
	case FormatText, FormatJSON:
		return format, nil
	default:
		return FormatText, fmt.Errorf("invalid output format: %q (must be 'text' or 'json')", s)
	}
}

// Step records the outcome of one pipeline stage.
type Step struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Report is the full result of a reachability run. The raw listings are
// carried so the operator sees the same tables the resolver worked from.
type Report struct {
	Success        bool             `json:"success"`
	Message        string           `json:"message,omitempty"`
	Error          string           `json:"error,omitempty"`
	Target         *resolver.Target `json:"target,omitempty"`
	Steps          []Step           `json:"steps,omitempty"`
	NodeListing    string           `json:"nodeListing,omitempty"`
	ServiceListing string           `json:"serviceListing,omitempty"`
}

// Formatter renders reports in the configured format.
type Formatter struct {
	format Format
	writer io.Writer
}

// New creates a new Formatter with the specified format
func New(format Format) *Formatter {
	return &Formatter{
		format: format,
		writer: os.Stdout,
	}
}

// SetWriter sets the output writer (useful for testing)
func (f *Formatter) SetWriter(w io.Writer) {
	f.writer = w
}

// Print outputs a report in the configured format
func (f *Formatter) Print(report *Report) error {
	switch f.format {
	case FormatJSON:
		encoder := json.NewEncoder(f.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case FormatText:
		return f.printText(report)
	default:
		return fmt.Errorf("unsupported output format: %s", f.format)
	}
}

func (f *Formatter) printText(report *Report) error {
	for _, listing := range []string{report.NodeListing, report.ServiceListing} {
		if listing == "" {
			continue
		}
		if _, err := fmt.Fprintln(f.writer, strings.TrimRight(listing, "\n")); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(f.writer); err != nil {
			return err
		}
	}

	for _, step := range report.Steps {
		mark := "ok"
		if !step.OK {
			mark = "failed"
		}
		if step.Detail != "" {
			if _, err := fmt.Fprintf(f.writer, "[%s] %s: %s\n", mark, step.Name, step.Detail); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(f.writer, "[%s] %s\n", mark, step.Name); err != nil {
			return err
		}
	}

	if report.Target != nil {
		if _, err := fmt.Fprintf(f.writer, "Resolved target: %s\n", report.Target.URL()); err != nil {
			return err
		}
	}

	if !report.Success {
		if report.Error != "" {
			_, err := fmt.Fprintf(f.writer, "Error: %s\n", report.Error)
			return err
		}
		_, err := fmt.Fprintln(f.writer, "Check failed")
		return err
	}

	if report.Message != "" {
		_, err := fmt.Fprintln(f.writer, report.Message)
		return err
	}
	return nil
}
