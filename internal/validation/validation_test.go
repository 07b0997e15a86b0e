package validation

import (
	"strings"
	"testing"
)

func TestPort(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "valid port", value: "80", wantErr: false},
		{name: "max port", value: "65535", wantErr: false},
		{name: "empty value", value: "", wantErr: false},
		{name: "zero", value: "0", wantErr: true},
		{name: "too large", value: "65536", wantErr: true},
		{name: "not a number", value: "http", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Port("PORT", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Port(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestHost(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "IPv4", value: "34.123.45.67", wantErr: false},
		{name: "IPv6", value: "fd00::1", wantErr: false},
		{name: "hostname", value: "kubernetes.default.svc", wantErr: false},
		{name: "empty value", value: "", wantErr: false},
		{name: "leading hyphen", value: "-bad.example.com", wantErr: true},
		{name: "spaces", value: "not a host", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Host("HOST", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Host(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestTargetURL(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "http with port", value: "http://203.0.113.10:80", wantErr: false},
		{name: "https without port", value: "https://kubernetes.default.svc", wantErr: false},
		{name: "empty value", value: "", wantErr: false},
		{name: "missing scheme", value: "203.0.113.10:80", wantErr: true},
		{name: "unsupported scheme", value: "ftp://example.com", wantErr: true},
		{name: "bad port", value: "http://example.com:99999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TargetURL("TARGET", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("TargetURL(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestError_IncludesRemediation(t *testing.T) {
	err := Port("PORT", "99999")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Remediation:") {
		t.Errorf("Error() = %q, want remediation hint", err.Error())
	}
}
