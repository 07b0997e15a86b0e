package resolver

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// Placeholder values kubectl prints for columns with no assigned value.
const (
	placeholderNone = "<none>"
	markerLB        = "LoadBalancer"
)

// Target is the single endpoint a run decides to probe. Insecure disables
// certificate verification for the probe; it is set only by the fallback
// path, whose serving cert is not signed for callers outside the cluster.
// Operator-supplied targets never carry it, even for the same URL.
type Target struct {
	Scheme   string `json:"scheme"`
	Host     string `json:"host"`
	Port     string `json:"port,omitempty"`
	Insecure bool   `json:"insecure,omitempty"`
}

// Fallback returns the in-cluster API server target used when no
// LoadBalancer service yields a usable external address.
func Fallback() Target {
	return Target{Scheme: "https", Host: "kubernetes.default.svc", Insecure: true}
}

// IsFallback reports whether t is the fixed fallback target.
func (t Target) IsFallback() bool {
	return t == Fallback()
}

// URL renders the target as a request URL.
func (t Target) URL() string {
	if t.Port != "" {
		return fmt.Sprintf("%s://%s:%s", t.Scheme, t.Host, t.Port)
	}
	return fmt.Sprintf("%s://%s", t.Scheme, t.Host)
}

// ParseURL converts an operator-supplied URL into a Target, for runs that
// override discovery entirely.
func ParseURL(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("invalid target URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return Target{}, fmt.Errorf("target URL %q must include scheme and host", raw)
	}
	return Target{Scheme: u.Scheme, Host: u.Hostname(), Port: u.Port()}, nil
}

// ServiceRow is one parsed line of tabular service output.
type ServiceRow struct {
	Name            string
	Type            string
	ClusterIP       string
	ExternalAddress string
	PortSpec        string
}

// ParseRow splits a single service-listing line into a ServiceRow.
// The second return value is false for lines with too few columns.
func ParseRow(line string) (ServiceRow, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return ServiceRow{}, false
	}
	return ServiceRow{
		Name:            fields[0],
		Type:            fields[1],
		ClusterIP:       fields[2],
		ExternalAddress: fields[3],
		PortSpec:        fields[4],
	}, true
}

// usableAddress rejects placeholder and misaligned address columns. The
// "ClusterIP" check guards against the type column shifting into the
// address position on oddly formatted rows.
func usableAddress(addr string) bool {
	return addr != "" && addr != placeholderNone && addr != "ClusterIP"
}

// portNumber isolates the bare port from a kubectl port spec such as
// "80:30000/TCP". Returns "" when no leading numeric port is present.
func portNumber(spec string) string {
	port := spec
	if i := strings.IndexAny(port, ":/"); i >= 0 {
		port = port[:i]
	}
	if _, err := strconv.Atoi(port); err != nil {
		return ""
	}
	return port
}

// ResolveTable scans the raw text of a `kubectl get services` listing and
// picks the probe target: the first LoadBalancer row with a usable external
// address wins, and anything else falls back to the in-cluster API server.
// Malformed rows are skipped; the function never fails.
func ResolveTable(listing string) Target {
	lines := strings.Split(listing, "\n")
	if len(lines) > 0 {
		// First line is the column header.
		lines = lines[1:]
	}

	for _, line := range lines {
		if !strings.Contains(line, markerLB) {
			continue
		}
		row, ok := ParseRow(line)
		if !ok {
			continue
		}
		if !usableAddress(row.ExternalAddress) {
			continue
		}
		return Target{
			Scheme: "http",
			Host:   row.ExternalAddress,
			Port:   portNumber(row.PortSpec),
		}
	}

	return Fallback()
}

// ResolveServices picks the probe target from typed service objects, for
// runs that talk to the API server directly instead of scraping kubectl
// output. Semantics mirror ResolveTable: first LoadBalancer service in list
// order with an assigned ingress address wins.
func ResolveServices(services []corev1.Service) Target {
	for _, svc := range services {
		if svc.Spec.Type != corev1.ServiceTypeLoadBalancer {
			continue
		}
		addr := ingressAddress(svc.Status.LoadBalancer.Ingress)
		if !usableAddress(addr) {
			continue
		}
		target := Target{Scheme: "http", Host: addr}
		if len(svc.Spec.Ports) > 0 {
			target.Port = strconv.Itoa(int(svc.Spec.Ports[0].Port))
		}
		return target
	}

	return Fallback()
}

func ingressAddress(ingress []corev1.LoadBalancerIngress) string {
	for _, ing := range ingress {
		if ing.IP != "" {
			return ing.IP
		}
		if ing.Hostname != "" {
			return ing.Hostname
		}
	}
	return ""
}
