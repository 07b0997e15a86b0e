package check

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kubereach/kubereach/internal/kube"
	"github.com/kubereach/kubereach/internal/kubectl"
	"github.com/kubereach/kubereach/internal/output"
	"github.com/kubereach/kubereach/internal/probe"
	"github.com/kubereach/kubereach/internal/resolver"
)

// Source provides the node and service listings of a run. Services also
// yields the resolved probe target, since resolution depends on whether the
// listing is textual or typed.
type Source interface {
	Nodes(ctx context.Context) (string, error)
	Services(ctx context.Context) (string, resolver.Target, error)
}

// Prober issues the single outbound request.
type Prober interface {
	Do(ctx context.Context, target resolver.Target) (*probe.Result, error)
}

// Checker runs the sequential reachability pipeline: nodes, services,
// resolve, probe. Each step is fully awaited before the next begins.
type Checker struct {
	source    Source
	prober    Prober
	formatter *output.Formatter
}

func New(source Source, prober Prober, formatter *output.Formatter) *Checker {
	return &Checker{source: source, prober: prober, formatter: formatter}
}

// Run executes the pipeline and returns the process exit code: 1 when
// either listing step fails, 0 otherwise. A failed probe changes the final
// message but never the exit code.
func (c *Checker) Run(ctx context.Context) int {
	report := &output.Report{}

	nodeListing, err := c.source.Nodes(ctx)
	if err != nil {
		log.Error().Err(err).Msg("node listing failed")
		report.Steps = append(report.Steps, output.Step{Name: "list nodes", OK: false, Detail: err.Error()})
		report.Error = fmt.Sprintf("could not list cluster nodes: %v", err)
		c.print(report)
		return 1
	}
	report.NodeListing = nodeListing
	report.Steps = append(report.Steps, output.Step{Name: "list nodes", OK: true})

	serviceListing, target, err := c.source.Services(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service listing failed")
		report.Steps = append(report.Steps, output.Step{Name: "list services", OK: false, Detail: err.Error()})
		report.Error = fmt.Sprintf("could not list cluster services: %v", err)
		c.print(report)
		return 1
	}
	report.ServiceListing = serviceListing
	report.Steps = append(report.Steps, output.Step{Name: "list services", OK: true})
	report.Target = &target

	if target.IsFallback() {
		log.Debug().Msg("no LoadBalancer service found, probing in-cluster API server")
	} else {
		log.Debug().Str("url", target.URL()).Msg("resolved LoadBalancer target")
	}

	result, err := c.prober.Do(ctx, target)
	if err != nil {
		report.Steps = append(report.Steps, output.Step{Name: "probe", OK: false, Detail: err.Error()})
		report.Message = "The target did not respond. Verify the service is serving traffic, or probe a different endpoint manually."
		c.print(report)
		return 0
	}

	report.Steps = append(report.Steps, output.Step{Name: "probe", OK: true, Detail: fmt.Sprintf("status %d", result.StatusCode)})
	report.Success = true
	report.Message = fmt.Sprintf("Target %s is reachable (status %d)", target.URL(), result.StatusCode)
	c.print(report)
	return 0
}

func (c *Checker) print(report *output.Report) {
	if err := c.formatter.Print(report); err != nil {
		log.Error().Err(err).Msg("failed to print report")
	}
}

// WithTarget wraps a Source so the run probes a fixed operator-supplied
// target instead of the discovered one. Listings still run, so the fatal
// precondition checks are unchanged.
func WithTarget(source Source, target resolver.Target) Source {
	return overrideSource{source: source, target: target}
}

type overrideSource struct {
	source Source
	target resolver.Target
}

func (s overrideSource) Nodes(ctx context.Context) (string, error) {
	return s.source.Nodes(ctx)
}

func (s overrideSource) Services(ctx context.Context) (string, resolver.Target, error) {
	listing, _, err := s.source.Services(ctx)
	return listing, s.target, err
}

// KubectlSource feeds the pipeline from kubectl's tabular output, resolving
// the target with the textual scanner.
type KubectlSource struct {
	Runner *kubectl.Runner
}

func (s KubectlSource) Nodes(ctx context.Context) (string, error) {
	return s.Runner.Nodes(ctx)
}

func (s KubectlSource) Services(ctx context.Context) (string, resolver.Target, error) {
	listing, err := s.Runner.Services(ctx)
	if err != nil {
		return "", resolver.Target{}, err
	}
	return listing, resolver.ResolveTable(listing), nil
}

// APISource feeds the pipeline from typed API objects, resolving the target
// without text scraping.
type APISource struct {
	Client    *kube.Client
	Namespace string
}

func (s APISource) Nodes(ctx context.Context) (string, error) {
	nodes, err := s.Client.ListNodes(ctx)
	if err != nil {
		return "", err
	}
	return kube.RenderNodeTable(nodes), nil
}

func (s APISource) Services(ctx context.Context) (string, resolver.Target, error) {
	services, err := s.Client.ListServices(ctx, s.Namespace)
	if err != nil {
		return "", resolver.Target{}, err
	}
	return kube.RenderServiceTable(services), resolver.ResolveServices(services), nil
}
