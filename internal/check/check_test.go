package check

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/kubereach/kubereach/internal/kube"
	"github.com/kubereach/kubereach/internal/output"
	"github.com/kubereach/kubereach/internal/probe"
	"github.com/kubereach/kubereach/internal/resolver"
)

type fakeSource struct {
	nodes       string
	nodesErr    error
	services    string
	target      resolver.Target
	servicesErr error

	servicesCalled bool
}

func (f *fakeSource) Nodes(ctx context.Context) (string, error) {
	return f.nodes, f.nodesErr
}

func (f *fakeSource) Services(ctx context.Context) (string, resolver.Target, error) {
	f.servicesCalled = true
	return f.services, f.target, f.servicesErr
}

type fakeProber struct {
	err    error
	called bool
	target resolver.Target
}

func (f *fakeProber) Do(ctx context.Context, target resolver.Target) (*probe.Result, error) {
	f.called = true
	f.target = target
	if f.err != nil {
		return nil, f.err
	}
	return &probe.Result{Target: target, StatusCode: http.StatusOK}, nil
}

func newFormatter(buf *bytes.Buffer) *output.Formatter {
	f := output.New(output.FormatText)
	f.SetWriter(buf)
	return f
}

func TestRun_Success(t *testing.T) {
	var buf bytes.Buffer
	source := &fakeSource{
		nodes:    "NAME STATUS\nnode-a Ready\n",
		services: "NAME TYPE\nmy-app LoadBalancer\n",
		target:   resolver.Target{Scheme: "http", Host: "34.123.45.67", Port: "80"},
	}
	prober := &fakeProber{}

	code := New(source, prober, newFormatter(&buf)).Run(context.Background())

	assert.Equal(t, 0, code)
	assert.True(t, prober.called)
	assert.Equal(t, source.target, prober.target)
	assert.Contains(t, buf.String(), "http://34.123.45.67:80")
	assert.Contains(t, buf.String(), "is reachable")
}

func TestRun_NodeListingFailureIsFatal(t *testing.T) {
	var buf bytes.Buffer
	source := &fakeSource{nodesErr: errors.New("connection refused")}
	prober := &fakeProber{}

	code := New(source, prober, newFormatter(&buf)).Run(context.Background())

	assert.Equal(t, 1, code)
	assert.False(t, source.servicesCalled, "service listing must not run after node failure")
	assert.False(t, prober.called)
	assert.Contains(t, buf.String(), "could not list cluster nodes")
}

func TestRun_ServiceListingFailureIsFatal(t *testing.T) {
	var buf bytes.Buffer
	source := &fakeSource{
		nodes:       "NAME STATUS\nnode-a Ready\n",
		servicesErr: errors.New("forbidden"),
	}
	prober := &fakeProber{}

	code := New(source, prober, newFormatter(&buf)).Run(context.Background())

	assert.Equal(t, 1, code)
	assert.False(t, prober.called)
	assert.Contains(t, buf.String(), "could not list cluster services")
}

func TestRun_ProbeFailureIsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	source := &fakeSource{
		nodes:    "NAME STATUS\nnode-a Ready\n",
		services: "NAME TYPE\nkubernetes ClusterIP\n",
		target:   resolver.Fallback(),
	}
	prober := &fakeProber{err: errors.New("no route to host")}

	code := New(source, prober, newFormatter(&buf)).Run(context.Background())

	assert.Equal(t, 0, code, "probe failure must not change the exit code")
	assert.Contains(t, buf.String(), "did not respond")
}

func TestWithTarget_OverridesResolution(t *testing.T) {
	source := &fakeSource{
		nodes:    "NAME\nnode-a\n",
		services: "NAME\nmy-app\n",
		target:   resolver.Fallback(),
	}
	override := resolver.Target{Scheme: "http", Host: "198.51.100.7", Port: "8080"}
	prober := &fakeProber{}
	var buf bytes.Buffer

	code := New(WithTarget(source, override), prober, newFormatter(&buf)).Run(context.Background())

	assert.Equal(t, 0, code)
	assert.Equal(t, override, prober.target)
}

func TestWithTarget_ListingFailuresStillFatal(t *testing.T) {
	source := &fakeSource{nodesErr: errors.New("unreachable")}
	override := resolver.Target{Scheme: "http", Host: "198.51.100.7"}
	prober := &fakeProber{}
	var buf bytes.Buffer

	code := New(WithTarget(source, override), prober, newFormatter(&buf)).Run(context.Background())

	assert.Equal(t, 1, code)
	assert.False(t, prober.called)
}

func TestAPISource_ResolvesLoadBalancer(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "node-a"}},
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "my-app", Namespace: "default"},
			Spec: corev1.ServiceSpec{
				Type:  corev1.ServiceTypeLoadBalancer,
				Ports: []corev1.ServicePort{{Port: 80, NodePort: 30000, Protocol: corev1.ProtocolTCP}},
			},
			Status: corev1.ServiceStatus{
				LoadBalancer: corev1.LoadBalancerStatus{
					Ingress: []corev1.LoadBalancerIngress{{IP: "34.123.45.67"}},
				},
			},
		},
	)
	source := APISource{Client: kube.NewClientForTesting(clientset)}

	nodeListing, err := source.Nodes(context.Background())
	require.NoError(t, err)
	assert.Contains(t, nodeListing, "node-a")

	serviceListing, target, err := source.Services(context.Background())
	require.NoError(t, err)
	assert.Contains(t, serviceListing, "34.123.45.67")
	assert.Equal(t, resolver.Target{Scheme: "http", Host: "34.123.45.67", Port: "80"}, target)
}

func TestAPISource_FallsBackWithoutLoadBalancer(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&corev1.Service{
			ObjectMeta: metav1.ObjectMeta{Name: "kubernetes", Namespace: "default"},
			Spec:       corev1.ServiceSpec{Type: corev1.ServiceTypeClusterIP},
		},
	)
	source := APISource{Client: kube.NewClientForTesting(clientset)}

	_, target, err := source.Services(context.Background())
	require.NoError(t, err)
	assert.Equal(t, resolver.Fallback(), target)
}
