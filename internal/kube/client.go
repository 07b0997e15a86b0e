package kube

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client lists cluster objects through the Kubernetes API instead of
// scraping kubectl output.
type Client struct {
	clientset kubernetes.Interface
	timeout   time.Duration
}

// NewClient builds a Client. kubeconfig empty means in-cluster service
// account auth. A zero timeout means list calls block indefinitely.
func NewClient(kubeconfig string, timeout time.Duration) (*Client, error) {
	var restConfig *rest.Config
	var err error

	if kubeconfig != "" {
		restConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build config from kubeconfig: %w", err)
		}
		log.Debug().Str("kubeconfig", kubeconfig).Msg("using kubeconfig authentication")
	} else {
		restConfig, err = rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to get in-cluster config: %w", err)
		}
		log.Debug().Msg("using in-cluster authentication")
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	return &Client{clientset: clientset, timeout: timeout}, nil
}

// NewClientForTesting wraps an existing clientset, typically a fake.
func NewClientForTesting(clientset kubernetes.Interface) *Client {
	return &Client{clientset: clientset}
}

// ListNodes returns all cluster nodes.
func (c *Client) ListNodes(ctx context.Context) ([]corev1.Node, error) {
	ctx, cancel := c.listContext(ctx)
	defer cancel()

	list, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return list.Items, nil
}

// ListServices returns services in the given namespace; an empty namespace
// means the default namespace, matching kubectl's behavior.
func (c *Client) ListServices(ctx context.Context, namespace string) ([]corev1.Service, error) {
	if namespace == "" {
		namespace = metav1.NamespaceDefault
	}

	ctx, cancel := c.listContext(ctx)
	defer cancel()

	list, err := c.clientset.CoreV1().Services(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return list.Items, nil
}

func (c *Client) listContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}
