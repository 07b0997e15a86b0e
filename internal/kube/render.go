package kube

import (
	"fmt"
	"strings"
	"text/tabwriter"

	corev1 "k8s.io/api/core/v1"
)

// RenderNodeTable formats nodes the way `kubectl get nodes -o wide` does,
// so API-mode runs print a familiar listing.
func RenderNodeTable(nodes []corev1.Node) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tINTERNAL-IP\tEXTERNAL-IP\tKUBELET-VERSION")
	for _, node := range nodes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			node.Name,
			nodeStatus(node),
			nodeAddress(node, corev1.NodeInternalIP),
			nodeAddress(node, corev1.NodeExternalIP),
			node.Status.NodeInfo.KubeletVersion,
		)
	}
	w.Flush()
	return sb.String()
}

// RenderServiceTable formats services with the same columns the textual
// resolver parses.
func RenderServiceTable(services []corev1.Service) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tCLUSTER-IP\tEXTERNAL-IP\tPORT(S)")
	for _, svc := range services {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			svc.Name,
			svc.Spec.Type,
			svc.Spec.ClusterIP,
			externalAddressColumn(svc),
			portColumn(svc.Spec.Ports),
		)
	}
	w.Flush()
	return sb.String()
}

func nodeStatus(node corev1.Node) string {
	for _, cond := range node.Status.Conditions {
		if cond.Type == corev1.NodeReady {
			if cond.Status == corev1.ConditionTrue {
				return "Ready"
			}
			return "NotReady"
		}
	}
	return "Unknown"
}

func nodeAddress(node corev1.Node, addrType corev1.NodeAddressType) string {
	for _, addr := range node.Status.Addresses {
		if addr.Type == addrType {
			return addr.Address
		}
	}
	return "<none>"
}

func externalAddressColumn(svc corev1.Service) string {
	for _, ing := range svc.Status.LoadBalancer.Ingress {
		if ing.IP != "" {
			return ing.IP
		}
		if ing.Hostname != "" {
			return ing.Hostname
		}
	}
	return "<none>"
}

func portColumn(ports []corev1.ServicePort) string {
	if len(ports) == 0 {
		return "<none>"
	}
	specs := make([]string, 0, len(ports))
	for _, p := range ports {
		if p.NodePort != 0 {
			specs = append(specs, fmt.Sprintf("%d:%d/%s", p.Port, p.NodePort, p.Protocol))
			continue
		}
		specs = append(specs, fmt.Sprintf("%d/%s", p.Port, p.Protocol))
	}
	return strings.Join(specs, ",")
}
