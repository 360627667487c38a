// Package scanner defines the scan backend the orchestrator drives. The
// backend is stateless and safe to call concurrently for independent flows.
package scanner

import (
	"context"

	"github.com/kestrelsec/scanflow/pkg/api"
)

// Backend produces port and vulnerability data for a scan target
type Backend interface {
	// DiscoverPorts probes the target and returns the ports it finds.
	// Service metadata is left for DetectServices
	DiscoverPorts(
		ctx context.Context, target string, method api.ScanMethod,
	) ([]api.Port, error)

	// DetectServices annotates discovered ports with service and version
	// information
	DetectServices(ctx context.Context, ports []api.Port) ([]api.Port, error)

	// FindVulnerabilities looks up findings for the discovered ports,
	// keyed by port number
	FindVulnerabilities(
		ctx context.Context, target string, method api.ScanMethod,
		ports []api.Port,
	) (map[int][]api.Vulnerability, error)
}
