package scanner

import (
	"context"
	"time"

	"github.com/kestrelsec/scanflow/pkg/api"
)

type (
	// Delays scales the simulated probe time per scan method
	Delays struct {
		Slow       time.Duration
		Normal     time.Duration
		Aggressive time.Duration
	}

	// Mock is a scan backend that fabricates plausible results without
	// touching the network. Slower methods take longer; aggressive scans
	// surface more ports and more findings
	Mock struct {
		delays Delays
	}

	serviceInfo struct {
		service string
		version string
	}
)

// Version reported in result documents produced from this backend
const (
	Type    = "mock"
	Version = "1.4.2"
)

// NewMock creates a mock backend with the given per-method delays
func NewMock(delays Delays) *Mock {
	return &Mock{delays: delays}
}

var commonPorts = []api.Port{
	{Number: 22, Protocol: "tcp", State: api.PortOpen},
	{Number: 80, Protocol: "tcp", State: api.PortOpen},
	{Number: 443, Protocol: "tcp", State: api.PortOpen},
}

var extraPorts = map[api.ScanMethod][]api.Port{
	api.MethodNormal: {
		{Number: 3306, Protocol: "tcp", State: api.PortOpen},
	},
	api.MethodAggressive: {
		{Number: 21, Protocol: "tcp", State: api.PortOpen},
		{Number: 3306, Protocol: "tcp", State: api.PortOpen},
		{Number: 8443, Protocol: "tcp", State: api.PortFiltered},
		{Number: 27017, Protocol: "tcp", State: api.PortOpen},
	},
}

var serviceTable = map[int]serviceInfo{
	21:    {"ftp", "vsftpd 3.0.3"},
	22:    {"ssh", "OpenSSH 8.2p1"},
	80:    {"http", "nginx 1.18.0"},
	443:   {"https", "nginx 1.18.0"},
	3306:  {"mysql", "MySQL 5.7.32"},
	8443:  {"https-alt", "unknown"},
	27017: {"mongodb", "MongoDB 4.4.1"},
}

// DiscoverPorts simulates a port sweep of the target. The method governs
// both the delay and how many ports turn up
func (m *Mock) DiscoverPorts(
	ctx context.Context, _ string, method api.ScanMethod,
) ([]api.Port, error) {
	if err := sleep(ctx, m.delay(method)); err != nil {
		return nil, err
	}

	ports := make([]api.Port, 0, len(commonPorts)+4)
	ports = append(ports, commonPorts...)
	ports = append(ports, extraPorts[method]...)
	return ports, nil
}

// DetectServices fills in service and version metadata for each port
func (m *Mock) DetectServices(
	ctx context.Context, ports []api.Port,
) ([]api.Port, error) {
	if err := sleep(ctx, m.delays.Aggressive/2); err != nil {
		return nil, err
	}

	res := make([]api.Port, len(ports))
	for i, p := range ports {
		if info, ok := serviceTable[p.Number]; ok {
			p.Service = info.service
			p.Version = info.version
		} else {
			p.Service = "unknown"
		}
		res[i] = p
	}
	return res, nil
}

// FindVulnerabilities returns catalog findings for each port's service.
// Aggressive scans additionally report low-severity informational findings
func (m *Mock) FindVulnerabilities(
	ctx context.Context, _ string, method api.ScanMethod, ports []api.Port,
) (map[int][]api.Vulnerability, error) {
	if err := sleep(ctx, m.delay(method)/2); err != nil {
		return nil, err
	}

	res := make(map[int][]api.Vulnerability, len(ports))
	for _, p := range ports {
		if p.State != api.PortOpen {
			continue
		}
		findings := append(
			[]api.Vulnerability(nil), vulnCatalog[p.Service]...,
		)
		if method == api.MethodAggressive {
			findings = append(findings, infoCatalog[p.Service]...)
		}
		if len(findings) > 0 {
			res[p.Number] = findings
		}
	}
	return res, nil
}

func (m *Mock) delay(method api.ScanMethod) time.Duration {
	switch method {
	case api.MethodSlow:
		return m.delays.Slow
	case api.MethodAggressive:
		return m.delays.Aggressive
	default:
		return m.delays.Normal
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
