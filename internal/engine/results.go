package engine

import (
	"sort"

	"github.com/kestrelsec/scanflow/internal/scanner"
	"github.com/kestrelsec/scanflow/pkg/api"
)

// assembleResults builds the immutable result document from a finished
// run's discovered ports and findings
func (e *Engine) assembleResults(run *flowRun) *api.ScanResults {
	end := e.now()

	res := &api.ScanResults{
		ID:           run.id,
		Target:       run.target,
		Method:       run.method,
		StartTime:    run.started,
		EndTime:      end,
		TotalPorts:   len(run.ports),
		ScanDuration: end.Sub(run.started).Milliseconds(),
		Configuration: api.Configuration{
			ScannerVersion: scanner.Version,
			ScannerType:    scanner.Type,
		},
	}

	open := make([]api.PortDetails, 0, len(run.ports))
	for _, p := range run.ports {
		if p.State != api.PortOpen {
			continue
		}
		vulns := run.vulns[p.Number]
		if vulns == nil {
			vulns = []api.Vulnerability{}
		}
		open = append(open, api.PortDetails{
			Port:            p,
			Vulnerabilities: vulns,
		})
	}
	res.OpenPorts = open

	res.Statistics = buildStatistics(run)
	res.Summary = buildSummary(run, &res.Statistics)
	return res
}

func buildStatistics(run *flowRun) api.Statistics {
	stats := api.Statistics{
		ProtocolDistribution: map[string]int{},
		ServiceDistribution:  map[string]int{},
		StateDistribution:    map[string]int{},
	}

	for _, p := range run.ports {
		stats.ProtocolDistribution[p.Protocol]++
		stats.StateDistribution[string(p.State)]++
		if p.Service != "" {
			stats.ServiceDistribution[p.Service]++
		}
	}

	for _, found := range run.vulns {
		for _, v := range found {
			stats.TotalIssues++
			switch v.Severity {
			case api.SeverityCritical:
				stats.CriticalIssues++
			case api.SeverityHigh:
				stats.HighRiskIssues++
			case api.SeverityMedium:
				stats.MediumRiskIssues++
			case api.SeverityLow:
				stats.LowRiskIssues++
			}
		}
	}

	return stats
}

func buildSummary(run *flowRun, stats *api.Statistics) api.Summary {
	states := stats.StateDistribution
	return api.Summary{
		TotalVulnerabilities:    stats.TotalIssues,
		CriticalVulnerabilities: stats.CriticalIssues,
		HighRiskVulnerabilities: stats.HighRiskIssues,
		MediumRiskVulns:         stats.MediumRiskIssues,
		LowRiskVulnerabilities:  stats.LowRiskIssues,
		OpenPorts:               states[string(api.PortOpen)],
		FilteredPorts:           states[string(api.PortFiltered)],
		ClosedPorts:             states[string(api.PortClosed)],
		UniqueServices:          len(stats.ServiceDistribution),
		Protocols:               sortedKeys(stats.ProtocolDistribution),
		TopVulnerableServices:   topServices(run),
	}
}

const maxTopServices = 5

// topServices ranks services by how many findings they carry, breaking ties
// by highest severity and then name
func topServices(run *flowRun) []api.TopService {
	byService := map[string]*api.TopService{}
	for _, p := range run.ports {
		found := run.vulns[p.Number]
		if len(found) == 0 || p.Service == "" {
			continue
		}
		entry, ok := byService[p.Service]
		if !ok {
			entry = &api.TopService{Service: p.Service}
			byService[p.Service] = entry
		}
		for _, v := range found {
			entry.VulnerabilityCount++
			entry.HighestSeverity = api.MaxSeverity(
				entry.HighestSeverity, v.Severity,
			)
		}
	}

	ranked := make([]api.TopService, 0, len(byService))
	for _, entry := range byService {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		l, r := ranked[i], ranked[j]
		if l.VulnerabilityCount != r.VulnerabilityCount {
			return l.VulnerabilityCount > r.VulnerabilityCount
		}
		if l.HighestSeverity != r.HighestSeverity {
			return l.HighestSeverity.Rank() > r.HighestSeverity.Rank()
		}
		return l.Service < r.Service
	})

	if len(ranked) > maxTopServices {
		ranked = ranked[:maxTopServices]
	}
	return ranked
}

func sortedKeys(m map[string]int) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
