package api

import "time"

type (
	// Severity ranks how serious a vulnerability is
	Severity string

	// PortState describes the observed state of a scanned port
	PortState string

	// Port is a single discovered network port
	Port struct {
		Number   int       `json:"number"`
		Protocol string    `json:"protocol"`
		Service  string    `json:"service"`
		Version  string    `json:"version"`
		State    PortState `json:"state"`
	}

	// Vulnerability is one finding reported against a port's service
	Vulnerability struct {
		ID             string   `json:"id"`
		Severity       Severity `json:"severity"`
		Title          string   `json:"title"`
		Description    string   `json:"description"`
		Recommendation string   `json:"recommendation"`
		References     []string `json:"references,omitempty"`
		CVE            string   `json:"cve,omitempty"`
		CVSS           float64  `json:"cvss,omitempty"`
	}

	// PortDetails pairs a discovered port with its findings
	PortDetails struct {
		Port
		Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	}

	// Statistics holds aggregate issue counts and distributions
	Statistics struct {
		TotalIssues          int            `json:"totalIssues"`
		CriticalIssues       int            `json:"criticalIssues"`
		HighRiskIssues       int            `json:"highRiskIssues"`
		MediumRiskIssues     int            `json:"mediumRiskIssues"`
		LowRiskIssues        int            `json:"lowRiskIssues"`
		ProtocolDistribution map[string]int `json:"protocolDistribution"`
		ServiceDistribution  map[string]int `json:"serviceDistribution"`
		StateDistribution    map[string]int `json:"stateDistribution"`
	}

	// TopService ranks a service by how many findings it carries
	TopService struct {
		Service            string   `json:"service"`
		VulnerabilityCount int      `json:"vulnerabilityCount"`
		HighestSeverity    Severity `json:"highestSeverity"`
	}

	// Summary is the condensed view of a completed scan
	Summary struct {
		TotalVulnerabilities    int          `json:"totalVulnerabilities"`
		CriticalVulnerabilities int          `json:"criticalVulnerabilities"`
		HighRiskVulnerabilities int          `json:"highRiskVulnerabilities"`
		MediumRiskVulns         int          `json:"mediumRiskVulnerabilities"`
		LowRiskVulnerabilities  int          `json:"lowRiskVulnerabilities"`
		OpenPorts               int          `json:"openPorts"`
		FilteredPorts           int          `json:"filteredPorts"`
		ClosedPorts             int          `json:"closedPorts"`
		UniqueServices          int          `json:"uniqueServices"`
		Protocols               []string     `json:"protocols"`
		TopVulnerableServices   []TopService `json:"topVulnerableServices"`
	}

	// Configuration records which scanner produced the results
	Configuration struct {
		ScannerVersion string `json:"scannerVersion"`
		ScannerType    string `json:"scannerType"`
	}

	// ScanResults is the immutable result document assembled once a scan's
	// analysis finishes. It is owned by its Flow and never mutated
	ScanResults struct {
		StartTime     time.Time     `json:"startTime"`
		EndTime       time.Time     `json:"endTime"`
		ID            FlowID        `json:"id"`
		Target        string        `json:"target"`
		Method        ScanMethod    `json:"method"`
		OpenPorts     []PortDetails `json:"openPorts"`
		TotalPorts    int           `json:"totalPorts"`
		ScanDuration  int64         `json:"scanDuration"`
		Statistics    Statistics    `json:"statistics"`
		Summary       Summary       `json:"summary"`
		Configuration Configuration `json:"configuration"`
	}
)

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

const (
	PortOpen     PortState = "open"
	PortFiltered PortState = "filtered"
	PortClosed   PortState = "closed"
)

var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// Rank returns the ordering weight of a severity, critical highest
func (s Severity) Rank() int {
	return severityRank[s]
}

// MaxSeverity returns the more severe of two severities
func MaxSeverity(a, b Severity) Severity {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}
