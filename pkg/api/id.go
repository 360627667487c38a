package api

import "github.com/google/uuid"

type (
	// FlowID is a unique identifier for a flow
	FlowID string

	// StepName identifies a pipeline step within a flow
	StepName string
)

// Step names of the standard scan pipeline
const (
	StepInitialization  StepName = "Initialization"
	StepPortScanning    StepName = "Port Scanning"
	StepServiceDetect   StepName = "Service Detection"
	StepVulnAnalysis    StepName = "Vulnerability Analysis"
	StepReportGenerated StepName = "Report Generation"
)

// NewFlowID returns a freshly assigned flow identifier
func NewFlowID() FlowID {
	return FlowID(uuid.NewString())
}
