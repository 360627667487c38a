// Package scanflow identifies the scan orchestration engine
package scanflow

const (
	// Name is the service name reported by logging and health checks
	Name = "scanflow-engine"

	// Version is the engine release version
	Version = "0.3.0"
)
